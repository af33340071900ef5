package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkeye/Roulette/internal/core"
	"github.com/dkeye/Roulette/internal/domain"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

// Task types carrying archive writes through the queue.
const (
	TaskSessionStarted = "archive:session_started"
	TaskMessageSent    = "archive:message_sent"
	TaskSessionEnded   = "archive:session_ended"
)

const archiveQueue = "archive"

type sessionStartedPayload struct {
	Record          string    `json:"record"`
	SessionID       string    `json:"session_id"`
	InitiatorName   string    `json:"initiator_name"`
	ResponderName   string    `json:"responder_name"`
	InitiatorClient string    `json:"initiator_client,omitempty"`
	ResponderClient string    `json:"responder_client,omitempty"`
	StartedAt       time.Time `json:"started_at"`
}

type messageSentPayload struct {
	Record string `json:"record"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

type sessionEndedPayload struct {
	Record  string    `json:"record"`
	EndedAt time.Time `json:"ended_at"`
}

// Queue implements core.Archive by enqueuing asynq tasks instead of writing
// to the database in the relay path. Record ids are minted here so the handle
// exists before the worker commits anything.
type Queue struct {
	client *asynq.Client
}

var _ core.Archive = (*Queue)(nil)

func NewQueue(redisURL string) (*Queue, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("archive queue: parse redis url: %w", err)
	}
	return &Queue{client: asynq.NewClient(opt)}, nil
}

func (q *Queue) Close() error {
	return q.client.Close()
}

func (q *Queue) SessionStarted(ctx context.Context, id domain.SessionID, initiator, responder domain.Profile, clientA, clientB string) (core.RecordID, error) {
	rec := core.RecordID(uuid.NewString())
	err := q.enqueue(ctx, TaskSessionStarted, sessionStartedPayload{
		Record:          string(rec),
		SessionID:       string(id),
		InitiatorName:   initiator.DisplayName(),
		ResponderName:   responder.DisplayName(),
		InitiatorClient: clientA,
		ResponderClient: clientB,
		StartedAt:       time.Now(),
	})
	if err != nil {
		return "", err
	}
	return rec, nil
}

func (q *Queue) MessageSent(ctx context.Context, rec core.RecordID, sender domain.ParticipantID, text string) error {
	return q.enqueue(ctx, TaskMessageSent, messageSentPayload{
		Record: string(rec),
		Sender: string(sender),
		Text:   text,
	})
}

func (q *Queue) SessionEnded(ctx context.Context, rec core.RecordID, endedAt time.Time) error {
	return q.enqueue(ctx, TaskSessionEnded, sessionEndedPayload{
		Record:  string(rec),
		EndedAt: endedAt,
	})
}

func (q *Queue) enqueue(ctx context.Context, taskType string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("archive queue: marshal %s: %w", taskType, err)
	}
	_, err = q.client.EnqueueContext(ctx, asynq.NewTask(taskType, b),
		asynq.Queue(archiveQueue), asynq.MaxRetry(3))
	return err
}

// NewWorker builds the asynq server consuming the archive queue.
func NewWorker(redisURL string) (*asynq.Server, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("archive worker: parse redis url: %w", err)
	}
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: 5,
		Queues:      map[string]int{archiveQueue: 1, "default": 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Warn().Err(err).Str("module", "archive.worker").Str("task", task.Type()).Msg("task failed")
		}),
	})
	return srv, nil
}

// RegisterTasks binds the queue task types to database writes. Tasks get a
// bounded time budget per execution; returning the error lets asynq retry.
func RegisterTasks(mux *asynq.ServeMux, pg *Postgres) {
	mux.HandleFunc(TaskSessionStarted, func(ctx context.Context, t *asynq.Task) error {
		var p sessionStartedPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return pg.insertSession(ctx, core.RecordID(p.Record), domain.SessionID(p.SessionID),
			p.InitiatorName, p.ResponderName, p.InitiatorClient, p.ResponderClient, p.StartedAt)
	})
	mux.HandleFunc(TaskMessageSent, func(ctx context.Context, t *asynq.Task) error {
		var p messageSentPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return pg.MessageSent(ctx, core.RecordID(p.Record), domain.ParticipantID(p.Sender), p.Text)
	})
	mux.HandleFunc(TaskSessionEnded, func(ctx context.Context, t *asynq.Task) error {
		var p sessionEndedPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return pg.SessionEnded(ctx, core.RecordID(p.Record), p.EndedAt)
	})
}
