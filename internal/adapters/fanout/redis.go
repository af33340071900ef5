// Package fanout carries outbound notices between server processes so a
// pairing can span two instances behind a load balancer.
package fanout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkeye/Roulette/internal/core"
	"github.com/dkeye/Roulette/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const noticeChannel = "roulette:notices"

type envelope struct {
	Target  string          `json:"target"`
	Payload json.RawMessage `json:"payload"`
}

// RedisBus broadcasts notices on a single pub/sub channel. Every process
// receives every notice and delivers only the ones whose target it holds;
// the rest are dropped by the subscriber.
type RedisBus struct {
	client *redis.Client
}

var _ core.FanoutBus = (*RedisBus)(nil)

func NewRedisBus(redisURL string) (*RedisBus, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("fanout: parse redis url: %w", err)
	}
	c := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("fanout: ping: %w", err)
	}
	return &RedisBus{client: c}, nil
}

func (b *RedisBus) Publish(ctx context.Context, target domain.ParticipantID, payload []byte) error {
	env, err := json.Marshal(envelope{Target: string(target), Payload: payload})
	if err != nil {
		return fmt.Errorf("fanout: marshal envelope: %w", err)
	}
	return b.client.Publish(ctx, noticeChannel, env).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, deliver func(target domain.ParticipantID, payload []byte)) error {
	sub := b.client.Subscribe(ctx, noticeChannel)
	defer sub.Close()
	ch := sub.Channel()
	log.Info().Str("module", "fanout").Str("channel", noticeChannel).Msg("subscribed")
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Warn().Err(err).Str("module", "fanout").Msg("bad envelope")
				continue
			}
			deliver(domain.ParticipantID(env.Target), env.Payload)
		}
	}
}

func (b *RedisBus) Close() error {
	return b.client.Close()
}
