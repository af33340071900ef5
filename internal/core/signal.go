package core

// Frame is a raw payload going to a participant's signaling connection.
type Frame []byte

// SignalConnection abstracts a participant's messaging transport.
// Owned by the adapter; the adapter must Close() it.
// TrySend must never block: it either hands the frame to the transport's
// outbound buffer or returns an error.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
