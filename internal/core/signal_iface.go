package core

import "github.com/dkeye/Huddle/internal/protocol"

// Frame is one encoded signaling envelope.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// Send encodes m and queues it on conn without blocking.
func Send(conn SignalConnection, m protocol.Message) error {
	b, err := protocol.Encode(m)
	if err != nil {
		return err
	}
	return conn.TrySend(b)
}

// SignalChannel is the client side of the signaling transport.
// Events is closed after Done fires.
type SignalChannel interface {
	Send(protocol.Command) error
	Events() <-chan protocol.Event
	Done() <-chan struct{}
	Close()
}
