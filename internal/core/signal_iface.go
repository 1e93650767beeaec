package core

import "errors"

// Frame is one encoded outbound message.
type Frame []byte

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
// TrySend never blocks. It returns ErrBackpressure when the outbound queue
// is full and ErrConnClosed once Close has been called.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
