package devices

import "context"

// Transport is the lifecycle surface shared by every mixer link. Exactly one
// transport is open per active connection session; opening a new one always
// closes the prior one first.
type Transport interface {
	Open(ctx context.Context) error
	Close() error
	Target() string
}

// ByteSender is implemented by transports that carry raw MIDI bytes
// (TCP/IP MIDI and USB MIDI output ports).
type ByteSender interface {
	Send(b []byte) error
}
