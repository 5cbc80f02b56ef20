// Error taxonomy for the bridge core. Expected, recoverable conditions
// (out-of-range scene numbers, unmapped channels, full queues) are distinct
// types from connection-level failures so callers can branch with errors.As
// instead of string matching.
package mixer

import (
	"errors"
	"fmt"
)

var (
	// ErrUnmappedChannel marks a note event on a MIDI channel with no
	// configured intent mapping.
	ErrUnmappedChannel = errors.New("unrecognized MIDI channel")

	// ErrNotConnected is returned when a send is attempted without an open
	// transport.
	ErrNotConnected = errors.New("not connected")

	// ErrShuttingDown is returned by lifecycle operations after shutdown.
	ErrShuttingDown = errors.New("service is shutting down")
)

// ConnectError reports a failure while establishing a mixer connection.
// Stage names the step that failed (resolve, ping, probe, dial, port).
type ConnectError struct {
	Stage  string
	Target string
	Err    error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %s failed: %v", e.Target, e.Stage, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// SendError reports a mid-transmission failure. The current wire sequence is
// aborted and the connection state flips toward Disconnected; nothing is
// retried automatically.
type SendError struct {
	Op  string
	Err error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send %s: %v", e.Op, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// ValidationError reports an out-of-range intent. The event is dropped
// before any byte reaches the wire.
type ValidationError struct {
	Field string
	Value int
	Min   int
	Max   int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %d: must be within %d..%d", e.Field, e.Value, e.Min, e.Max)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsSend reports whether err is (or wraps) a SendError.
func IsSend(err error) bool {
	var se *SendError
	return errors.As(err, &se)
}

// IsConnect reports whether err is (or wraps) a ConnectError.
func IsConnect(err error) bool {
	var ce *ConnectError
	return errors.As(err, &ce)
}
