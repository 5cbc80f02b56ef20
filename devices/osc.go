package devices

import (
	"context"
	"net"
	"strconv"
	"sync"

	"github.com/hypebeast/go-osc/osc"

	"github.com/FPtrevi/MidiControl/mixer"
)

// OscClient is the message-level surface of go-osc used by the DM3 link.
// *osc.Client satisfies it.
type OscClient interface {
	Send(packet osc.Packet) error
}

// OSCTransport talks to a DM3-family mixer over OSC/UDP. UDP is
// connectionless, so Open only verifies reachability and sends a best-effort
// hello; send success means "transmitted", never "applied".
type OSCTransport struct {
	host string
	port int

	prober *Prober

	mu     sync.Mutex
	client OscClient

	// newClient is swappable in tests.
	newClient func(host string, port int) OscClient
}

func NewOSCTransport(host string, port int, prober *Prober) *OSCTransport {
	return &OSCTransport{
		host:   host,
		port:   port,
		prober: prober,
		newClient: func(host string, port int) OscClient {
			return osc.NewClient(host, port)
		},
	}
}

func (t *OSCTransport) Target() string {
	return net.JoinHostPort(t.host, strconv.Itoa(t.port))
}

// Open runs the reachability probe before marking the session usable, so a
// silently dropped datagram can later be distinguished from "never tried".
func (t *OSCTransport) Open(_ context.Context) error {
	target := t.Target()
	if err := t.prober.Ping(t.host); err != nil {
		return &mixer.ConnectError{Stage: "ping", Target: target, Err: err}
	}
	client := t.newClient(t.host, t.port)

	// Best-effort hello. The DM3 never acknowledges; a failure here only
	// means the local socket could not transmit.
	if err := client.Send(osc.NewMessage("/test_connection", "ping")); err != nil {
		mixerOutLog.Warn("OSC hello failed", "target", target, "error", err)
	}

	t.mu.Lock()
	t.client = client
	t.mu.Unlock()

	mixerOutLog.Info("OSC link ready", "target", target)
	return nil
}

// SendMessage transmits one OSC message, fire-and-forget.
func (t *OSCTransport) SendMessage(msg *osc.Message) error {
	t.mu.Lock()
	client := t.client
	t.mu.Unlock()
	if client == nil {
		return &mixer.SendError{Op: "osc", Err: mixer.ErrNotConnected}
	}
	if err := client.Send(msg); err != nil {
		return &mixer.SendError{Op: "osc", Err: err}
	}
	mixerOutLog.Debug("sent OSC message", "address", msg.Address)
	return nil
}

func (t *OSCTransport) Close() error {
	t.mu.Lock()
	t.client = nil
	t.mu.Unlock()
	return nil
}
