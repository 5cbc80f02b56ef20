package devices

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/FPtrevi/MidiControl/logging"
	"github.com/FPtrevi/MidiControl/mixer"
)

var mixerOutLog *slog.Logger

func init() {
	mixerOutLog = logging.Get(logging.MIXER_OUT)
}

// TCPTransport carries raw MIDI bytes to a Qu-family mixer over its TCP/IP
// MIDI port.
type TCPTransport struct {
	host string
	port int

	prober *Prober

	DialTimeout  time.Duration
	ProbeTimeout time.Duration
	SendTimeout  time.Duration

	mu   sync.Mutex
	conn net.Conn
}

func NewTCPTransport(host string, port int, prober *Prober) *TCPTransport {
	return &TCPTransport{
		host:         host,
		port:         port,
		prober:       prober,
		DialTimeout:  5 * time.Second,
		ProbeTimeout: 3 * time.Second,
		SendTimeout:  2 * time.Second,
	}
}

func (t *TCPTransport) Target() string {
	return net.JoinHostPort(t.host, strconv.Itoa(t.port))
}

// Open resolves the host, checks ICMP reachability, verifies the TCP port
// accepts connections, then dials. Failure at any stage returns a
// ConnectError naming the stage and leaves no partially-open socket.
func (t *TCPTransport) Open(ctx context.Context) error {
	target := t.Target()
	if _, err := net.DefaultResolver.LookupHost(ctx, t.host); err != nil {
		return &mixer.ConnectError{Stage: "resolve", Target: target, Err: err}
	}
	if err := t.prober.Ping(t.host); err != nil {
		return &mixer.ConnectError{Stage: "ping", Target: target, Err: err}
	}
	if err := ProbeTCP(target, t.ProbeTimeout); err != nil {
		return &mixer.ConnectError{Stage: "probe", Target: target, Err: err}
	}
	d := net.Dialer{Timeout: t.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", target)
	if err != nil {
		return &mixer.ConnectError{Stage: "dial", Target: target, Err: err}
	}

	t.mu.Lock()
	if t.conn != nil {
		t.conn.Close()
	}
	t.conn = conn
	t.mu.Unlock()

	mixerOutLog.Info("TCP MIDI link established", "target", target)
	return nil
}

// Send writes one MIDI message. On failure the socket is closed immediately
// so a broken link never sees the remainder of a wire sequence.
func (t *TCPTransport) Send(b []byte) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return &mixer.SendError{Op: "tcp", Err: mixer.ErrNotConnected}
	}
	conn.SetWriteDeadline(time.Now().Add(t.SendTimeout))
	if _, err := conn.Write(b); err != nil {
		t.Close()
		return &mixer.SendError{Op: "tcp", Err: err}
	}
	mixerOutLog.Debug("sent MIDI over TCP", "bytes", fmt.Sprintf("% X", b))
	return nil
}

func (t *TCPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}
