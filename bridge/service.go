// Package bridge ties the pieces together: raw MIDI events arrive through
// HandleRaw, wait in a bounded queue, and a single dispatch goroutine routes
// and applies them against whatever mixer session is currently connected.
// All mixer I/O happens on that one goroutine; the service mutex is never
// held across a wire operation.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FPtrevi/MidiControl/devices"
	"github.com/FPtrevi/MidiControl/logging"
	"github.com/FPtrevi/MidiControl/mixer"
	"github.com/FPtrevi/MidiControl/mixer/dm3"
	"github.com/FPtrevi/MidiControl/mixer/qu"
)

var appLog *slog.Logger = logging.Get(logging.APP)

// Config carries the bridge tuning knobs. Zero values are replaced by the
// defaults below.
type Config struct {
	QueueSize        int
	DispatchInterval time.Duration
	DispatchBatch    int
	ProbeInterval    time.Duration
	MaxProbeFailures int
	StopTimeout      time.Duration
}

func DefaultConfig() Config {
	return Config{
		QueueSize:        256,
		DispatchInterval: 25 * time.Millisecond,
		DispatchBatch:    100,
		ProbeInterval:    3 * time.Second,
		MaxProbeFailures: 3,
		StopTimeout:      2 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.QueueSize <= 0 {
		c.QueueSize = d.QueueSize
	}
	if c.DispatchInterval <= 0 {
		c.DispatchInterval = d.DispatchInterval
	}
	if c.DispatchBatch <= 0 {
		c.DispatchBatch = d.DispatchBatch
	}
	if c.ProbeInterval <= 0 {
		c.ProbeInterval = d.ProbeInterval
	}
	if c.MaxProbeFailures <= 0 {
		c.MaxProbeFailures = d.MaxProbeFailures
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = d.StopTimeout
	}
	return c
}

// Service is the bridge lifecycle owner. It is safe for concurrent use.
type Service struct {
	cfg    Config
	queue  *EventQueue
	prober *devices.Prober

	mu         sync.Mutex
	state      ServiceState
	profile    mixer.Profile
	channelMap mixer.ChannelMap
	sess       *session

	dispatchStop chan struct{}
	dispatchDone chan struct{}
}

func NewService(cfg Config) *Service {
	cfg = cfg.withDefaults()
	s := &Service{
		cfg:          cfg,
		queue:        NewEventQueue(cfg.QueueSize),
		prober:       devices.NewProber(),
		state:        ServiceReady,
		channelMap:   mixer.DefaultChannelMap(),
		dispatchStop: make(chan struct{}),
		dispatchDone: make(chan struct{}),
	}
	go s.dispatchLoop()
	return s
}

// State reports the current lifecycle state.
func (s *Service) State() ServiceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ConnectionState reports the health of the active session, or
// StateDisconnected when there is none.
func (s *Service) ConnectionState() ConnectionState {
	s.mu.Lock()
	sess := s.sess
	state := s.state
	s.mu.Unlock()
	if sess == nil {
		if state == ServiceConnecting {
			return StateConnecting
		}
		return StateDisconnected
	}
	return sess.monitor.State()
}

// Dropped reports how many incoming events were discarded on a full queue.
func (s *Service) Dropped() uint64 { return s.queue.Dropped() }

// SetProfile installs a new mixer profile. An active connection is torn down
// first; switching mixers never reuses a live link.
func (s *Service) SetProfile(p mixer.Profile) error {
	s.mu.Lock()
	if s.state == ServiceShutdown {
		s.mu.Unlock()
		return mixer.ErrShuttingDown
	}
	sess := s.detachSessionLocked()
	s.profile = p
	s.state = ServiceReady
	s.mu.Unlock()

	if sess != nil {
		appLog.Info("disconnecting before profile change", "mixer", sess.profile.Label())
		s.teardown(sess)
	}
	return nil
}

// SetChannelMap replaces the MIDI channel assignments. Takes effect on the
// next dispatched event.
func (s *Service) SetChannelMap(m mixer.ChannelMap) {
	s.mu.Lock()
	s.channelMap = m
	s.mu.Unlock()
}

// HandleRaw is the transport receive callback. It must return quickly, so it
// only enqueues; a full queue drops the event.
func (s *Service) HandleRaw(ev mixer.RawEvent) {
	if !s.queue.TryEnqueue(ev) {
		appLog.Warn("event queue full, dropping", "event", ev.String(), "dropped_total", s.queue.Dropped())
	}
}

// Connect establishes a session against the configured profile. Connecting
// while already connected is a no-op.
func (s *Service) Connect(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case ServiceShutdown:
		s.mu.Unlock()
		return mixer.ErrShuttingDown
	case ServiceConnected, ServiceConnecting:
		s.mu.Unlock()
		return nil
	}
	if s.profile == nil {
		s.mu.Unlock()
		return errors.New("no mixer profile configured")
	}
	profile := s.profile
	s.state = ServiceConnecting
	s.mu.Unlock()

	appLog.Info("connecting", "mixer", profile.Label(), "family", profile.Family().String())
	sess, err := s.buildSession(ctx, profile)
	if err != nil {
		s.mu.Lock()
		if s.state == ServiceConnecting {
			s.state = ServiceReady
		}
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	if s.state != ServiceConnecting {
		// Shutdown or profile change raced the connect.
		s.mu.Unlock()
		s.teardown(sess)
		return mixer.ErrShuttingDown
	}
	s.sess = sess
	s.state = ServiceConnected
	s.mu.Unlock()

	sess.monitor.Start()
	appLog.Info("connected", "mixer", profile.Label(), "target", sess.transport.Target())
	return nil
}

// buildSession opens a transport and wires the matching adapter and monitor
// for the profile's family.
func (s *Service) buildSession(ctx context.Context, profile mixer.Profile) (*session, error) {
	var (
		transport devices.Transport
		adapter   mixer.Adapter
		host      string
	)
	switch p := profile.(type) {
	case mixer.QuProfile:
		if p.UseTCP {
			t := devices.NewTCPTransport(p.IP, p.Port, s.prober)
			transport, adapter = t, qu.New(p, t)
			host = p.IP
		} else {
			out, err := devices.FindOutPort(p.OutPortName)
			if err != nil {
				return nil, err
			}
			t := devices.NewMIDIPortTransport(out)
			transport, adapter = t, qu.New(p, t)
		}
	case mixer.DM3Profile:
		t := devices.NewOSCTransport(p.IP, p.Port, s.prober)
		transport, adapter = t, dm3.New(p, t)
		host = p.IP
	default:
		return nil, fmt.Errorf("unsupported mixer family %s", profile.Family())
	}

	if err := transport.Open(ctx); err != nil {
		return nil, err
	}

	sess := newSession(profile, transport, adapter)
	probe := s.probeFor(host, transport)
	sess.monitor = NewMonitor(probe, s.cfg.ProbeInterval, s.cfg.MaxProbeFailures, func(state ConnectionState) {
		s.onHealthChange(sess.id, state)
	})
	return sess, nil
}

// probeFor picks the health check: ICMP ping for networked mixers, port
// openness for the USB MIDI path.
func (s *Service) probeFor(host string, transport devices.Transport) ProbeFunc {
	if host != "" {
		return func() error { return s.prober.Ping(host) }
	}
	return func() error {
		if t, ok := transport.(*devices.MIDIPortTransport); ok && !t.IsOpen() {
			return mixer.ErrNotConnected
		}
		return nil
	}
}

func (s *Service) onHealthChange(id uuid.UUID, state ConnectionState) {
	appLog.Info("connection health changed", "state", state.String())
	if state != StateFailed {
		return
	}
	s.mu.Lock()
	if s.sess == nil || s.sess.id != id {
		s.mu.Unlock()
		return
	}
	sess := s.detachSessionLocked()
	if s.state == ServiceConnected {
		s.state = ServiceReady
	}
	s.mu.Unlock()

	appLog.Error("connection failed, tearing down", "mixer", sess.profile.Label())
	s.teardown(sess)
}

// Disconnect tears down the active session. Disconnecting while disconnected
// is a no-op.
func (s *Service) Disconnect() {
	s.mu.Lock()
	sess := s.detachSessionLocked()
	if s.state == ServiceConnected || s.state == ServiceConnecting {
		s.state = ServiceDisconnecting
	}
	s.mu.Unlock()

	if sess != nil {
		s.teardown(sess)
	}

	s.mu.Lock()
	if s.state == ServiceDisconnecting {
		s.state = ServiceReady
	}
	s.mu.Unlock()
}

// detachSessionLocked removes the active session without touching I/O. The
// caller tears it down after releasing the mutex.
func (s *Service) detachSessionLocked() *session {
	sess := s.sess
	s.sess = nil
	return sess
}

// teardown stops the monitor before closing the transport so a probe never
// observes a half-closed link.
func (s *Service) teardown(sess *session) {
	if sess.monitor != nil {
		sess.monitor.Stop(s.cfg.StopTimeout)
	}
	if err := sess.transport.Close(); err != nil {
		appLog.Warn("transport close failed", "error", err)
	}
	appLog.Info("disconnected", "mixer", sess.profile.Label())
}

// Shutdown is terminal: it disconnects, stops the dispatch loop, and rejects
// all further lifecycle calls.
func (s *Service) Shutdown() {
	s.mu.Lock()
	if s.state == ServiceShutdown {
		s.mu.Unlock()
		return
	}
	sess := s.detachSessionLocked()
	s.state = ServiceShutdown
	s.mu.Unlock()

	if sess != nil {
		s.teardown(sess)
	}

	close(s.dispatchStop)
	select {
	case <-s.dispatchDone:
	case <-time.After(s.cfg.StopTimeout):
		appLog.Warn("dispatch loop did not stop in time")
	}
	if dropped := s.queue.Dropped(); dropped > 0 {
		appLog.Info("shutdown complete", "events_dropped", dropped)
	}
}

// dispatchLoop is the single consumer of the event queue. Each tick drains a
// bounded batch; events that arrive while no session is active are discarded
// so the queue cannot fill with stale gestures.
func (s *Service) dispatchLoop() {
	defer close(s.dispatchDone)
	ticker := time.NewTicker(s.cfg.DispatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.dispatchStop:
			return
		case <-ticker.C:
			s.mu.Lock()
			sess := s.sess
			chMap := s.channelMap
			s.mu.Unlock()

			if sess == nil {
				s.queue.DrainInto(func(ev mixer.RawEvent) {
					appLog.Debug("no active session, discarding", "event", ev.String())
				}, s.cfg.DispatchBatch)
				continue
			}
			s.queue.DrainInto(func(ev mixer.RawEvent) {
				s.dispatchOne(sess, chMap, ev)
			}, s.cfg.DispatchBatch)
		}
	}
}

// dispatchOne routes and applies a single event. Per-event errors are
// contained: validation and routing problems are logged and dropped, only a
// send failure escalates to session teardown.
func (s *Service) dispatchOne(sess *session, chMap mixer.ChannelMap, ev mixer.RawEvent) {
	intent, err := mixer.Route(ev, chMap)
	if err != nil {
		appLog.Debug("unroutable event", "event", ev.String(), "error", err)
		return
	}
	if intent == nil {
		return
	}
	if err := sess.adapter.Apply(intent); err != nil {
		switch {
		case mixer.IsValidation(err):
			appLog.Warn("rejected intent", "intent", intent.String(), "error", err)
		case mixer.IsSend(err):
			appLog.Error("send failed, tearing down session", "intent", intent.String(), "error", err)
			s.failSession(sess.id)
		default:
			appLog.Error("apply failed", "intent", intent.String(), "error", err)
		}
	}
}

// failSession tears down the named session if it is still the active one.
func (s *Service) failSession(id uuid.UUID) {
	s.mu.Lock()
	if s.sess == nil || s.sess.id != id {
		s.mu.Unlock()
		return
	}
	sess := s.detachSessionLocked()
	if s.state == ServiceConnected {
		s.state = ServiceReady
	}
	s.mu.Unlock()
	s.teardown(sess)
}
