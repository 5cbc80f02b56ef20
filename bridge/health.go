package bridge

import (
	"log/slog"
	"sync"
	"time"

	"github.com/FPtrevi/MidiControl/logging"
)

var healthLog *slog.Logger = logging.Get(logging.HEALTH)

// ProbeFunc checks one connection. A nil error means the mixer answered.
type ProbeFunc func() error

// Monitor periodically probes a connection and reports state transitions
// through a callback. After the failure budget is exhausted it reports
// StateFailed exactly once and stops probing on its own; the owning session
// is torn down from the callback, so the monitor must not expect a Stop call
// in that path.
type Monitor struct {
	probe       ProbeFunc
	interval    time.Duration
	maxFailures int
	onState     func(ConnectionState)

	mu       sync.Mutex
	state    ConnectionState
	failures int
	running  bool

	stop chan struct{}
	done chan struct{}
}

func NewMonitor(probe ProbeFunc, interval time.Duration, maxFailures int, onState func(ConnectionState)) *Monitor {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	if maxFailures <= 0 {
		maxFailures = 3
	}
	return &Monitor{
		probe:       probe,
		interval:    interval,
		maxFailures: maxFailures,
		onState:     onState,
		state:       StateConnected,
	}
}

// State reports the last observed connection state.
func (m *Monitor) State() ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start launches the probe loop. Starting an already running monitor is a
// no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	m.mu.Unlock()

	go m.loop()
}

func (m *Monitor) loop() {
	defer close(m.done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			if terminal := m.runProbe(); terminal {
				return
			}
		}
	}
}

// runProbe executes one probe and applies the transition rules. It reports
// whether the monitor reached a terminal state.
func (m *Monitor) runProbe() bool {
	err := m.probe()

	m.mu.Lock()
	var transition ConnectionState = -1
	terminal := false
	if err != nil {
		m.failures++
		healthLog.Warn("probe failed", "consecutive", m.failures, "error", err)
		switch {
		case m.failures >= m.maxFailures:
			m.state = StateFailed
			transition = StateFailed
			terminal = true
			m.running = false
		case m.state == StateConnected:
			m.state = StateUnstable
			transition = StateUnstable
		}
	} else {
		if m.failures > 0 {
			healthLog.Info("probe recovered", "after_failures", m.failures)
		}
		m.failures = 0
		if m.state == StateUnstable {
			m.state = StateConnected
			transition = StateConnected
		}
	}
	m.mu.Unlock()

	if transition >= 0 && m.onState != nil {
		m.onState(transition)
	}
	return terminal
}

// Stop halts probing and waits up to timeout for the loop to exit. A loop
// stuck in a slow probe is abandoned with a log line rather than blocking
// shutdown forever.
func (m *Monitor) Stop(timeout time.Duration) {
	m.mu.Lock()
	if !m.running {
		// Never started, or already self-terminated after StateFailed.
		// Waiting for the loop here would deadlock when Stop is reached
		// from inside the StateFailed callback.
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stop)
	done := m.done
	m.mu.Unlock()

	select {
	case <-done:
	case <-time.After(timeout):
		healthLog.Warn("monitor did not stop in time, abandoning", "timeout", timeout)
	}
}
