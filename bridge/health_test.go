package bridge

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stateRecorder collects monitor transitions.
type stateRecorder struct {
	mu     sync.Mutex
	states []ConnectionState
}

func (r *stateRecorder) record(s ConnectionState) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *stateRecorder) snapshot() []ConnectionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ConnectionState, len(r.states))
	copy(out, r.states)
	return out
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	require.True(t, cond(), "condition not met within %v", timeout)
}

func TestMonitorFailsExactlyOnce(t *testing.T) {
	rec := &stateRecorder{}
	probe := func() error { return errors.New("unreachable") }
	m := NewMonitor(probe, 2*time.Millisecond, 3, rec.record)
	m.Start()

	waitFor(t, time.Second, func() bool {
		return m.State() == StateFailed
	})
	// Give the loop room to misbehave before asserting it went quiet.
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, []ConnectionState{StateUnstable, StateFailed}, rec.snapshot())
	m.Stop(time.Second) // must not block after self-termination
}

func TestMonitorRecoversFromUnstable(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)
	rec := &stateRecorder{}
	probe := func() error {
		if failing.Load() {
			return errors.New("unreachable")
		}
		return nil
	}
	// Large budget so the test cannot race into StateFailed.
	m := NewMonitor(probe, 2*time.Millisecond, 1000, rec.record)
	m.Start()
	defer m.Stop(time.Second)

	waitFor(t, time.Second, func() bool {
		return m.State() == StateUnstable
	})
	failing.Store(false)
	waitFor(t, time.Second, func() bool {
		return m.State() == StateConnected
	})

	// A single recovered failure must not count toward the budget later.
	failing.Store(true)
	waitFor(t, time.Second, func() bool {
		return m.State() == StateUnstable
	})
	states := rec.snapshot()
	assert.Equal(t, []ConnectionState{StateUnstable, StateConnected, StateUnstable}, states[:3])
}

func TestMonitorStopIsIdempotent(t *testing.T) {
	m := NewMonitor(func() error { return nil }, time.Millisecond, 3, nil)
	m.Start()
	m.Stop(time.Second)
	m.Stop(time.Second)
	m.Stop(time.Second)
}

func TestMonitorSteadySuccessStaysQuiet(t *testing.T) {
	rec := &stateRecorder{}
	m := NewMonitor(func() error { return nil }, time.Millisecond, 3, rec.record)
	m.Start()
	time.Sleep(20 * time.Millisecond)
	m.Stop(time.Second)

	assert.Empty(t, rec.snapshot(), "healthy probes must not emit transitions")
	assert.Equal(t, StateConnected, m.State())
}
