package bridge

import (
	"sync/atomic"

	"github.com/FPtrevi/MidiControl/mixer"
)

// EventQueue is the bounded buffer between the MIDI receive callback and the
// dispatch loop. The receive side must never block, so when the buffer is
// full the incoming event is dropped and counted rather than queued.
type EventQueue struct {
	ch      chan mixer.RawEvent
	dropped atomic.Uint64
}

func NewEventQueue(capacity int) *EventQueue {
	if capacity <= 0 {
		capacity = 1
	}
	return &EventQueue{ch: make(chan mixer.RawEvent, capacity)}
}

// TryEnqueue offers an event without blocking. It reports whether the event
// was accepted.
func (q *EventQueue) TryEnqueue(ev mixer.RawEvent) bool {
	select {
	case q.ch <- ev:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// DrainInto hands up to max buffered events to fn, oldest first, and returns
// how many were handed over. It never blocks waiting for more input.
func (q *EventQueue) DrainInto(fn func(mixer.RawEvent), max int) int {
	n := 0
	for n < max {
		select {
		case ev := <-q.ch:
			fn(ev)
			n++
		default:
			return n
		}
	}
	return n
}

// Len reports the number of buffered events.
func (q *EventQueue) Len() int { return len(q.ch) }

// Dropped reports how many events were discarded because the queue was full.
func (q *EventQueue) Dropped() uint64 { return q.dropped.Load() }
