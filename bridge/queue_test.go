package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FPtrevi/MidiControl/mixer"
)

func TestQueueNeverBlocksWhenFull(t *testing.T) {
	q := NewEventQueue(2)

	assert.True(t, q.TryEnqueue(mixer.RawEvent{Data1: 1}))
	assert.True(t, q.TryEnqueue(mixer.RawEvent{Data1: 2}))
	assert.False(t, q.TryEnqueue(mixer.RawEvent{Data1: 3}), "full queue must reject, not block")
	assert.False(t, q.TryEnqueue(mixer.RawEvent{Data1: 4}))

	assert.Equal(t, uint64(2), q.Dropped())
	assert.Equal(t, 2, q.Len())
}

func TestDrainPreservesOrder(t *testing.T) {
	q := NewEventQueue(8)
	for i := uint8(1); i <= 5; i++ {
		q.TryEnqueue(mixer.RawEvent{Data1: i})
	}

	var got []uint8
	n := q.DrainInto(func(ev mixer.RawEvent) {
		got = append(got, ev.Data1)
	}, 100)

	assert.Equal(t, 5, n)
	assert.Equal(t, []uint8{1, 2, 3, 4, 5}, got)
	assert.Equal(t, 0, q.Len())
}

func TestDrainHonorsBatchLimit(t *testing.T) {
	q := NewEventQueue(8)
	for i := uint8(0); i < 5; i++ {
		q.TryEnqueue(mixer.RawEvent{Data1: i})
	}

	n := q.DrainInto(func(mixer.RawEvent) {}, 3)
	assert.Equal(t, 3, n)
	assert.Equal(t, 2, q.Len())
}

func TestDrainEmptyReturnsImmediately(t *testing.T) {
	q := NewEventQueue(4)
	n := q.DrainInto(func(mixer.RawEvent) {
		t.Fatal("callback must not run on an empty queue")
	}, 10)
	assert.Equal(t, 0, n)
}
