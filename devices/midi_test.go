package devices

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	midi "gitlab.com/gomidi/midi/v2"

	"github.com/FPtrevi/MidiControl/devices/devicestesting"
	"github.com/FPtrevi/MidiControl/mixer"
)

func TestMidiInputForwardsParsedEvents(t *testing.T) {
	tests := []struct {
		name string
		msg  midi.Message
		want mixer.RawEvent
	}{
		{
			name: "note on",
			msg:  midi.NoteOn(2, 7, 100),
			want: mixer.RawEvent{Type: mixer.NoteOn, Channel: 2, Data1: 7, Data2: 100},
		},
		{
			name: "note off",
			msg:  midi.NoteOff(2, 7),
			want: mixer.RawEvent{Type: mixer.NoteOff, Channel: 2, Data1: 7, Data2: 0},
		},
		{
			name: "control change",
			msg:  midi.ControlChange(0, 1, 64),
			want: mixer.RawEvent{Type: mixer.ControlChange, Channel: 0, Data1: 1, Data2: 64},
		},
		{
			name: "program change",
			msg:  midi.ProgramChange(1, 5),
			want: mixer.RawEvent{Type: mixer.ProgramChange, Channel: 1, Data1: 5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port := devicestesting.NewMockMIDIPort()
			input := NewMidiInput(port)

			var got []mixer.RawEvent
			input.OnEvent(func(ev mixer.RawEvent) {
				got = append(got, ev)
			})
			require.NoError(t, input.Start())
			defer input.Stop()

			port.SimulateReceive(tt.msg)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0])
		})
	}
}

func TestMidiInputIgnoresUnrelatedMessages(t *testing.T) {
	port := devicestesting.NewMockMIDIPort()
	input := NewMidiInput(port)

	var got []mixer.RawEvent
	input.OnEvent(func(ev mixer.RawEvent) {
		got = append(got, ev)
	})
	require.NoError(t, input.Start())
	defer input.Stop()

	port.SimulateReceive(midi.Pitchbend(0, 1000))
	port.SimulateReceive(midi.AfterTouch(0, 50))
	assert.Empty(t, got)
}

func TestMidiInputStopDetachesListener(t *testing.T) {
	port := devicestesting.NewMockMIDIPort()
	input := NewMidiInput(port)

	tracker := devicestesting.NewCallbackTracker(t)
	input.OnEvent(devicestesting.WrapNotify(tracker, func(mixer.RawEvent) {}))
	require.NoError(t, input.Start())
	input.Stop()

	port.SimulateReceive(midi.NoteOn(0, 1, 100))
	tracker.AssertNotCalled("events after Stop must not reach the callback")
	assert.False(t, port.IsOpen())
}

func TestMIDIPortTransportSendWrapsErrors(t *testing.T) {
	port := devicestesting.NewMockMIDIPort()
	tr := NewMIDIPortTransport(port)
	require.NoError(t, tr.Open(context.Background()))

	require.NoError(t, tr.Send(midi.NoteOn(0, 0x30, 127)))
	assert.Len(t, port.GetSentMessages(), 1)

	port.SetError(true)
	err := tr.Send(midi.NoteOn(0, 0x30, 127))
	assert.True(t, mixer.IsSend(err))
}
