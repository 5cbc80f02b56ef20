package devices

import (
	"context"
	"fmt"
	"log/slog"

	midi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/FPtrevi/MidiControl/logging"
	"github.com/FPtrevi/MidiControl/mixer"
)

var midiInLog, midiOutLog *slog.Logger

func init() {
	midiInLog = logging.Get(logging.MIDI_IN)
	midiOutLog = logging.Get(logging.MIDI_OUT)
}

// MidiInput wraps a MIDI input port (virtual or physical) and forwards
// minimally parsed events to a registered callback.
//
// The callback runs on the driver's receive goroutine, which may be
// realtime-priority. It must hand the event off without blocking; anything
// slower than a queue push stalls the OS-level MIDI driver.
type MidiInput struct {
	port    drivers.In
	onEvent func(mixer.RawEvent)
	stop    func()
}

func NewMidiInput(port drivers.In) *MidiInput {
	return &MidiInput{port: port}
}

// OnEvent registers the event callback. Must be called before Start.
func (d *MidiInput) OnEvent(fn func(mixer.RawEvent)) {
	d.onEvent = fn
}

func (d *MidiInput) String() string { return d.port.String() }

// Start opens the port and begins listening.
func (d *MidiInput) Start() error {
	if err := d.port.Open(); err != nil {
		return fmt.Errorf("open MIDI input %q: %w", d.port.String(), err)
	}
	stop, err := midi.ListenTo(d.port, d.handle)
	if err != nil {
		d.port.Close()
		return fmt.Errorf("listen on MIDI input %q: %w", d.port.String(), err)
	}
	d.stop = stop
	midiInLog.Info("listening for MIDI input", "port", d.port.String())
	return nil
}

func (d *MidiInput) handle(msg midi.Message, timestampms int32) {
	if d.onEvent == nil {
		return
	}
	var ev mixer.RawEvent
	var channel, d1, d2 uint8
	switch msg.Type() {
	case midi.NoteOnMsg:
		if ok := msg.GetNoteOn(&channel, &d1, &d2); !ok {
			midiInLog.Error("failed to parse Note On message")
			return
		}
		ev = mixer.RawEvent{Type: mixer.NoteOn, Channel: channel, Data1: d1, Data2: d2}
	case midi.NoteOffMsg:
		if ok := msg.GetNoteOff(&channel, &d1, &d2); !ok {
			midiInLog.Error("failed to parse Note Off message")
			return
		}
		ev = mixer.RawEvent{Type: mixer.NoteOff, Channel: channel, Data1: d1, Data2: d2}
	case midi.ControlChangeMsg:
		if ok := msg.GetControlChange(&channel, &d1, &d2); !ok {
			midiInLog.Error("failed to parse Control Change message")
			return
		}
		ev = mixer.RawEvent{Type: mixer.ControlChange, Channel: channel, Data1: d1, Data2: d2}
	case midi.ProgramChangeMsg:
		if ok := msg.GetProgramChange(&channel, &d1); !ok {
			midiInLog.Error("failed to parse Program Change message")
			return
		}
		ev = mixer.RawEvent{Type: mixer.ProgramChange, Channel: channel, Data1: d1}
	default:
		return
	}
	midiInLog.Debug("received MIDI message", "event", ev.String(), "timestamp", timestampms)
	d.onEvent(ev)
}

// Stop stops listening and closes the port.
func (d *MidiInput) Stop() {
	if d.stop != nil {
		d.stop()
		d.stop = nil
	}
	d.port.Close()
	midiInLog.Info("MIDI input stopped", "port", d.port.String())
}

// MIDIPortTransport carries raw MIDI bytes to a mixer's USB MIDI port.
type MIDIPortTransport struct {
	out drivers.Out
}

func NewMIDIPortTransport(out drivers.Out) *MIDIPortTransport {
	return &MIDIPortTransport{out: out}
}

func (t *MIDIPortTransport) Target() string { return t.out.String() }

func (t *MIDIPortTransport) Open(_ context.Context) error {
	if err := t.out.Open(); err != nil {
		return &mixer.ConnectError{Stage: "port", Target: t.out.String(), Err: err}
	}
	midiOutLog.Info("MIDI output port opened", "port", t.out.String())
	return nil
}

func (t *MIDIPortTransport) Send(b []byte) error {
	if err := t.out.Send(b); err != nil {
		return &mixer.SendError{Op: "midi", Err: err}
	}
	midiOutLog.Debug("sent MIDI message", "bytes", fmt.Sprintf("% X", b))
	return nil
}

func (t *MIDIPortTransport) Close() error {
	return t.out.Close()
}

// IsOpen reports whether the underlying port is still open. The health
// monitor uses this as its probe on the USB path, where there is nothing to
// ping.
func (t *MIDIPortTransport) IsOpen() bool {
	return t.out.IsOpen()
}

// OpenVirtualPorts creates the virtual MIDI endpoints the presentation
// software connects to. The input side receives triggers; the output side
// exists so the application shows up symmetrically in port lists.
func OpenVirtualPorts(name string) (drivers.In, drivers.Out, error) {
	drv, ok := drivers.Get().(*rtmididrv.Driver)
	if !ok {
		return nil, nil, fmt.Errorf("rtmidi driver not available")
	}
	in, err := drv.OpenVirtualIn(name + " In")
	if err != nil {
		return nil, nil, fmt.Errorf("create virtual MIDI input %q: %w", name, err)
	}
	out, err := drv.OpenVirtualOut(name + " Out")
	if err != nil {
		in.Close()
		return nil, nil, fmt.Errorf("create virtual MIDI output %q: %w", name, err)
	}
	return in, out, nil
}

// InPortNames lists the available MIDI input ports.
func InPortNames() []string {
	ports := midi.GetInPorts()
	names := make([]string, 0, len(ports))
	for _, p := range ports {
		names = append(names, p.String())
	}
	return names
}

// OutPortNames lists the available MIDI output ports.
func OutPortNames() []string {
	ports := midi.GetOutPorts()
	names := make([]string, 0, len(ports))
	for _, p := range ports {
		names = append(names, p.String())
	}
	return names
}

// FindOutPort finds an output port whose name contains name.
func FindOutPort(name string) (drivers.Out, error) {
	return midi.FindOutPort(name)
}
