package mixer

import "fmt"

// EventType is the subset of MIDI message types the bridge cares about.
type EventType uint8

const (
	NoteOn EventType = iota
	NoteOff
	ControlChange
	ProgramChange
)

func (t EventType) String() string {
	switch t {
	case NoteOn:
		return "note_on"
	case NoteOff:
		return "note_off"
	case ControlChange:
		return "control_change"
	case ProgramChange:
		return "program_change"
	default:
		return "unknown"
	}
}

// RawEvent is a minimally parsed MIDI message. It exists only in transit
// between the transport receive callback and the channel router; nothing
// retains one past a single dispatch cycle.
type RawEvent struct {
	Type    EventType
	Channel uint8 // 0..15
	Data1   uint8 // note number or controller number
	Data2   uint8 // velocity or controller value
}

func (e RawEvent) String() string {
	return fmt.Sprintf("%s ch=%d data1=%d data2=%d", e.Type, e.Channel, e.Data1, e.Data2)
}

// Intent is a normalized, protocol-agnostic mixer command. It is produced by
// the channel router and consumed by exactly one protocol adapter.
type Intent interface {
	fmt.Stringer
	intent()
}

// Mute mutes or unmutes an input channel. Channel is 0-based.
type Mute struct {
	Channel int
	On      bool
}

func (m Mute) intent() {}

func (m Mute) String() string {
	if m.On {
		return fmt.Sprintf("mute channel %d", m.Channel+1)
	}
	return fmt.Sprintf("unmute channel %d", m.Channel+1)
}

// RecallScene recalls a mixer scene. Scene is 1-based.
type RecallScene struct {
	Scene int
}

func (r RecallScene) intent() {}

func (r RecallScene) String() string {
	return fmt.Sprintf("recall scene %d", r.Scene)
}

// PressSoftKey triggers a soft key / user defined key. Key is 0-based.
type PressSoftKey struct {
	Key     int
	Pressed bool
}

func (p PressSoftKey) intent() {}

func (p PressSoftKey) String() string {
	if p.Pressed {
		return fmt.Sprintf("press soft key %d", p.Key+1)
	}
	return fmt.Sprintf("release soft key %d", p.Key+1)
}

// SetLevel sets an input channel fader. Value is the raw controller value
// (0..127); adapters map it onto their own fader scale. Channel is 0-based.
type SetLevel struct {
	Channel int
	Value   uint8
}

func (s SetLevel) intent() {}

func (s SetLevel) String() string {
	return fmt.Sprintf("set channel %d level to %d/127", s.Channel+1, s.Value)
}

// Adapter translates intents into the wire sequence a mixer family expects.
type Adapter interface {
	// Apply emits the wire messages for one intent. A *ValidationError means
	// nothing was transmitted; a *SendError means transmission was aborted
	// part-way and the connection should be considered broken.
	Apply(intent Intent) error
	Family() Family
}
