package mixer

import "fmt"

// faderController is the controller number the presentation software uses
// for channel 1 fader level (CC#1, modulation).
const faderController = 1

// Route classifies a raw MIDI event into an intent using the configured
// channel map. It is a pure function.
//
// Returns (nil, nil) for events that are valid but carry no intent (note
// releases on the scene channel, unrelated controllers, and so on). A note
// event on a channel absent from the map returns ErrUnmappedChannel.
func Route(ev RawEvent, m ChannelMap) (Intent, error) {
	switch ev.Type {
	case NoteOn, NoteOff:
		// handled below
	case ControlChange:
		if ev.Channel == m.Mute && ev.Data1 == faderController {
			return SetLevel{Channel: 0, Value: ev.Data2}, nil
		}
		return nil, nil
	default:
		return nil, nil
	}

	switch ev.Channel {
	case m.SoftKey:
		// Only a true press produces an intent; the adapter emits the paired
		// release itself to simulate a momentary key.
		if ev.Type == NoteOn && ev.Data2 > 0 {
			return PressSoftKey{Key: int(ev.Data1), Pressed: true}, nil
		}
		return nil, nil
	case m.Scene:
		if ev.Type == NoteOn && ev.Data2 > 0 {
			return RecallScene{Scene: int(ev.Data1) + 1}, nil
		}
		return nil, nil
	case m.Mute:
		if ev.Type == NoteOff {
			// Release velocity carries no meaning for mute-off.
			return Mute{Channel: int(ev.Data1), On: false}, nil
		}
		// Note On with velocity 0 is a release by MIDI convention.
		return Mute{Channel: int(ev.Data1), On: ev.Data2 > 0}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnmappedChannel, ev.Channel)
}
