// Package qu translates mixer intents into the MIDI dialect of the Allen &
// Heath Qu-5/6/7 consoles: NRPN control-change runs for input channel mutes,
// Bank Select plus Program Change for scene recall, and momentary Note
// On/Off pairs for soft keys. The same byte sequences travel over TCP/IP
// MIDI and over the USB MIDI port, so the adapter only depends on a byte
// sender.
package qu

import (
	"fmt"
	"log/slog"
	"time"

	midi "gitlab.com/gomidi/midi/v2"

	"github.com/FPtrevi/MidiControl/logging"
	"github.com/FPtrevi/MidiControl/mixer"
)

var log *slog.Logger = logging.Get(logging.MIXER_OUT)

const (
	nrpnParamMSB   = 99 // CC: NRPN parameter number MSB
	nrpnParamLSB   = 98 // CC: NRPN parameter number LSB
	nrpnDataMSB    = 6  // CC: data entry MSB
	nrpnDataLSB    = 38 // CC: data entry LSB
	bankSelectMSB  = 0  // CC: bank select MSB
	bankSelectLSB  = 32 // CC: bank select LSB
	scenesPerBank  = 128
	softKeyCount   = 12
	muteChannelMax = 15 // input channels 1..16
)

// Sender carries finished MIDI bytes toward the console.
type Sender interface {
	Send(b []byte) error
}

// Adapter emits Qu wire sequences. It is not safe for concurrent Apply
// calls; the dispatch loop is its only caller.
type Adapter struct {
	profile mixer.QuProfile
	sender  Sender

	// pressDelay separates a soft key's Note On from its Note Off so the
	// console registers a momentary press.
	pressDelay time.Duration
}

func New(profile mixer.QuProfile, sender Sender) *Adapter {
	return &Adapter{
		profile:    profile,
		sender:     sender,
		pressDelay: 15 * time.Millisecond,
	}
}

func (a *Adapter) Family() mixer.Family { return mixer.FamilyQu }

func (a *Adapter) Apply(intent mixer.Intent) error {
	switch in := intent.(type) {
	case mixer.Mute:
		return a.setMute(in.Channel, in.On)
	case mixer.RecallScene:
		return a.recallScene(in.Scene)
	case mixer.PressSoftKey:
		return a.pressSoftKey(in.Key, in.Pressed)
	case mixer.SetLevel:
		// Fader moves ride on a different NRPN group that varies by
		// firmware; not wired up yet.
		log.Debug("fader levels not supported on this console", "intent", in.String())
		return nil
	default:
		return fmt.Errorf("unsupported intent %s", intent)
	}
}

// setMute emits the four-CC NRPN run for an input channel mute. The channel
// index doubles as the NRPN parameter LSB.
func (a *Adapter) setMute(channel int, on bool) error {
	if channel < 0 || channel > muteChannelMax {
		return &mixer.ValidationError{Field: "mute channel", Value: channel, Min: 0, Max: muteChannelMax}
	}
	var state uint8
	if on {
		state = 1
	}
	ch := a.profile.WireChannel()
	run := []midi.Message{
		midi.ControlChange(ch, nrpnParamMSB, a.profile.NRPNParamMSB),
		midi.ControlChange(ch, nrpnParamLSB, uint8(channel)),
		midi.ControlChange(ch, nrpnDataMSB, 0),
		midi.ControlChange(ch, nrpnDataLSB, state),
	}
	for _, msg := range run {
		if err := a.sender.Send(msg); err != nil {
			return err
		}
	}
	log.Info("sent mute", "channel", channel+1, "on", on)
	return nil
}

// recallScene emits Bank Select MSB/LSB then Program Change. Scenes above
// 128 spill into higher banks, 128 per bank.
func (a *Adapter) recallScene(scene int) error {
	if scene < 1 || scene > a.profile.SceneMax {
		return &mixer.ValidationError{Field: "scene", Value: scene, Min: 1, Max: a.profile.SceneMax}
	}
	idx := scene - 1
	ch := a.profile.WireChannel()
	run := []midi.Message{
		midi.ControlChange(ch, bankSelectMSB, 0),
		midi.ControlChange(ch, bankSelectLSB, uint8(idx/scenesPerBank)),
		midi.ProgramChange(ch, uint8(idx%scenesPerBank)),
	}
	for _, msg := range run {
		if err := a.sender.Send(msg); err != nil {
			return err
		}
	}
	log.Info("recalled scene", "scene", scene)
	return nil
}

// pressSoftKey emits a momentary Note On / Note Off pair. Only the press
// edge triggers; release events from the controller are ignored because the
// pair already completed the gesture.
func (a *Adapter) pressSoftKey(key int, pressed bool) error {
	if !pressed {
		return nil
	}
	if key < 0 || key >= softKeyCount {
		return &mixer.ValidationError{Field: "soft key", Value: key, Min: 0, Max: softKeyCount - 1}
	}
	ch := a.profile.WireChannel()
	note := a.profile.SoftKeyBase + uint8(key)
	if err := a.sender.Send(midi.NoteOn(ch, note, 127)); err != nil {
		return err
	}
	time.Sleep(a.pressDelay)
	if err := a.sender.Send(midi.NoteOff(ch, note)); err != nil {
		return err
	}
	log.Info("pressed soft key", "key", key+1)
	return nil
}
