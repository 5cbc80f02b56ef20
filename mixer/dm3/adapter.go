// Package dm3 translates mixer intents into the Yamaha DM3 OSC dialect.
// Every request is a single UDP datagram under the /yosc:req/ prefix; the
// console sends no acknowledgement, so success only means the datagram left
// the local socket.
package dm3

import (
	"fmt"
	"log/slog"

	"github.com/hypebeast/go-osc/osc"

	"github.com/FPtrevi/MidiControl/logging"
	"github.com/FPtrevi/MidiControl/mixer"
)

var log *slog.Logger = logging.Get(logging.MIXER_OUT)

const (
	muteAddrFormat  = "/yosc:req/set/MIXER:Current/InCh/Fader/On/%d/1"
	levelAddrFormat = "/yosc:req/set/MIXER:Current/InCh/Fader/Level/%d/1"
	sceneAddr       = "/yosc:req/ssrecall_ex"
	sceneBank       = "scene_a"
	udkAddrFormat   = "/yosc:req/trigger/UserDefinedKey/%d"

	muteChannelMax = 15 // input channels 1..16

	// Fader positions on the wire: -32768 is -60 dB (effectively -inf),
	// 1000 is +10 dB, linear in between.
	levelFloor   = -32768
	levelCeiling = 1000
	dbFloor      = -60.0
	dbCeiling    = 10.0
)

// Sender carries finished OSC messages toward the console.
type Sender interface {
	SendMessage(msg *osc.Message) error
}

// Adapter emits DM3 OSC requests. The dispatch loop is its only caller.
type Adapter struct {
	profile mixer.DM3Profile
	sender  Sender
}

func New(profile mixer.DM3Profile, sender Sender) *Adapter {
	return &Adapter{profile: profile, sender: sender}
}

func (a *Adapter) Family() mixer.Family { return mixer.FamilyDM3 }

func (a *Adapter) Apply(intent mixer.Intent) error {
	switch in := intent.(type) {
	case mixer.Mute:
		return a.setMute(in.Channel, in.On)
	case mixer.RecallScene:
		return a.recallScene(in.Scene)
	case mixer.PressSoftKey:
		return a.triggerUDK(in.Key, in.Pressed)
	case mixer.SetLevel:
		return a.setLevel(in.Channel, in.Value)
	default:
		return fmt.Errorf("unsupported intent %s", intent)
	}
}

// setMute flips the channel's Fader/On node. The node expresses "channel is
// on", so muting writes 0 and unmuting writes 1.
func (a *Adapter) setMute(channel int, on bool) error {
	if channel < 0 || channel > muteChannelMax {
		return &mixer.ValidationError{Field: "mute channel", Value: channel, Min: 0, Max: muteChannelMax}
	}
	var state int32 = 1
	if on {
		state = 0
	}
	msg := osc.NewMessage(fmt.Sprintf(muteAddrFormat, channel+1))
	msg.Append(state)
	if err := a.sender.SendMessage(msg); err != nil {
		return err
	}
	log.Info("sent mute", "channel", channel+1, "on", on)
	return nil
}

// recallScene recalls from the scene_a bank. The console indexes scenes from
// zero while users count from one.
func (a *Adapter) recallScene(scene int) error {
	if scene < 1 || scene > a.profile.SceneMax {
		return &mixer.ValidationError{Field: "scene", Value: scene, Min: 1, Max: a.profile.SceneMax}
	}
	msg := osc.NewMessage(sceneAddr)
	msg.Append(sceneBank)
	msg.Append(int32(scene - 1))
	if err := a.sender.SendMessage(msg); err != nil {
		return err
	}
	log.Info("recalled scene", "scene", scene)
	return nil
}

// triggerUDK fires a User Defined Key. The trigger endpoint has no release
// half, so only the press edge transmits.
func (a *Adapter) triggerUDK(key int, pressed bool) error {
	if !pressed {
		return nil
	}
	if key < 0 || key >= a.profile.UDKMax {
		return &mixer.ValidationError{Field: "user defined key", Value: key, Min: 0, Max: a.profile.UDKMax - 1}
	}
	msg := osc.NewMessage(fmt.Sprintf(udkAddrFormat, key+1))
	if err := a.sender.SendMessage(msg); err != nil {
		return err
	}
	log.Info("triggered user defined key", "key", key+1)
	return nil
}

// setLevel positions a channel fader. The 0..127 controller value spans
// -60 dB to +10 dB before converting to the console's fixed-point scale.
func (a *Adapter) setLevel(channel int, value uint8) error {
	if channel < 0 || channel > muteChannelMax {
		return &mixer.ValidationError{Field: "level channel", Value: channel, Min: 0, Max: muteChannelMax}
	}
	db := dbFloor + float64(value)/127.0*(dbCeiling-dbFloor)
	msg := osc.NewMessage(fmt.Sprintf(levelAddrFormat, channel+1))
	msg.Append(wireLevel(db))
	if err := a.sender.SendMessage(msg); err != nil {
		return err
	}
	log.Info("set level", "channel", channel+1, "db", db)
	return nil
}

// wireLevel converts decibels to the DM3 fader scale.
func wireLevel(db float64) int32 {
	switch {
	case db <= dbFloor:
		return levelFloor
	case db >= dbCeiling:
		return levelCeiling
	default:
		return int32(levelFloor + (db-dbFloor)*(levelCeiling-levelFloor)/(dbCeiling-dbFloor))
	}
}
