package mixer

import "fmt"

// Family identifies a mixer protocol family.
type Family int

const (
	// FamilyQu covers Allen & Heath Qu-5/6/7: NRPN mutes, Bank Select +
	// Program Change scene recall, Note On/Off soft keys, over TCP/IP MIDI
	// or USB MIDI.
	FamilyQu Family = iota
	// FamilyDM3 covers Yamaha DM3: OSC over UDP.
	FamilyDM3
)

func (f Family) String() string {
	switch f {
	case FamilyQu:
		return "qu"
	case FamilyDM3:
		return "dm3"
	default:
		return "unknown"
	}
}

// Profile describes one mixer connection target. A profile is immutable for
// the duration of a connection session; switching mixer type replaces it
// wholesale.
type Profile interface {
	Family() Family
	Label() string
}

// QuProfile is the Qu-family variant.
type QuProfile struct {
	Name        string
	IP          string
	Port        int   // TCP/IP MIDI port, 51325 on Qu-5/6/7
	MIDIChannel uint8 // 1..16 as shown on the mixer
	UseTCP      bool  // false selects the USB MIDI output port path
	OutPortName string

	NRPNParamMSB uint8 // NRPN parameter group for input channel mutes
	SoftKeyBase  uint8 // MIDI note of soft key 1
	SceneMax     int   // highest recallable scene, 128..300 by variant
}

func (p QuProfile) Family() Family { return FamilyQu }

func (p QuProfile) Label() string { return p.Name }

func (p QuProfile) Target() string { return fmt.Sprintf("%s:%d", p.IP, p.Port) }

// WireChannel converts the 1-based user-facing MIDI channel to the 0-based
// wire value.
func (p QuProfile) WireChannel() uint8 {
	if p.MIDIChannel == 0 {
		return 0
	}
	return p.MIDIChannel - 1
}

// DefaultQuProfile returns the factory settings for a Qu-5.
func DefaultQuProfile() QuProfile {
	return QuProfile{
		Name:         "Qu 5/6/7",
		IP:           "192.168.5.10",
		Port:         51325,
		MIDIChannel:  1,
		UseTCP:       true,
		NRPNParamMSB: 0x00,
		SoftKeyBase:  0x30, // soft keys 1..12 sit on notes 0x30..0x3B
		SceneMax:     128,
	}
}

// DM3Profile is the DM3-family variant.
type DM3Profile struct {
	Name     string
	IP       string
	Port     int // OSC/UDP port, 49900 by default
	SceneMax int // scene_a bank holds 100 scenes
	UDKMax   int // user defined keys
}

func (p DM3Profile) Family() Family { return FamilyDM3 }

func (p DM3Profile) Label() string { return p.Name }

func (p DM3Profile) Target() string { return fmt.Sprintf("%s:%d", p.IP, p.Port) }

// DefaultDM3Profile returns the factory settings for a DM3.
func DefaultDM3Profile() DM3Profile {
	return DM3Profile{
		Name:     "DM3",
		IP:       "192.168.4.2",
		Port:     49900,
		SceneMax: 100,
		UDKMax:   16,
	}
}

// ChannelMap assigns each incoming MIDI channel to an intent kind. It is
// configuration-shaped data: the router consults it rather than hardcoding
// channel numbers at call sites.
type ChannelMap struct {
	SoftKey uint8
	Scene   uint8
	Mute    uint8
}

// DefaultChannelMap matches the presentation software's stock mapping:
// channel 0 drives soft keys, 1 recalls scenes, 2 toggles mutes.
func DefaultChannelMap() ChannelMap {
	return ChannelMap{SoftKey: 0, Scene: 1, Mute: 2}
}
