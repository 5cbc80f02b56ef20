// Package config loads the bridge configuration from a YAML file. Every
// field is optional; the zero config produces the stock Qu setup so the
// binary runs without any file at all.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/FPtrevi/MidiControl/bridge"
	"github.com/FPtrevi/MidiControl/mixer"
)

type Config struct {
	// Mixer selects the active protocol family: "qu" or "dm3".
	Mixer string `yaml:"mixer"`

	Qu  QuConfig  `yaml:"qu"`
	DM3 DM3Config `yaml:"dm3"`

	// Channels maps incoming MIDI channels (0-based) to intent kinds.
	Channels ChannelsConfig `yaml:"channels"`

	Bridge BridgeConfig `yaml:"bridge"`

	// VirtualPortName names the virtual MIDI ports offered to the
	// presentation software.
	VirtualPortName string `yaml:"virtual_port_name"`
}

type QuConfig struct {
	IP          string `yaml:"ip"`
	Port        int    `yaml:"port"`
	MIDIChannel uint8  `yaml:"midi_channel"`
	UseTCP      *bool  `yaml:"use_tcp"`
	OutPortName string `yaml:"out_port_name"`
	SceneMax    int    `yaml:"scene_max"`
}

type DM3Config struct {
	IP       string `yaml:"ip"`
	Port     int    `yaml:"port"`
	SceneMax int    `yaml:"scene_max"`
	UDKMax   int    `yaml:"udk_max"`
}

type ChannelsConfig struct {
	SoftKey *uint8 `yaml:"soft_key"`
	Scene   *uint8 `yaml:"scene"`
	Mute    *uint8 `yaml:"mute"`
}

type BridgeConfig struct {
	QueueSize        int      `yaml:"queue_size"`
	DispatchInterval Duration `yaml:"dispatch_interval"`
	DispatchBatch    int      `yaml:"dispatch_batch"`
	ProbeInterval    Duration `yaml:"probe_interval"`
	MaxProbeFailures int      `yaml:"max_probe_failures"`
	StopTimeout      Duration `yaml:"stop_timeout"`
}

// Duration decodes Go duration strings ("25ms", "3s") from YAML scalars.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"3s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{Mixer: "qu", VirtualPortName: "MidiControl"}
}

// Load reads and validates a config file. A missing file is not an error;
// the defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Mixer {
	case "", "qu", "dm3":
	default:
		return fmt.Errorf("unknown mixer %q: want qu or dm3", c.Mixer)
	}
	if c.Qu.MIDIChannel > 16 {
		return fmt.Errorf("qu midi_channel %d out of range 1..16", c.Qu.MIDIChannel)
	}
	for name, ch := range map[string]*uint8{
		"soft_key": c.Channels.SoftKey,
		"scene":    c.Channels.Scene,
		"mute":     c.Channels.Mute,
	} {
		if ch != nil && *ch > 15 {
			return fmt.Errorf("channels.%s %d out of range 0..15", name, *ch)
		}
	}
	return nil
}

// Profile builds the mixer profile for the selected family, with file
// values overlaid on the factory defaults.
func (c Config) Profile() mixer.Profile {
	if c.Mixer == "dm3" {
		p := mixer.DefaultDM3Profile()
		if c.DM3.IP != "" {
			p.IP = c.DM3.IP
		}
		if c.DM3.Port != 0 {
			p.Port = c.DM3.Port
		}
		if c.DM3.SceneMax != 0 {
			p.SceneMax = c.DM3.SceneMax
		}
		if c.DM3.UDKMax != 0 {
			p.UDKMax = c.DM3.UDKMax
		}
		return p
	}
	p := mixer.DefaultQuProfile()
	if c.Qu.IP != "" {
		p.IP = c.Qu.IP
	}
	if c.Qu.Port != 0 {
		p.Port = c.Qu.Port
	}
	if c.Qu.MIDIChannel != 0 {
		p.MIDIChannel = c.Qu.MIDIChannel
	}
	if c.Qu.UseTCP != nil {
		p.UseTCP = *c.Qu.UseTCP
	}
	if c.Qu.OutPortName != "" {
		p.OutPortName = c.Qu.OutPortName
	}
	if c.Qu.SceneMax != 0 {
		p.SceneMax = c.Qu.SceneMax
	}
	return p
}

// ChannelMap resolves the channel assignments.
func (c Config) ChannelMap() mixer.ChannelMap {
	m := mixer.DefaultChannelMap()
	if c.Channels.SoftKey != nil {
		m.SoftKey = *c.Channels.SoftKey
	}
	if c.Channels.Scene != nil {
		m.Scene = *c.Channels.Scene
	}
	if c.Channels.Mute != nil {
		m.Mute = *c.Channels.Mute
	}
	return m
}

// ServiceConfig resolves the bridge tuning knobs; zero values fall through
// to the bridge defaults.
func (c Config) ServiceConfig() bridge.Config {
	return bridge.Config{
		QueueSize:        c.Bridge.QueueSize,
		DispatchInterval: time.Duration(c.Bridge.DispatchInterval),
		DispatchBatch:    c.Bridge.DispatchBatch,
		ProbeInterval:    time.Duration(c.Bridge.ProbeInterval),
		MaxProbeFailures: c.Bridge.MaxProbeFailures,
		StopTimeout:      time.Duration(c.Bridge.StopTimeout),
	}
}
