// midicontrol bridges MIDI triggers from presentation software to a live
// mixing console. It exposes a virtual MIDI input, routes incoming events by
// channel, and drives either an Allen & Heath Qu over TCP/IP MIDI or a
// Yamaha DM3 over OSC.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FPtrevi/MidiControl/bridge"
	"github.com/FPtrevi/MidiControl/config"
	"github.com/FPtrevi/MidiControl/devices"
	"github.com/FPtrevi/MidiControl/logging"
)

var log = logging.Get(logging.APP)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	listPorts := flag.Bool("list-ports", false, "list available MIDI ports and exit")
	flag.Parse()

	if *listPorts {
		fmt.Println("MIDI inputs:")
		for _, name := range devices.InPortNames() {
			fmt.Printf("  %s\n", name)
		}
		fmt.Println("MIDI outputs:")
		for _, name := range devices.OutPortNames() {
			fmt.Printf("  %s\n", name)
		}
		return
	}

	if err := run(*configPath); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	in, out, err := devices.OpenVirtualPorts(cfg.VirtualPortName)
	if err != nil {
		return fmt.Errorf("open virtual MIDI ports: %w", err)
	}
	defer in.Close()
	defer out.Close()

	svc := bridge.NewService(cfg.ServiceConfig())
	if err := svc.SetProfile(cfg.Profile()); err != nil {
		return err
	}
	svc.SetChannelMap(cfg.ChannelMap())

	input := devices.NewMidiInput(in)
	input.OnEvent(svc.HandleRaw)
	if err := input.Start(); err != nil {
		return fmt.Errorf("start MIDI listener: %w", err)
	}
	defer input.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := svc.Connect(ctx); err != nil {
		// The mixer may simply be powered off; keep running so triggers
		// can connect later via a restart instead of crashing the show.
		log.Warn("initial connect failed", "error", err)
	}
	cancel()

	log.Info("bridge running", "mixer", cfg.Profile().Label(), "port", cfg.VirtualPortName)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	svc.Shutdown()
	return nil
}
