// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"audioscope/cmd"
	"audioscope/internal/analysis"
	"audioscope/internal/audio"
	"audioscope/internal/config"
	applog "audioscope/internal/log"
	"audioscope/internal/transport"
	"audioscope/internal/transport/udp"
	"audioscope/internal/tui"
	"audioscope/pkg/build"

	"golang.org/x/sync/errgroup"
)

// main is the entry point for the viewer.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Parse command line arguments and configuration
//   - Execute one-off commands if requested
//   - Build the processor, the engine and the display sinks
//
// 2. Concurrent Phase (Hot Path):
//   - Capture callback processes frames into the shared slot
//   - Display loop ticks and feeds the terminal plot and transports
//
// 3. Shutdown Phase (Cold Path):
//   - Signal or quit key cancels the context
//   - Display loop and terminal plot return
//   - Input stream is stopped and transports are closed
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	// Initialize build information including version, commit hash, and build time
	if err := build.Initialize(); err != nil {
		applog.Fatal(err)
	}

	options, err := cmd.ParseArgs(os.Args[1:], os.Stdout)
	if err != nil {
		applog.Fatalf("%v", err)
	}

	switch options.Command {
	case cmd.CommandNone:
		return
	case cmd.CommandDevices:
		if err := listDevices(options.Config); err != nil {
			applog.Fatalf("%v", err)
		}
		return
	}

	logFile, err := configureLogging(options.Config)
	if err != nil {
		applog.Fatalf("%v", err)
	}

	err = run(options.Config)
	applog.SetOutput(os.Stderr)
	if logFile != nil {
		logFile.Close()
	}
	if err != nil {
		applog.Fatalf("%v", err)
	}
}

// configureLogging applies the log level and picks the log destination. The
// terminal plot owns the screen, so without a log file its logs are dropped.
func configureLogging(cfg *config.Config) (*os.File, error) {
	if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}

	switch {
	case cfg.LogFile != "":
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		applog.SetOutput(f)
		return f, nil
	case !cfg.Display.Headless:
		applog.SetOutput(io.Discard)
	}
	return nil, nil
}

// listDevices prints every input device PortAudio knows about.
func listDevices(cfg *config.Config) error {
	if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}

	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	return audio.ListDevices(os.Stdout)
}

func run(cfg *config.Config) error {
	processor, err := newProcessor(cfg)
	if err != nil {
		return err
	}

	synth, err := audio.NewSynthetic(cfg.Audio.SampleRate, cfg.Audio.FrameSize, uint64(time.Now().UnixNano()))
	if err != nil {
		return err
	}

	var source audio.Source
	if cfg.Audio.Source == config.SourceDevice {
		source = audio.NewStream(cfg.Audio.InputDevice, cfg.Audio.LowLatency)
	}

	engine, err := audio.NewEngine(cfg, source, processor, synth)
	if err != nil {
		return err
	}

	// The first successful Start makes PortAudio call the capture callback,
	// marking the start of the hot path.
	if err := engine.Start(); err != nil {
		return err
	}
	defer engine.Close()

	remote, err := newTransports(cfg, processor.Blank().Len())
	if err != nil {
		return err
	}
	defer remote.Close()

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sinks := []audio.Sink{transport.OnChange(remote)}
	g, ctx := errgroup.WithContext(ctx)

	if !cfg.Display.Headless {
		program := tui.NewProgram(build.GetBuildFlags().Name, cfg.Display, engine.Latest())
		sinks = append(sinks, program)
		g.Go(func() error {
			// Quitting the plot ends the session.
			defer cancel()
			return program.Run(ctx)
		})
	}

	g.Go(func() error {
		return engine.Run(ctx, cfg.Display.Interval, sinks...)
	})

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	return g.Wait()
}

// newProcessor builds the spectrum estimator or the oscilloscope for the
// configured display mode.
func newProcessor(cfg *config.Config) (analysis.Processor, error) {
	if cfg.Display.Mode == config.ModeScope {
		return analysis.NewOscilloscope(cfg.Audio.SampleRate, cfg.Audio.FrameSize)
	}

	window, err := analysis.ParseWindowFunc(cfg.Analysis.Window)
	if err != nil {
		return nil, err
	}
	backend, err := analysis.ParseBackend(cfg.Analysis.Backend)
	if err != nil {
		return nil, err
	}
	return analysis.NewEstimator(analysis.EstimatorConfig{
		SampleRate: cfg.Audio.SampleRate,
		Size:       cfg.Audio.FrameSize,
		Reference:  cfg.Analysis.Reference,
		Window:     window,
		Backend:    backend,
	})
}

// newTransports opens the configured network sinks, plus the logging sink
// in headless mode.
func newTransports(cfg *config.Config, values int) (transport.Multi, error) {
	var sinks transport.Multi

	if cfg.Display.Headless {
		sinks = append(sinks, transport.NewLoggingTransport(time.Second))
	}

	if addr := cfg.Transport.WebSocketAddr; addr != "" {
		ws, err := transport.NewWebSocketTransport(addr)
		if err != nil {
			sinks.Close()
			return nil, fmt.Errorf("failed to start WebSocket transport: %w", err)
		}
		sinks = append(sinks, ws)
	}

	if target := cfg.Transport.UDPTarget; target != "" {
		sender, err := udp.NewUDPSender(target)
		if err != nil {
			sinks.Close()
			return nil, err
		}
		publisher, err := udp.NewUDPPublisher(sender, values)
		if err != nil {
			sender.Close()
			sinks.Close()
			return nil, err
		}
		sinks = append(sinks, publisher)
	}

	return sinks, nil
}
