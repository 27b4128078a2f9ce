// SPDX-License-Identifier: MIT
package cmd

import (
	"io"
	"time"

	"audioscope/internal/config"
	"audioscope/pkg/build"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Commands selected on the command line.
const (
	CommandNone    = ""        // --help or --version was handled by cobra.
	CommandView    = "view"    // Run the live viewer.
	CommandDevices = "devices" // List input devices.
)

// Options is the outcome of parsing the command line.
type Options struct {
	Command string
	Config  *config.Config
}

// flagValues receives the raw flag values. Only flags the user actually set
// are copied into the configuration, so file and environment values survive.
type flagValues struct {
	configPath string
	mode       string
	sampleRate float64
	frameSize  int
	reference  float64
	window     string
	backend    string
	fallback   string
	synthetic  bool
	device     int
	lowLatency bool
	interval   time.Duration
	headless   bool
	linear     bool
	wsAddr     string
	udpAddr    string
	logLevel   string
	logFile    string
	verbose    bool
}

// ParseArgs parses args (without the program name), loads the configuration
// and validates it.
func ParseArgs(args []string, out io.Writer) (*Options, error) {
	buildInfo := build.GetBuildFlags()
	options := &Options{Command: CommandNone}
	var values flagValues

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.VersionString(),
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags(), &values)
			if err != nil {
				return err
			}
			options.Command = CommandView
			options.Config = cfg
			return nil
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// Devices command
	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "List available audio input devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags(), &values)
			if err != nil {
				return err
			}
			options.Command = CommandDevices
			options.Config = cfg
			return nil
		},
	}
	rootCmd.AddCommand(devicesCmd)

	flags := rootCmd.PersistentFlags()

	// Configuration File
	flags.StringVar(&values.configPath, "config", "",
		"Path to a YAML configuration file (default: ./"+config.DefaultFileName+" if present)")

	// Audio Device Configuration
	flags.IntVarP(&values.device, "device", "d", config.MinDeviceID,
		"Input device ID (-1 for the system default). Use the 'devices' command to list them.")
	flags.Float64VarP(&values.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	flags.IntVarP(&values.frameSize, "frame-size", "b", 0,
		"Samples per frame, a power of 2 (default 4096 for spectrum, 1024 for scope)")
	flags.BoolVarP(&values.lowLatency, "low-latency", "l", false,
		"Request the device's low input latency")
	flags.StringVar(&values.fallback, "fallback", config.FallbackSynthetic,
		"When the input device cannot be opened: 'synthetic' or 'fail'")
	flags.BoolVar(&values.synthetic, "synthetic", false,
		"Use the synthetic test signal instead of the microphone")

	// Analysis Configuration
	flags.StringVarP(&values.mode, "mode", "m", config.ModeSpectrum,
		"Display mode: 'spectrum' or 'scope'")
	flags.Float64Var(&values.reference, "reference", config.DefaultReference,
		"Reference level for the dB conversion")
	flags.StringVar(&values.window, "window", config.DefaultWindow,
		"Window function: hann, hamming, blackman, blackmannuttall, bartletthann, nuttall, lanczos")
	flags.StringVar(&values.backend, "fft", config.BackendGonum,
		"FFT implementation: 'gonum' or 'go-dsp'")

	// Display Configuration
	flags.DurationVar(&values.interval, "interval", 0,
		"Redraw interval (default 30ms for spectrum, 16ms for scope)")
	flags.BoolVar(&values.headless, "headless", false,
		"Run without the terminal UI and log the readings instead")
	flags.BoolVar(&values.linear, "linear", false,
		"Start the spectrum with a linear frequency axis")

	// Transport Configuration
	flags.StringVar(&values.wsAddr, "ws-addr", "",
		"Serve snapshots over WebSocket on this address, e.g. :8080")
	flags.StringVar(&values.udpAddr, "udp-addr", "",
		"Send snapshots as UDP packets to this host:port")

	// Debug Configuration
	flags.StringVar(&values.logLevel, "log-level", config.DefaultLogLevel,
		"Log level: debug, info, warn, error")
	flags.StringVar(&values.logFile, "log-file", "",
		"Write logs to this file instead of stderr")
	flags.BoolVarP(&values.verbose, "verbose", "v", false,
		"Show verbose output (same as --log-level debug)")

	// Execute the CLI
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return options, nil
}

// loadConfig layers the configuration: defaults, file, environment, flags.
func loadConfig(flags *pflag.FlagSet, values *flagValues) (*config.Config, error) {
	cfg, err := config.LoadConfig(values.configPath)
	if err != nil {
		return nil, err
	}

	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("device", func() { cfg.Audio.InputDevice = values.device })
	set("sample-rate", func() { cfg.Audio.SampleRate = values.sampleRate })
	set("frame-size", func() { cfg.Audio.FrameSize = values.frameSize })
	set("low-latency", func() { cfg.Audio.LowLatency = values.lowLatency })
	set("fallback", func() { cfg.Audio.Fallback = values.fallback })
	set("synthetic", func() {
		if values.synthetic {
			cfg.Audio.Source = config.SourceSynthetic
		} else {
			cfg.Audio.Source = config.SourceDevice
		}
	})
	set("mode", func() { cfg.Display.Mode = values.mode })
	set("reference", func() { cfg.Analysis.Reference = values.reference })
	set("window", func() { cfg.Analysis.Window = values.window })
	set("fft", func() { cfg.Analysis.Backend = values.backend })
	set("interval", func() { cfg.Display.Interval = values.interval })
	set("headless", func() { cfg.Display.Headless = values.headless })
	set("linear", func() { cfg.Display.LogFrequency = !values.linear })
	set("ws-addr", func() { cfg.Transport.WebSocketAddr = values.wsAddr })
	set("udp-addr", func() { cfg.Transport.UDPTarget = values.udpAddr })
	set("log-level", func() { cfg.LogLevel = values.logLevel })
	set("log-file", func() { cfg.LogFile = values.logFile })
	if values.verbose {
		cfg.LogLevel = "debug"
	}

	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
