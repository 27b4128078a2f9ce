// SPDX-License-Identifier: MIT
package config

import "time"

// Display modes.
const (
	ModeSpectrum = "spectrum" // Frequency-domain view (dB over Hz).
	ModeScope    = "scope"    // Time-domain view (amplitude over seconds).
)

// Fallback policies applied when the input device cannot be opened.
const (
	FallbackSynthetic = "synthetic" // Switch to the synthetic generator.
	FallbackFail      = "fail"      // Report the error once and exit.
)

// Audio sources.
const (
	SourceDevice    = "device"
	SourceSynthetic = "synthetic"
)

// FFT backends.
const (
	BackendGonum = "gonum"
	BackendGoDSP = "go-dsp"
)

// Core configuration constants that define the boundaries and defaults
// for the capture and analysis pipeline.
const (
	DefaultSampleRate     = 44100 // CD-quality audio
	DefaultSpectrumFrames = 4096  // Block size for the frequency-domain view
	DefaultScopeFrames    = 1024  // Block size for the time-domain view
	DefaultReference      = 1.0   // Reference level for dB conversion
	DefaultWindow         = "hann"
	DefaultLogLevel       = "info"

	DefaultSpectrumInterval = 30 * time.Millisecond
	DefaultScopeInterval    = 16 * time.Millisecond

	// Hardware and processing limits
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MinFrameSize    = 4      // Smallest frame whose symmetric windows are nonzero
	MaxFrameSize    = 65536  // Largest supported frame (power of 2)
	DefaultFileName = "audioscope.yaml"
	EnvPrefix       = "AUDIOSCOPE_"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	LogLevel  string          `yaml:"log_level"`          // Logging level (e.g., "debug", "info", "warn", "error").
	LogFile   string          `yaml:"log_file,omitempty"` // Optional log file; used when the terminal UI owns the screen.
	Audio     AudioConfig     `yaml:"audio"`              // Capture settings.
	Analysis  AnalysisConfig  `yaml:"analysis"`           // Spectral estimator settings.
	Display   DisplayConfig   `yaml:"display"`            // Display loop settings.
	Transport TransportConfig `yaml:"transport"`          // Remote display sinks.
}

// AudioConfig holds settings related to audio input.
type AudioConfig struct {
	Source      string  `yaml:"source"`       // "device" or "synthetic".
	Fallback    string  `yaml:"fallback"`     // Policy when the device cannot be opened: "synthetic" or "fail".
	InputDevice int     `yaml:"input_device"` // PortAudio device index for audio input (-1 for default).
	SampleRate  float64 `yaml:"sample_rate"`  // Sample rate in Hz (e.g., 44100, 48000).
	FrameSize   int     `yaml:"frame_size"`   // Samples per frame; 0 picks the mode default.
	LowLatency  bool    `yaml:"low_latency"`  // Request low latency settings from PortAudio device.
}

// AnalysisConfig holds settings for the spectral estimator.
type AnalysisConfig struct {
	Window    string  `yaml:"window"`    // Window function name (e.g., "hann", "hamming").
	Backend   string  `yaml:"backend"`   // FFT implementation: "gonum" or "go-dsp".
	Reference float64 `yaml:"reference"` // Reference level; divides the epsilon floor.
}

// DisplayConfig holds settings for the display loop and terminal plot.
type DisplayConfig struct {
	Mode         string        `yaml:"mode"`          // "spectrum" or "scope".
	Interval     time.Duration `yaml:"interval"`      // Redraw interval; 0 picks the mode default.
	LogFrequency bool          `yaml:"log_frequency"` // Logarithmic frequency axis for the spectrum view.
	Headless     bool          `yaml:"headless"`      // No terminal UI; results are only logged/transported.
}

// TransportConfig holds settings related to sending display data over the network.
type TransportConfig struct {
	WebSocketAddr string `yaml:"websocket_addr"` // Listen address for the WebSocket sink, empty disables it.
	UDPTarget     string `yaml:"udp_target"`     // Target for UDP packets, empty disables it.
}

// NewConfig creates a new Config instance with default values.
// Frame size and interval are left at zero so Resolve can pick the
// mode-specific defaults after files, env and flags have been applied.
func NewConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			Source:      SourceDevice,
			Fallback:    FallbackSynthetic,
			InputDevice: MinDeviceID,
			SampleRate:  DefaultSampleRate,
		},
		Analysis: AnalysisConfig{
			Window:    DefaultWindow,
			Backend:   BackendGonum,
			Reference: DefaultReference,
		},
		Display: DisplayConfig{
			Mode:         ModeSpectrum,
			LogFrequency: true,
		},
	}
}

// Resolve fills mode-dependent defaults (frame size and redraw interval).
func (c *Config) Resolve() {
	if c.Audio.FrameSize == 0 {
		if c.Display.Mode == ModeScope {
			c.Audio.FrameSize = DefaultScopeFrames
		} else {
			c.Audio.FrameSize = DefaultSpectrumFrames
		}
	}
	if c.Display.Interval == 0 {
		if c.Display.Mode == ModeScope {
			c.Display.Interval = DefaultScopeInterval
		} else {
			c.Display.Interval = DefaultSpectrumInterval
		}
	}
}
