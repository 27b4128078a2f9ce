// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"audioscope/pkg/bitint"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file specified by path. If path is
// empty, it looks for DefaultFileName in the working directory and falls back to
// built-in defaults when there is none. Environment overrides are applied on top
// of the file. Validation is left to the caller because CLI flags still have to
// be merged in.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		if _, err := os.Stat(DefaultFileName); err != nil {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		path = DefaultFileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Validate checks the resolved configuration. Call Resolve first.
func (c *Config) Validate() error {
	if _, ok := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}[strings.ToLower(c.LogLevel)]; !ok {
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}

	a := c.Audio
	switch a.Source {
	case SourceDevice, SourceSynthetic:
	default:
		return fmt.Errorf("audio.source %q must be %q or %q", a.Source, SourceDevice, SourceSynthetic)
	}
	switch a.Fallback {
	case FallbackSynthetic, FallbackFail:
	default:
		return fmt.Errorf("audio.fallback %q must be %q or %q", a.Fallback, FallbackSynthetic, FallbackFail)
	}
	if a.InputDevice < MinDeviceID {
		return fmt.Errorf("audio.input_device %d is invalid (use -1 for the default device)", a.InputDevice)
	}
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %.0f outside %d..%d Hz", a.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if a.FrameSize < MinFrameSize || a.FrameSize > MaxFrameSize {
		return fmt.Errorf("audio.frame_size %d outside %d..%d", a.FrameSize, MinFrameSize, MaxFrameSize)
	}
	if !bitint.IsPowerOfTwo(a.FrameSize) {
		return fmt.Errorf("audio.frame_size %d must be a power of 2 (try %d)", a.FrameSize, bitint.NextPowerOfTwo(a.FrameSize))
	}

	switch strings.ToLower(c.Analysis.Backend) {
	case BackendGonum, BackendGoDSP:
	default:
		return fmt.Errorf("analysis.backend %q must be %q or %q", c.Analysis.Backend, BackendGonum, BackendGoDSP)
	}
	if c.Analysis.Reference <= 0 {
		return fmt.Errorf("analysis.reference must be positive, got %g", c.Analysis.Reference)
	}

	switch c.Display.Mode {
	case ModeSpectrum, ModeScope:
	default:
		return fmt.Errorf("display.mode %q must be %q or %q", c.Display.Mode, ModeSpectrum, ModeScope)
	}
	if c.Display.Interval <= 0 {
		return fmt.Errorf("display.interval must be positive, got %s", c.Display.Interval)
	}

	if t := c.Transport.UDPTarget; t != "" && !strings.Contains(t, ":") {
		return fmt.Errorf("transport.udp_target %q appears invalid (missing port?)", t)
	}
	return nil
}

// applyEnvOverrides applies AUDIOSCOPE_* variables on top of the loaded values.
// Unparseable values are ignored.
func (c *Config) applyEnvOverrides() {
	if val, ok := lookupEnv("LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	if val, ok := lookupEnv("LOG_FILE"); ok {
		c.LogFile = val
	}

	// Capture
	if val, ok := lookupEnv("SOURCE"); ok {
		c.Audio.Source = val
	}
	if val, ok := lookupEnv("FALLBACK"); ok {
		c.Audio.Fallback = val
	}
	if val, ok := lookupEnv("INPUT_DEVICE"); ok {
		if id, err := strconv.Atoi(val); err == nil {
			c.Audio.InputDevice = id
		}
	}
	if val, ok := lookupEnv("SAMPLE_RATE"); ok {
		if sr, err := strconv.ParseFloat(val, 64); err == nil {
			c.Audio.SampleRate = sr
		}
	}
	if val, ok := lookupEnv("FRAME_SIZE"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			c.Audio.FrameSize = n
		}
	}

	// Analysis
	if val, ok := lookupEnv("REFERENCE"); ok {
		if ref, err := strconv.ParseFloat(val, 64); err == nil {
			c.Analysis.Reference = ref
		}
	}
	if val, ok := lookupEnv("WINDOW"); ok {
		c.Analysis.Window = val
	}
	if val, ok := lookupEnv("FFT"); ok {
		c.Analysis.Backend = val
	}

	// Display
	if val, ok := lookupEnv("MODE"); ok {
		c.Display.Mode = val
	}
	if val, ok := lookupEnv("INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			c.Display.Interval = dur
		}
	}
	if val, ok := lookupEnv("HEADLESS"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Display.Headless = b
		}
	}
	if val, ok := lookupEnv("LINEAR"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Display.LogFrequency = !b
		}
	}

	// Transport
	if val, ok := lookupEnv("WEBSOCKET_ADDR"); ok {
		c.Transport.WebSocketAddr = val
	}
	if val, ok := lookupEnv("UDP_TARGET"); ok {
		c.Transport.UDPTarget = val
	}
}

func lookupEnv(key string) (string, bool) {
	return os.LookupEnv(EnvPrefix + key)
}
