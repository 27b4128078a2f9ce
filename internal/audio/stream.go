// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	applog "audioscope/internal/log"

	"github.com/gordonklaus/portaudio"
)

// paStream is the subset of *portaudio.Stream the Stream drives.
type paStream interface {
	Start() error
	Stop() error
	Close() error
}

// PortAudio entry points, replaced in tests.
var (
	paInitialize = portaudio.Initialize
	paTerminate  = portaudio.Terminate
	lookupDevice = InputDevice
	openInput    = func(p portaudio.StreamParameters, callback any) (paStream, error) {
		s, err := portaudio.OpenStream(p, callback)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
)

// Stream is a Source backed by a single-channel float32 PortAudio input
// stream. It owns one PortAudio Initialize/Terminate pair per Start/Stop.
type Stream struct {
	deviceID   int
	lowLatency bool
	log        *applog.Entry

	mu      sync.Mutex
	stream  paStream
	onFrame func([]float32)

	statusWarnings atomic.Uint64
}

var _ Source = (*Stream)(nil)

// NewStream creates an unopened stream for deviceID (-1 = system default).
func NewStream(deviceID int, lowLatency bool) *Stream {
	return &Stream{
		deviceID:   deviceID,
		lowLatency: lowLatency,
		log:        applog.With("audio"),
	}
}

// Start opens and starts the input stream. Every failure wraps ErrUnavailable.
func (s *Stream) Start(sampleRate float64, frameSize int, onFrame func([]float32)) error {
	if onFrame == nil {
		return errors.New("audio: nil frame handler")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream != nil {
		return errors.New("audio: stream already started")
	}

	if err := paInitialize(); err != nil {
		return fmt.Errorf("%w: initialize PortAudio: %w", ErrUnavailable, err)
	}

	device, err := lookupDevice(s.deviceID)
	if err != nil {
		_ = paTerminate()
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	latency := device.DefaultHighInputLatency
	if s.lowLatency {
		latency = device.DefaultLowInputLatency
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: 1,
			Latency:  latency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: frameSize,
		SampleRate:      sampleRate,
	}

	s.onFrame = onFrame
	stream, err := openInput(params, s.processInputStream)
	if err != nil {
		_ = paTerminate()
		return fmt.Errorf("%w: open %q at %.0f Hz, %d frames: %w", ErrUnavailable, device.Name, sampleRate, frameSize, err)
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = paTerminate()
		return fmt.Errorf("%w: start %q: %w", ErrUnavailable, device.Name, err)
	}
	s.stream = stream

	s.log.Infof("Input stream started (Device: %s, SampleRate: %.0f Hz, Frames: %d, Latency: %s)",
		device.Name, sampleRate, frameSize, latency.Round(time.Microsecond))
	return nil
}

// Stop stops and closes the stream. Safe to call repeatedly or before Start.
func (s *Stream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil {
		return nil
	}

	var errs []error
	if err := s.stream.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop stream: %w", err))
	}
	if err := s.stream.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close stream: %w", err))
	}
	if err := paTerminate(); err != nil {
		errs = append(errs, fmt.Errorf("terminate PortAudio: %w", err))
	}
	s.stream = nil

	if n := s.statusWarnings.Load(); n > 0 {
		s.log.Infof("Input stream stopped (%d blocks reported status warnings)", n)
	} else {
		s.log.Infof("Input stream stopped")
	}
	return errors.Join(errs...)
}

// processInputStream is the PortAudio callback. It runs on the audio thread,
// so it only copies the block and hands it on; status flags are reported but
// never drop the block.
func (s *Stream) processInputStream(in []float32, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
	if flags != 0 {
		s.statusWarnings.Add(1)
		s.log.Warnf("Stream status: %s", describeFlags(flags))
	}
	// PortAudio reuses its buffer between callbacks.
	s.onFrame(slices.Clone(in))
}

func describeFlags(flags portaudio.StreamCallbackFlags) string {
	var parts []string
	if flags&portaudio.InputUnderflow != 0 {
		parts = append(parts, "input underflow")
	}
	if flags&portaudio.InputOverflow != 0 {
		parts = append(parts, "input overflow")
	}
	if flags&portaudio.OutputUnderflow != 0 {
		parts = append(parts, "output underflow")
	}
	if flags&portaudio.OutputOverflow != 0 {
		parts = append(parts, "output overflow")
	}
	if flags&portaudio.PrimingOutput != 0 {
		parts = append(parts, "priming output")
	}
	if len(parts) == 0 {
		return fmt.Sprintf("flags 0x%x", uint64(flags))
	}
	return strings.Join(parts, ", ")
}
