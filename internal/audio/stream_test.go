// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"testing"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inputCallback = func([]float32, portaudio.StreamCallbackTimeInfo, portaudio.StreamCallbackFlags)

type fakePAStream struct {
	startErr      error
	starts, stops int
	closes        int
}

func (f *fakePAStream) Start() error { f.starts++; return f.startErr }
func (f *fakePAStream) Stop() error  { f.stops++; return nil }
func (f *fakePAStream) Close() error { f.closes++; return nil }

type fakePortAudio struct {
	initErr   error
	deviceErr error
	openErr   error
	stream    *fakePAStream

	inits, terms int
	params       portaudio.StreamParameters
	callback     inputCallback
}

// install swaps the PortAudio entry points for the duration of the test.
func (f *fakePortAudio) install(t *testing.T) {
	t.Helper()
	origInit, origTerm, origLookup, origOpen := paInitialize, paTerminate, lookupDevice, openInput
	t.Cleanup(func() {
		paInitialize, paTerminate, lookupDevice, openInput = origInit, origTerm, origLookup, origOpen
	})

	if f.stream == nil {
		f.stream = &fakePAStream{}
	}
	paInitialize = func() error { f.inits++; return f.initErr }
	paTerminate = func() error { f.terms++; return nil }
	lookupDevice = func(int) (*portaudio.DeviceInfo, error) {
		if f.deviceErr != nil {
			return nil, f.deviceErr
		}
		return &portaudio.DeviceInfo{
			Name:                    "Fake Mic",
			MaxInputChannels:        1,
			DefaultLowInputLatency:  5 * time.Millisecond,
			DefaultHighInputLatency: 50 * time.Millisecond,
		}, nil
	}
	openInput = func(p portaudio.StreamParameters, callback any) (paStream, error) {
		f.params = p
		if f.openErr != nil {
			return nil, f.openErr
		}
		f.callback = callback.(inputCallback)
		return f.stream, nil
	}
}

func TestStream_StartOpensMonoFloatInput(t *testing.T) {
	pa := &fakePortAudio{}
	pa.install(t)

	var got [][]float32
	s := NewStream(-1, true)
	require.NoError(t, s.Start(48000, 1024, func(frame []float32) { got = append(got, frame) }))

	assert.Equal(t, 1, pa.params.Input.Channels)
	assert.Equal(t, 0, pa.params.Output.Channels)
	assert.Equal(t, 48000.0, pa.params.SampleRate)
	assert.Equal(t, 1024, pa.params.FramesPerBuffer)
	assert.Equal(t, 5*time.Millisecond, pa.params.Input.Latency)
	assert.Equal(t, 1, pa.stream.starts)

	buf := []float32{0.1, 0.2, 0.3}
	pa.callback(buf, portaudio.StreamCallbackTimeInfo{}, 0)
	buf[0] = 9 // PortAudio reuses its buffer

	require.Len(t, got, 1)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, got[0])

	require.NoError(t, s.Stop())
	assert.Equal(t, 1, pa.stream.stops)
	assert.Equal(t, 1, pa.stream.closes)
	assert.Equal(t, 1, pa.terms)
}

func TestStream_StatusFlagsDoNotDropFrames(t *testing.T) {
	pa := &fakePortAudio{}
	pa.install(t)

	frames := 0
	s := NewStream(-1, false)
	require.NoError(t, s.Start(44100, 4, func([]float32) { frames++ }))
	defer s.Stop()

	pa.callback(make([]float32, 4), portaudio.StreamCallbackTimeInfo{}, portaudio.InputOverflow)
	pa.callback(make([]float32, 4), portaudio.StreamCallbackTimeInfo{}, portaudio.InputUnderflow|portaudio.InputOverflow)
	pa.callback(make([]float32, 4), portaudio.StreamCallbackTimeInfo{}, 0)

	assert.Equal(t, 3, frames)
	assert.Equal(t, uint64(2), s.statusWarnings.Load())
	assert.Equal(t, 50*time.Millisecond, pa.params.Input.Latency)
}

func TestStream_FailuresWrapErrUnavailable(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name      string
		pa        *fakePortAudio
		wantTerms int
	}{
		{"initialize", &fakePortAudio{initErr: boom}, 0},
		{"no device", &fakePortAudio{deviceErr: boom}, 1},
		{"open", &fakePortAudio{openErr: boom}, 1},
		{"start", &fakePortAudio{stream: &fakePAStream{startErr: boom}}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.pa.install(t)

			s := NewStream(3, false)
			err := s.Start(44100, 1024, func([]float32) {})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnavailable)
			assert.ErrorIs(t, err, boom)
			assert.Equal(t, tt.wantTerms, tt.pa.terms, "every successful Initialize is paired with Terminate")
			assert.NoError(t, s.Stop(), "Stop after a failed Start is a no-op")
		})
	}
}

func TestStream_StopIsIdempotent(t *testing.T) {
	pa := &fakePortAudio{}
	pa.install(t)

	s := NewStream(-1, false)
	assert.NoError(t, s.Stop(), "Stop before Start")

	require.NoError(t, s.Start(44100, 1024, func([]float32) {}))
	assert.Error(t, s.Start(44100, 1024, func([]float32) {}), "double Start")
	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())

	assert.Equal(t, 1, pa.stream.stops)
	assert.Equal(t, 1, pa.terms)
}

func TestStream_NilHandler(t *testing.T) {
	s := NewStream(-1, false)
	assert.Error(t, s.Start(44100, 1024, nil))
}

func TestDescribeFlags(t *testing.T) {
	assert.Equal(t, "input overflow", describeFlags(portaudio.InputOverflow))
	assert.Equal(t, "input underflow, input overflow", describeFlags(portaudio.InputUnderflow|portaudio.InputOverflow))
}
