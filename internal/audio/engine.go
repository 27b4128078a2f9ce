// SPDX-License-Identifier: MIT
/*
Package audio captures microphone frames and turns them into display data:
- Mono float32 capture using PortAudio
- Synthetic two-tone fallback when no input device can be opened
- Last-write-wins hand-off from the capture callback to the display loop

Thread Safety:
- The capture callback never blocks on the display; it processes the frame
  and swaps a pointer
- The display loop reads the newest snapshot with a single atomic load
- Frames overwritten before the display reads them are dropped silently
*/
package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"audioscope/internal/analysis"
	"audioscope/internal/config"
	applog "audioscope/internal/log"
)

// Snapshot is the newest processed frame. Snapshots are immutable once
// published.
type Snapshot struct {
	Series    analysis.Series
	Seq       uint64 // 0 for the blank snapshot shown before the first frame.
	Synthetic bool   // Produced by the synthetic generator.
	Time      time.Time
}

// Sink receives every snapshot the display loop renders.
type Sink interface {
	Send(snapshot *Snapshot) error
}

type Engine struct {
	// Core configuration.
	config *config.Config
	log    *applog.Entry

	// Frame producers.
	source    Source
	synth     *Synthetic
	synthetic atomic.Bool // Set once the synthetic generator is driving.

	// Frame consumer.
	processor analysis.Processor

	// Shared slot between capture and display.
	latest atomic.Pointer[Snapshot]
	seq    atomic.Uint64

	closeOnce sync.Once
	closeErr  error
}

// NewEngine wires a source, a processor and the synthetic generator used as
// fallback. source may be nil when the configuration selects the synthetic
// source. The slot starts with the processor's blank series.
func NewEngine(cfg *config.Config, source Source, processor analysis.Processor, synth *Synthetic) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("engine: nil config")
	}
	if processor == nil {
		return nil, errors.New("engine: nil processor")
	}
	if synth == nil {
		return nil, errors.New("engine: nil synthetic generator")
	}
	if source == nil && cfg.Audio.Source != config.SourceSynthetic {
		return nil, errors.New("engine: nil source")
	}

	engine := &Engine{
		config:    cfg,
		log:       applog.With("engine"),
		source:    source,
		synth:     synth,
		processor: processor,
	}
	engine.latest.Store(&Snapshot{Series: processor.Blank(), Time: time.Now()})

	return engine, nil
}

// Start opens the input source. When the source reports ErrUnavailable and
// the fallback policy is synthetic, the engine switches to the generator and
// Start succeeds; any other failure is returned.
func (e *Engine) Start() error {
	if e.config.Audio.Source == config.SourceSynthetic {
		e.synthetic.Store(true)
		e.log.Infof("Using synthetic signal (source: %s)", config.SourceSynthetic)
		return nil
	}

	err := e.source.Start(e.config.Audio.SampleRate, e.config.Audio.FrameSize, e.processFrame)
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrUnavailable) && e.config.Audio.Fallback == config.FallbackSynthetic {
		e.log.Warnf("Audio stream failed, using synthetic signal: %v", err)
		e.synthetic.Store(true)
		return nil
	}

	return fmt.Errorf("failed to start audio input: %w", err)
}

// Synthetic reports whether the synthetic generator is driving the display.
func (e *Engine) Synthetic() bool {
	return e.synthetic.Load()
}

// processFrame runs on the capture goroutine.
func (e *Engine) processFrame(frame []float32) {
	e.publish(e.processor.Process(frame), false)
}

func (e *Engine) publish(series analysis.Series, synthetic bool) *Snapshot {
	snapshot := &Snapshot{
		Series:    series,
		Seq:       e.seq.Add(1),
		Synthetic: synthetic,
		Time:      time.Now(),
	}
	e.latest.Store(snapshot)
	return snapshot
}

// Latest returns the newest snapshot without producing a new one.
func (e *Engine) Latest() *Snapshot {
	return e.latest.Load()
}

// Frames returns how many frames have been published.
func (e *Engine) Frames() uint64 {
	return e.seq.Load()
}

// Tick advances one display cycle. In synthetic mode it generates and
// processes a fresh frame synchronously; otherwise it returns whatever the
// capture side published last, which is the previous snapshot when no new
// frame arrived.
func (e *Engine) Tick() *Snapshot {
	if e.synthetic.Load() {
		return e.publish(e.processor.Process(e.synth.Generate()), true)
	}
	return e.latest.Load()
}

// Run ticks every interval and hands each snapshot to the sinks until ctx is
// cancelled. Sink errors are logged and do not stop the loop.
func (e *Engine) Run(ctx context.Context, interval time.Duration, sinks ...Sink) error {
	if interval <= 0 {
		return fmt.Errorf("display interval must be positive, got %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.log.Debugf("Display loop started (Interval: %s, Sinks: %d)", interval, len(sinks))

	for {
		select {
		case <-ctx.Done():
			e.log.Debugf("Display loop stopped after %d frames", e.Frames())
			return nil
		case <-ticker.C:
			snapshot := e.Tick()
			for _, sink := range sinks {
				if err := sink.Send(snapshot); err != nil {
					e.log.Warnf("Sink %T failed: %v", sink, err)
				}
			}
		}
	}
}

// Close stops the input source. It is idempotent.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		if e.source != nil {
			e.closeErr = e.source.Stop()
		}
	})
	return e.closeErr
}
