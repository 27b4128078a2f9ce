// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"math"
	"sync"
	"time"

	"audioscope/internal/analysis"
	"audioscope/internal/audio"
	applog "audioscope/internal/log"
)

// LoggingTransport reports snapshots through the application logger. It is
// the display of the headless mode: every snapshot at debug level, and a
// summary at info level at most once per period.
type LoggingTransport struct {
	log    *applog.Entry
	period time.Duration

	mu       sync.Mutex
	lastInfo time.Time
	sent     uint64
}

// NewLoggingTransport creates a LoggingTransport that writes an info summary
// at most once per period.
func NewLoggingTransport(period time.Duration) *LoggingTransport {
	lt := &LoggingTransport{
		log:    applog.With("transport"),
		period: period,
	}
	lt.log.Infof("Using LoggingTransport (Summary every %s)", period)
	return lt
}

// Send logs a one-line description of the snapshot.
func (lt *LoggingTransport) Send(s *audio.Snapshot) error {
	line := Describe(s)

	lt.mu.Lock()
	lt.sent++
	now := time.Now()
	summary := now.Sub(lt.lastInfo) >= lt.period
	if summary {
		lt.lastInfo = now
	}
	lt.mu.Unlock()

	if summary {
		lt.log.Infof("%s", line)
	} else {
		lt.log.Debugf("%s", line)
	}
	return nil // Logging transport never fails to "send"
}

// Close logs how many snapshots were reported.
func (lt *LoggingTransport) Close() error {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.log.Debugf("LoggingTransport closed after %d snapshots", lt.sent)
	return nil
}

// Describe summarizes a snapshot in one line: the dominant peak for a
// spectrum, the peak and RMS amplitude for a waveform.
func Describe(s *audio.Snapshot) string {
	source := "mic"
	if s.Synthetic {
		source = "synthetic"
	}

	switch series := s.Series.(type) {
	case *analysis.Spectrum:
		peaks := series.Peaks(1)
		if len(peaks) == 0 {
			return fmt.Sprintf("#%d %s spectrum: flat at %.1f dB", s.Seq, source, firstLevel(series))
		}
		x, y := series.Point(peaks[0])
		return fmt.Sprintf("#%d %s spectrum: peak %.1f Hz at %.1f dB", s.Seq, source, x, y)
	case *analysis.Waveform:
		var peak, sumSq float64
		for _, v := range series.Samples {
			peak = math.Max(peak, math.Abs(v))
			sumSq += v * v
		}
		rms := 0.0
		if n := len(series.Samples); n > 0 {
			rms = math.Sqrt(sumSq / float64(n))
		}
		return fmt.Sprintf("#%d %s waveform: peak %.3f, rms %.3f", s.Seq, source, peak, rms)
	default:
		return fmt.Sprintf("#%d %s %s: %d points", s.Seq, source, s.Series.Kind(), s.Series.Len())
	}
}

func firstLevel(s *analysis.Spectrum) float64 {
	if len(s.Levels) == 0 {
		return math.NaN()
	}
	return s.Levels[0]
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
