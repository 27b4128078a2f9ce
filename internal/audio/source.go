// SPDX-License-Identifier: MIT
package audio

import "errors"

// ErrUnavailable is wrapped by every error a Source returns when the input
// device cannot be opened: missing device, denied permission, unsupported
// channel count, sample rate or block size.
var ErrUnavailable = errors.New("audio input unavailable")

// Source delivers fixed-size mono frames to a handler.
type Source interface {
	// Start opens the input and calls onFrame once per captured block from
	// the source's own goroutine. Frames are never reused by the source, so
	// the handler may retain them. Start does not retry.
	Start(sampleRate float64, frameSize int, onFrame func(frame []float32)) error
	// Stop releases the input. It is idempotent and safe to call on a
	// source that was never started.
	Stop() error
}
