// SPDX-License-Identifier: MIT
package transport

import (
	"sync"

	"audioscope/internal/audio"
)

// Transport delivers display snapshots somewhere other than the terminal.
// Implementations must be safe for concurrent use and must not block the
// display loop.
type Transport interface {
	audio.Sink
	Close() error
}

// Message is the JSON form of a snapshot sent to remote displays.
type Message struct {
	Seq       uint64    `json:"seq"`
	Synthetic bool      `json:"synthetic"`
	Kind      string    `json:"kind"`
	Time      int64     `json:"time"` // Unix milliseconds.
	X         []float64 `json:"x"`
	Y         []float64 `json:"y"`
}

// NewMessage flattens a snapshot into its wire form. The axes are shared
// with the snapshot, which is immutable.
func NewMessage(s *audio.Snapshot) Message {
	x, y := s.Series.Axes()
	return Message{
		Seq:       s.Seq,
		Synthetic: s.Synthetic,
		Kind:      s.Series.Kind(),
		Time:      s.Time.UnixMilli(),
		X:         x,
		Y:         y,
	}
}

// onChange forwards a snapshot only when it differs from the last one sent.
// The display loop re-sends the same snapshot while no new frame arrives.
type onChange struct {
	Transport

	mu      sync.Mutex
	sent    bool
	lastSeq uint64
}

// OnChange wraps t so repeated snapshots are not sent twice.
func OnChange(t Transport) Transport {
	return &onChange{Transport: t}
}

func (o *onChange) Send(s *audio.Snapshot) error {
	o.mu.Lock()
	if o.sent && s.Seq == o.lastSeq {
		o.mu.Unlock()
		return nil
	}
	o.sent, o.lastSeq = true, s.Seq
	o.mu.Unlock()

	return o.Transport.Send(s)
}

// Multi fans a snapshot out to several transports.
type Multi []Transport

func (m Multi) Send(s *audio.Snapshot) error {
	var firstErr error
	for _, t := range m {
		if err := t.Send(s); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes every transport and returns the first error.
func (m Multi) Close() error {
	var firstErr error
	for _, t := range m {
		if err := t.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ Transport = (*onChange)(nil)
var _ Transport = Multi(nil)
