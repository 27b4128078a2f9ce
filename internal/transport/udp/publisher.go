// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"audioscope/internal/analysis"
	"audioscope/internal/audio"
	applog "audioscope/internal/log"
)

/*
UDP Packet Structure (BigEndian)

+------------------------------------------------------------------------------+
| Field           | Data Type | Size (Bytes) | Description                       |
|-----------------|-----------|--------------|-----------------------------------|
| Sequence Number | uint32    | 4            | Monotonically increasing          |
| Timestamp       | int64     | 8            | Capture time, ns since epoch      |
| Kind            | uint8     | 1            | 0 = spectrum (dB), 1 = waveform   |
| Synthetic       | uint8     | 1            | 1 when the synthetic signal drove |
| X Step          | float32   | 4            | Hz per bin, or seconds per sample |
| Value Count     | uint16    | 2            | Number of floats (N)              |
| Values          | []float32 | N * 4        | Levels (dB) or samples            |
+------------------------------------------------------------------------------+
*/

// Packet kinds.
const (
	KindSpectrum uint8 = 0
	KindWaveform uint8 = 1
)

const (
	// HeaderSize is the number of bytes before the values.
	HeaderSize = 4 + 8 + 1 + 1 + 4 + 2

	// MaxValues is the largest series that fits one IPv4 UDP datagram.
	MaxValues = (65507 - HeaderSize) / 4
)

// ErrTooLarge is returned for series longer than MaxValues.
var ErrTooLarge = errors.New("series does not fit in one UDP packet")

// Packet is a decoded datagram.
type Packet struct {
	Seq       uint32
	Timestamp int64
	Kind      uint8
	Synthetic bool
	XStep     float32
	Values    []float32
}

// UDPPublisher packs snapshots into the binary packet format and sends them
// with a UDPSender.
type UDPPublisher struct {
	sender *UDPSender
	log    *applog.Entry

	mu           sync.Mutex    // Serializes Send; guards the buffers below.
	sequenceNum  uint32        // Monotonically increasing sequence number for packets.
	values       []float32     // Reusable float32 conversion buffer.
	packetBuffer *bytes.Buffer // Reusable buffer for constructing the binary packet.
}

// NewUDPPublisher creates a publisher for series of up to values points.
func NewUDPPublisher(sender *UDPSender, values int) (*UDPPublisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDPPublisher: UDP sender cannot be nil")
	}
	if values > MaxValues {
		return nil, fmt.Errorf("%w: %d values, at most %d", ErrTooLarge, values, MaxValues)
	}

	log := applog.With("udp")
	log.Infof("Initializing publisher (Values: %d, Packet: %d bytes)", values, HeaderSize+4*values)

	return &UDPPublisher{
		sender:       sender,
		log:          log,
		values:       make([]float32, 0, values),
		packetBuffer: bytes.NewBuffer(make([]byte, 0, HeaderSize+4*values)),
	}, nil
}

// Send encodes the snapshot and transmits it.
func (p *UDPPublisher) Send(s *audio.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sequenceNum++
	packet, err := p.encode(s)
	if err != nil {
		return err
	}
	if err := p.sender.Send(packet); err != nil {
		return err
	}

	p.log.Debugf("Sent packet %d (%d bytes)", p.sequenceNum, len(packet))
	return nil
}

// encode writes the packet for s into the reusable buffer and returns its
// bytes, valid until the next call.
func (p *UDPPublisher) encode(s *audio.Snapshot) ([]byte, error) {
	x, y := s.Series.Axes()
	if len(y) > MaxValues {
		return nil, fmt.Errorf("%w: %d values", ErrTooLarge, len(y))
	}

	kind := KindSpectrum
	if s.Series.Kind() == analysis.KindWaveform {
		kind = KindWaveform
	}
	var synthetic uint8
	if s.Synthetic {
		synthetic = 1
	}
	var step float32
	if len(x) > 1 {
		step = float32(x[1] - x[0])
	}

	p.values = p.values[:0]
	for _, v := range y {
		p.values = append(p.values, float32(v))
	}

	p.packetBuffer.Reset()
	header := struct {
		Seq       uint32
		Timestamp int64
		Kind      uint8
		Synthetic uint8
		XStep     float32
		Count     uint16
	}{p.sequenceNum, s.Time.UnixNano(), kind, synthetic, step, uint16(len(p.values))}

	if err := binary.Write(p.packetBuffer, binary.BigEndian, header); err != nil {
		return nil, fmt.Errorf("pack header: %w", err)
	}
	if err := binary.Write(p.packetBuffer, binary.BigEndian, p.values); err != nil {
		return nil, fmt.Errorf("pack values: %w", err)
	}
	return p.packetBuffer.Bytes(), nil
}

// Close closes the underlying sender.
func (p *UDPPublisher) Close() error {
	return p.sender.Close()
}

// Decode parses one datagram produced by UDPPublisher.
func Decode(data []byte) (*Packet, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("packet too short: %d bytes", len(data))
	}

	pkt := &Packet{
		Seq:       binary.BigEndian.Uint32(data[0:4]),
		Timestamp: int64(binary.BigEndian.Uint64(data[4:12])),
		Kind:      data[12],
		Synthetic: data[13] == 1,
		XStep:     math.Float32frombits(binary.BigEndian.Uint32(data[14:18])),
	}
	count := int(binary.BigEndian.Uint16(data[18:20]))

	body := data[HeaderSize:]
	if len(body) != 4*count {
		return nil, fmt.Errorf("packet declares %d values but carries %d bytes", count, len(body))
	}
	pkt.Values = make([]float32, count)
	for i := range pkt.Values {
		pkt.Values[i] = math.Float32frombits(binary.BigEndian.Uint32(body[4*i:]))
	}
	return pkt, nil
}

// Ensure UDPPublisher can sit in the display loop.
var _ audio.Sink = (*UDPPublisher)(nil)
