// Package utils holds signal generators and spectrum helpers shared by the
// analysis and engine tests.
package utils

import "math"

func GenerateComplexWave(size int, sampleRate float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2 // 440Hz fundamental + harmonics
		buffer[i] = float32(signal * 0.9)
	}
	return buffer
}

// GenerateSineWave returns size samples of amplitude*sin(2*pi*frequency*t),
// starting at phase 0.
func GenerateSineWave(size int, sampleRate, frequency, amplitude float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = float32(amplitude * math.Sin(2*math.Pi*frequency*t))
	}
	return buffer
}

// Mix adds the given frames sample by sample into a new frame sized like the
// longest input.
func Mix(frames ...[]float32) []float32 {
	n := 0
	for _, f := range frames {
		n = max(n, len(f))
	}
	out := make([]float32, n)
	for _, f := range frames {
		for i, v := range f {
			out[i] += v
		}
	}
	return out
}

// BinCenter returns the frequency of FFT bin k, useful to build test tones
// that land exactly on a bin.
func BinCenter(k, fftSize int, sampleRate float64) float64 {
	return float64(k) * sampleRate / float64(fftSize)
}

// NearestBin returns the FFT bin closest to frequency.
func NearestBin(frequency float64, fftSize int, sampleRate float64) int {
	return int(math.Round(frequency * float64(fftSize) / sampleRate))
}

func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}
