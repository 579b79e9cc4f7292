// Package audio provides the PCM buffer type shared by every stage of the
// dubbing pipeline. A Buffer holds single-channel 16-bit little-endian PCM
// together with its sample rate; segmentation, feature extraction, and
// track assembly all operate on Buffers so that no stage needs to touch a
// container format until the final WAV handoff.
package audio

import (
	"encoding/binary"
	"math"
	"time"
)

// Buffer is a mono, 16-bit little-endian PCM audio buffer.
//
// A Buffer is a value type: slicing operations share the underlying byte
// slice, mutating operations (gain) copy first. Buffers are not safe for
// concurrent mutation; the pipeline owns each buffer exclusively.
type Buffer struct {
	// Data holds raw little-endian int16 PCM samples.
	Data []byte

	// SampleRate in Hz (e.g., 16000 for the extracted dubbing track).
	SampleRate int
}

// NumSamples returns the number of int16 samples in the buffer.
func (b Buffer) NumSamples() int { return len(b.Data) / 2 }

// Duration returns the playback length of the buffer.
func (b Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.NumSamples()) / float64(b.SampleRate) * float64(time.Second))
}

// Seconds returns the playback length in seconds as a float64. Segment
// timing throughout the pipeline is expressed in seconds, so this is the
// most common accessor.
func (b Buffer) Seconds() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.NumSamples()) / float64(b.SampleRate)
}

// Sample returns the i-th sample as an int16. The caller must ensure
// 0 <= i < NumSamples.
func (b Buffer) Sample(i int) int16 {
	return int16(binary.LittleEndian.Uint16(b.Data[i*2:]))
}

// Slice returns the sub-buffer covering [start, end) in seconds. Bounds are
// clamped to the buffer; an inverted range yields an empty buffer. The
// returned buffer shares storage with b.
func (b Buffer) Slice(start, end float64) Buffer {
	s := int(start * float64(b.SampleRate))
	e := int(end * float64(b.SampleRate))
	n := b.NumSamples()
	if s < 0 {
		s = 0
	}
	if e > n {
		e = n
	}
	if s >= e {
		return Buffer{SampleRate: b.SampleRate}
	}
	return Buffer{Data: b.Data[s*2 : e*2], SampleRate: b.SampleRate}
}

// Append returns a new buffer with other concatenated after b. The sample
// rates must match; Append keeps b's rate.
func (b Buffer) Append(other Buffer) Buffer {
	data := make([]byte, 0, len(b.Data)+len(other.Data))
	data = append(data, b.Data...)
	data = append(data, other.Data...)
	return Buffer{Data: data, SampleRate: b.SampleRate}
}

// Samples returns the buffer contents as float64 samples normalised to
// [-1, 1], the representation the DSP feature extractors operate on.
func (b Buffer) Samples() []float64 {
	n := b.NumSamples()
	out := make([]float64, n)
	for i := range n {
		out[i] = float64(b.Sample(i)) / 32768.0
	}
	return out
}

// Silence returns a buffer of d seconds of digital silence at the given
// sample rate. Non-positive durations yield an empty buffer.
func Silence(d float64, sampleRate int) Buffer {
	if d <= 0 || sampleRate <= 0 {
		return Buffer{SampleRate: sampleRate}
	}
	n := int(math.Round(d * float64(sampleRate)))
	return Buffer{Data: make([]byte, n*2), SampleRate: sampleRate}
}

// FromSamples builds a buffer from float64 samples in [-1, 1]. Values
// outside the range are clamped. Tests use this to synthesise tones.
func FromSamples(samples []float64, sampleRate int) Buffer {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(s * 32767)
		binary.LittleEndian.PutUint16(data[i*2:], uint16(v))
	}
	return Buffer{Data: data, SampleRate: sampleRate}
}
