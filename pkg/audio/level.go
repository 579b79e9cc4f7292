package audio

import (
	"encoding/binary"
	"math"
)

// SilenceFloorDBFS is the level reported for a buffer with no measurable
// energy. Comparisons against any realistic threshold treat it as silent.
const SilenceFloorDBFS = -120.0

// RMS returns the root-mean-square level of the buffer, normalised to
// [0, 1] where 1.0 is digital full scale. An empty buffer reports 0.
func (b Buffer) RMS() float64 {
	n := b.NumSamples()
	if n == 0 {
		return 0
	}
	var sum float64
	for i := range n {
		s := float64(b.Sample(i)) / 32768.0
		sum += s * s
	}
	return math.Sqrt(sum / float64(n))
}

// DBFS returns the RMS level in decibels relative to full scale. Silent or
// empty buffers report SilenceFloorDBFS rather than -Inf so callers can
// compare against thresholds without special-casing.
func (b Buffer) DBFS() float64 {
	rms := b.RMS()
	if rms <= 0 {
		return SilenceFloorDBFS
	}
	db := 20 * math.Log10(rms)
	if db < SilenceFloorDBFS {
		return SilenceFloorDBFS
	}
	return db
}

// ApplyGain returns a copy of the buffer with the given gain in dB applied.
// Samples that would exceed int16 range are clamped.
func (b Buffer) ApplyGain(db float64) Buffer {
	factor := math.Pow(10, db/20)
	n := b.NumSamples()
	data := make([]byte, len(b.Data))
	for i := range n {
		v := float64(b.Sample(i)) * factor
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(data[i*2:], uint16(int16(v)))
	}
	return Buffer{Data: data, SampleRate: b.SampleRate}
}

// NormalizeTo returns the buffer boosted so its RMS level reaches target
// dBFS. Buffers already at or above the target, and silent buffers, are
// returned unchanged; normalization only ever raises the level.
func (b Buffer) NormalizeTo(targetDBFS float64) Buffer {
	current := b.DBFS()
	if current <= SilenceFloorDBFS || current >= targetDBFS {
		return b
	}
	return b.ApplyGain(targetDBFS - current)
}
