package dsp

import (
	"math"
	"sort"

	"github.com/redubtool/redub/pkg/audio"
)

const (
	// pitchFrameSize is the analysis frame for pitch tracking. Longer than
	// the STFT frame so that at least two periods of an 85 Hz voice fit.
	pitchFrameSize = 1024

	// pitchHopSize is the pitch frame advance in samples.
	pitchHopSize = 512

	// minPitchHz and maxPitchHz bound the fundamental frequency search to
	// the human voice range.
	minPitchHz = 60.0
	maxPitchHz = 400.0

	// voicedEnergyFloor is the minimum frame RMS for a frame to be
	// considered at all; quieter frames are skipped as unvoiced.
	voicedEnergyFloor = 0.01

	// voicedClarityFloor is the minimum normalised autocorrelation peak for
	// a frame to count as voiced. Noise produces flat autocorrelation and
	// falls below this.
	voicedClarityFloor = 0.3
)

// MedianPitch estimates the median fundamental frequency of the voiced
// frames in the buffer, in Hz. Frames are classified voiced when they carry
// enough energy and their autocorrelation shows a clear periodic peak
// within the human pitch range. Returns 0 when no voiced frame is found;
// callers fall back to spectral gender cues in that case.
func MedianPitch(b audio.Buffer) float64 {
	samples := b.Samples()
	if len(samples) < pitchFrameSize || b.SampleRate <= 0 {
		return 0
	}

	minLag := int(float64(b.SampleRate) / maxPitchHz)
	maxLag := int(float64(b.SampleRate) / minPitchHz)
	if maxLag >= pitchFrameSize {
		maxLag = pitchFrameSize - 1
	}

	var pitches []float64
	for start := 0; start+pitchFrameSize <= len(samples); start += pitchHopSize {
		frame := samples[start : start+pitchFrameSize]
		if f0, ok := framePitch(frame, b.SampleRate, minLag, maxLag); ok {
			pitches = append(pitches, f0)
		}
	}
	if len(pitches) == 0 {
		return 0
	}
	sort.Float64s(pitches)
	mid := len(pitches) / 2
	if len(pitches)%2 == 1 {
		return pitches[mid]
	}
	return (pitches[mid-1] + pitches[mid]) / 2
}

// framePitch estimates the fundamental frequency of one frame via the peak
// of its normalised autocorrelation, or reports ok=false for unvoiced
// frames.
func framePitch(frame []float64, sampleRate, minLag, maxLag int) (f0 float64, ok bool) {
	var energy float64
	for _, s := range frame {
		energy += s * s
	}
	if math.Sqrt(energy/float64(len(frame))) < voicedEnergyFloor {
		return 0, false
	}

	bestLag, bestCorr := 0, 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var corr float64
		for i := 0; i+lag < len(frame); i++ {
			corr += frame[i] * frame[i+lag]
		}
		corr /= energy
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}
	if bestLag == 0 || bestCorr < voicedClarityFloor {
		return 0, false
	}
	return float64(sampleRate) / float64(bestLag), true
}
