package dsp

import (
	"math"

	"github.com/redubtool/redub/pkg/audio"
)

// numCepstra is how many cepstral coefficients are extracted per frame.
// Thirteen is the conventional count for speech analysis.
const numCepstra = 13

// cepstra returns per-frame cepstral coefficient vectors: a DCT-II over the
// log-magnitude spectrum of each frame. Coefficient 0 (overall level) is
// included; callers index from there.
func cepstra(b audio.Buffer) [][]float64 {
	var out [][]float64
	for _, frame := range frames(b.Samples()) {
		mags := magnitudes(frame)
		logMags := make([]float64, len(mags))
		for i, m := range mags {
			logMags[i] = logMagnitude(m)
		}
		out = append(out, dctII(logMags, numCepstra))
	}
	return out
}

// dctII computes the first n coefficients of the type-II discrete cosine
// transform of x.
func dctII(x []float64, n int) []float64 {
	out := make([]float64, n)
	N := float64(len(x))
	for k := range n {
		var sum float64
		for i, v := range x {
			sum += v * math.Cos(math.Pi*float64(k)*(float64(i)+0.5)/N)
		}
		out[k] = sum / N
	}
	return out
}

// CepstralVariability measures how much the cepstral coefficients move
// between frames, averaged over all coefficients. Speech alternates between
// phonemes and scores high; steady tones and hum score near zero.
func CepstralVariability(b audio.Buffer) float64 {
	cs := cepstra(b)
	if len(cs) < 2 {
		return 0
	}
	var total float64
	for k := range numCepstra {
		var mean float64
		for _, c := range cs {
			mean += c[k]
		}
		mean /= float64(len(cs))

		var variance float64
		for _, c := range cs {
			d := c[k] - mean
			variance += d * d
		}
		total += variance / float64(len(cs))
	}
	return total / numCepstra
}

// CepstralCoefficient returns the mean of the k-th cepstral coefficient
// over all frames. Out-of-range k, or a buffer too short to frame,
// reports 0.
func CepstralCoefficient(b audio.Buffer, k int) float64 {
	if k < 0 || k >= numCepstra {
		return 0
	}
	cs := cepstra(b)
	if len(cs) == 0 {
		return 0
	}
	var sum float64
	for _, c := range cs {
		sum += c[k]
	}
	return sum / float64(len(cs))
}
