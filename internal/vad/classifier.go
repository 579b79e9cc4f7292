// Package vad classifies audio segments as speech or non-speech using a
// weighted multi-feature heuristic: signal energy, spectral centroid,
// speech-band energy ratio, cepstral variability, and duration.
//
// The classifier never deletes a segment. A non-speech verdict only marks
// the segment so that downstream stages treat it as silence in the final
// track; it stays addressable by its ID and original timing. On any
// internal failure the classifier defaults to speech.
package vad

import (
	"fmt"
	"strings"

	"github.com/redubtool/redub/pkg/audio"
	"github.com/redubtool/redub/pkg/dsp"
)

// Feature gates. A sub-score contributes only when its metric clears the
// gate; the gate values come from the tuned source heuristic.
const (
	minSpeechEnergy = 0.01 // RMS floor for any signal to count
	minCentroidHz   = 1000 // speech centroid lower bound
	maxCentroidHz   = 8000 // speech centroid upper bound
	centroidPeakHz  = 2500 // optimum centroid for speech
	speechBandLow   = 85   // Hz, speech band lower edge
	speechBandHigh  = 8000 // Hz, speech band upper edge
	minBandRatio    = 0.3  // minimum share of energy in the speech band
	minMFCCVariance = 0.5  // cepstral variability floor
	minSpeechDur    = 0.5  // seconds, shorter segments are rarely speech
)

// Sub-score weights. They sum to 1 so the combined score stays in [0,1].
const (
	weightEnergy   = 0.20
	weightCentroid = 0.25
	weightBand     = 0.30
	weightCepstral = 0.15
	weightDuration = 0.10
)

// Metrics holds the raw feature values extracted from one segment. They are
// returned alongside the verdict for diagnostics and tests.
type Metrics struct {
	RMSEnergy           float64
	SpectralCentroid    float64
	SpeechBandRatio     float64
	CepstralVariability float64
	Duration            float64
}

// Result is the classification outcome for one segment.
type Result struct {
	// IsSpeech is the verdict: combined score >= threshold.
	IsSpeech bool

	// Confidence is the combined weighted score in [0,1].
	Confidence float64

	// Reason explains the verdict; for rejections it lists which
	// sub-checks failed.
	Reason string

	// Metrics are the underlying feature values.
	Metrics Metrics
}

// Classifier scores segments against a configurable speech threshold.
type Classifier struct {
	threshold float64
}

// New creates a Classifier. threshold is the score at or above which a
// segment counts as speech; values outside (0,1] fall back to 0.5.
func New(threshold float64) *Classifier {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.5
	}
	return &Classifier{threshold: threshold}
}

// Classify scores one segment's audio. It is deterministic: the same
// buffer always produces the same result. An empty buffer is classified
// non-speech outright; any other internal failure defaults to speech with
// confidence 0.5 so content is never silently erased.
func (c *Classifier) Classify(buf audio.Buffer) Result {
	if buf.NumSamples() == 0 || buf.SampleRate <= 0 {
		return Result{IsSpeech: false, Confidence: 0, Reason: "empty_audio"}
	}

	m := extract(buf)
	score := speechScore(m)
	isSpeech := score >= c.threshold

	return Result{
		IsSpeech:   isSpeech,
		Confidence: score,
		Reason:     reason(m, score, c.threshold),
		Metrics:    m,
	}
}

// Failed returns the verdict used when classification itself errors:
// the segment is kept as speech at half confidence. Callers report this
// instead of dropping the segment.
func Failed(err error) Result {
	return Result{IsSpeech: true, Confidence: 0.5, Reason: fmt.Sprintf("error: %v", err)}
}

// extract computes the five feature categories from the segment audio.
func extract(buf audio.Buffer) Metrics {
	return Metrics{
		RMSEnergy:           buf.RMS(),
		SpectralCentroid:    dsp.SpectralCentroid(buf),
		SpeechBandRatio:     dsp.BandEnergyRatio(buf, speechBandLow, speechBandHigh),
		CepstralVariability: dsp.CepstralVariability(buf),
		Duration:            buf.Seconds(),
	}
}

// speechScore combines the gated, clamped sub-scores into one weighted
// value in [0,1].
func speechScore(m Metrics) float64 {
	var score float64

	if m.RMSEnergy > minSpeechEnergy {
		score += weightEnergy * clamp01(m.RMSEnergy/0.1)
	}

	if m.SpectralCentroid >= minCentroidHz && m.SpectralCentroid <= maxCentroidHz {
		centroidFit := 1.0 - abs(m.SpectralCentroid-centroidPeakHz)/centroidPeakHz
		if centroidFit > 0 {
			score += weightCentroid * centroidFit
		}
	}

	if m.SpeechBandRatio >= minBandRatio {
		score += weightBand * clamp01(m.SpeechBandRatio/0.8)
	}

	if m.CepstralVariability > minMFCCVariance {
		score += weightCepstral * clamp01(m.CepstralVariability/2.0)
	}

	if m.Duration >= minSpeechDur {
		score += weightDuration * clamp01(m.Duration/2.0)
	}

	return clamp01(score)
}

// reason composes the human-readable explanation of a verdict. Rejections
// list every failed sub-check so operators can see why a segment was
// treated as silence.
func reason(m Metrics, score, threshold float64) string {
	if score >= threshold {
		return fmt.Sprintf("speech: score=%.3f", score)
	}

	var failures []string
	if m.RMSEnergy <= minSpeechEnergy {
		failures = append(failures, fmt.Sprintf("low_energy(%.3f)", m.RMSEnergy))
	}
	if m.SpectralCentroid < minCentroidHz {
		failures = append(failures, fmt.Sprintf("centroid_low(%.0fHz)", m.SpectralCentroid))
	} else if m.SpectralCentroid > maxCentroidHz {
		failures = append(failures, fmt.Sprintf("centroid_high(%.0fHz)", m.SpectralCentroid))
	}
	if m.SpeechBandRatio < minBandRatio {
		failures = append(failures, fmt.Sprintf("low_speech_band(%.3f)", m.SpeechBandRatio))
	}
	if m.Duration < minSpeechDur {
		failures = append(failures, fmt.Sprintf("short_segment(%.1fs)", m.Duration))
	}
	if len(failures) == 0 {
		return fmt.Sprintf("non_speech: low_score(%.3f)", score)
	}
	return "non_speech: " + strings.Join(failures, ", ")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
