package diarize

import (
	"log/slog"

	"github.com/redubtool/redub/pkg/audio"
	"github.com/redubtool/redub/pkg/dsp"
	"github.com/redubtool/redub/pkg/segment"
)

// Pitch and spectral decision bounds for gender inference. The cascade
// prefers fundamental frequency, falls back to spectral centroid, and as a
// last resort uses the sign of the second cepstral coefficient.
const (
	malePitchMaxHz      = 150
	femalePitchMinHz    = 200
	femaleCentroidHz    = 2500
	maleCentroidHz      = 1500
	tiebreakCoefficient = 1
)

// genderClassifier infers a gender per speaker label and caches the first
// verdict so a speaker never changes gender mid-conversation.
type genderClassifier struct {
	bySpeaker map[string]segment.Gender
	log       *slog.Logger
}

func newGenderClassifier(log *slog.Logger) *genderClassifier {
	return &genderClassifier{bySpeaker: make(map[string]segment.Gender), log: log}
}

// classify returns the cached gender for the segment's speaker, inferring
// it from the segment audio on first sight. Any failure to obtain audio or
// an inconclusive feature cascade resolves to male so the pipeline always
// has a usable voice pool.
func (g *genderClassifier) classify(seg segment.AudioSegment, src AudioProvider) segment.Gender {
	if cached, ok := g.bySpeaker[seg.Speaker]; ok {
		return cached
	}

	gender := segment.GenderMale
	if src != nil {
		buf, err := src.SegmentAudio(seg)
		if err != nil {
			g.log.Warn("gender inference: segment audio unavailable, defaulting to male",
				"segment", seg.ID, "speaker", seg.Speaker, "error", err)
		} else {
			gender = inferGender(buf)
		}
	}

	g.bySpeaker[seg.Speaker] = gender
	g.log.Debug("speaker gender resolved", "speaker", seg.Speaker, "gender", gender)
	return gender
}

// inferGender runs the feature cascade on one buffer.
func inferGender(buf audio.Buffer) segment.Gender {
	pitch := dsp.MedianPitch(buf)
	switch {
	case pitch > 0 && pitch < malePitchMaxHz:
		return segment.GenderMale
	case pitch > femalePitchMinHz:
		return segment.GenderFemale
	}

	centroid := dsp.SpectralCentroid(buf)
	switch {
	case centroid > femaleCentroidHz:
		return segment.GenderFemale
	case centroid > 0 && centroid < maleCentroidHz:
		return segment.GenderMale
	}

	if dsp.CepstralCoefficient(buf, tiebreakCoefficient) > 0 {
		return segment.GenderFemale
	}
	return segment.GenderMale
}
