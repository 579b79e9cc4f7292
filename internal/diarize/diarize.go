// Package diarize attributes speakers, genders, and synthesis voices to
// speech segments without any acoustic speaker model. Attribution is a
// conversational-rhythm heuristic: long pauses and long monologues flip
// between two alternating speaker labels. Gender is inferred per speaker
// from pitch and spectral features and cached so every segment of a
// speaker gets the same gender and the same voice.
package diarize

import (
	"log/slog"

	"github.com/redubtool/redub/internal/config"
	"github.com/redubtool/redub/pkg/audio"
	"github.com/redubtool/redub/pkg/segment"
)

// AudioProvider resolves a segment to its audio for feature extraction.
// The pipeline backs this with slices of the extracted source track.
type AudioProvider interface {
	SegmentAudio(seg segment.AudioSegment) (audio.Buffer, error)
}

// Attributor assigns Speaker, Gender, and VoiceID to segments in place.
type Attributor struct {
	cfg    config.DiarizeConfig
	gender *genderClassifier
	voices *voicePool
	log    *slog.Logger
}

// New creates an Attributor. Voice pools come from the config; the same
// Attributor must not be shared across jobs because voice assignment is
// stateful per conversation.
func New(cfg config.DiarizeConfig, log *slog.Logger) *Attributor {
	if log == nil {
		log = slog.Default()
	}
	return &Attributor{
		cfg:    cfg,
		gender: newGenderClassifier(log),
		voices: newVoicePool(cfg.MaleVoices, cfg.FemaleVoices),
		log:    log,
	}
}

// Attribute walks segments in timeline order and fills in Speaker, Gender
// and VoiceID. The first segment is always Speaker_A; the label flips when
// the silence after the previous segment exceeds the long-pause threshold
// or the segment itself runs longer than the long-segment threshold, so a
// monologue that overstays the threshold is already attributed to the new
// speaker. Only two labels are ever produced, so a third voice in a
// conversation collapses onto one of them.
//
// The walk covers all segments, speech or not, so that the alternation
// rhythm stays anchored to the real timeline. Gender and voice are still
// resolved for every segment; downstream stages simply never synthesise
// the non-speech ones.
func (a *Attributor) Attribute(segs []segment.AudioSegment, src AudioProvider) []segment.AudioSegment {
	current := 0
	for i := range segs {
		if i > 0 {
			if segs[i-1].SilenceAfter > a.cfg.LongPause || segs[i].Duration > a.cfg.LongSegment {
				current = (current + 1) % 2
			}
		}
		if current == 0 {
			segs[i].Speaker = segment.SpeakerA
		} else {
			segs[i].Speaker = segment.SpeakerB
		}

		segs[i].Gender = a.gender.classify(segs[i], src)
		segs[i].VoiceID = a.voices.assign(segs[i].Speaker, segs[i].Gender)
	}
	return segs
}
