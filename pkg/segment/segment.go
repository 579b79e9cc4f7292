// Package segment defines the data model shared by every stage of the
// dubbing pipeline: the AudioSegment produced by silence segmentation and
// annotated by classification and attribution, the TranslatedSegment it
// becomes once the external engines have run, and the Timeline that holds
// the ordered sequence for one video.
package segment

import (
	"errors"
	"fmt"
)

// Gender is the apparent voice gender attributed to a speaker.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// IsValid reports whether g is a recognised gender label.
func (g Gender) IsValid() bool {
	return g == GenderMale || g == GenderFemale
}

// Status describes the outcome of processing one segment through the
// external recognition/translation/synthesis chain.
type Status string

const (
	// StatusOK means the segment was recognised, translated, and
	// synthesised successfully.
	StatusOK Status = "ok"

	// StatusNoSpeechVAD means the voice activity classifier marked the
	// segment as non-speech; it contributes silence to the final track.
	StatusNoSpeechVAD Status = "no_speech_vad"

	// StatusNoSpeech means recognition returned no text for the segment.
	StatusNoSpeech Status = "no_speech"

	// StatusError means an external engine failed; the segment contributes
	// silence of its original duration and the pipeline continues.
	StatusError Status = "error"
)

// Speaker labels cycle through exactly two identities. The heuristic
// attributor never produces a third; see diarize for the rationale.
const (
	SpeakerA = "Speaker_A"
	SpeakerB = "Speaker_B"
)

// AudioSegment is a contiguous, time-bounded unit of the original audio
// bounded by detected silence. Times are seconds on the original timeline.
//
// Invariants maintained by the segmenter: End = Start + Duration, segments
// are emitted in non-decreasing Start order, and no two segments overlap.
type AudioSegment struct {
	// ID is the sequence index assigned in emission order.
	ID int `json:"id"`

	// SourceRef is an opaque reference to the segment's audio, usually a
	// temp file path owned by the pipeline run.
	SourceRef string `json:"source_ref,omitempty"`

	// Start and End bound the segment on the original audio timeline.
	Start float64 `json:"start_time"`
	End   float64 `json:"end_time"`

	// Duration is End - Start. Always positive.
	Duration float64 `json:"duration"`

	// SilenceAfter is the length of the detected gap immediately following
	// the segment, 0 if none was detected.
	SilenceAfter float64 `json:"silence_after"`

	// Speaker is the alternating label assigned by the attributor
	// (Speaker_A or Speaker_B).
	Speaker string `json:"speaker_label"`

	// Gender is the apparent voice gender of the speaker.
	Gender Gender `json:"gender"`

	// VoiceID is the synthesis voice drawn from the per-gender pool.
	VoiceID string `json:"voice_id"`

	// VADIsSpeech, VADConfidence, and VADReason are set by the voice
	// activity classifier. A non-speech verdict never removes the segment
	// from the sequence; it only changes downstream handling.
	VADIsSpeech   bool    `json:"vad_is_speech"`
	VADConfidence float64 `json:"vad_confidence"`
	VADReason     string  `json:"vad_reason,omitempty"`

	// MergedFrom counts how many raw segments were folded into this one by
	// the merger. Zero for segments that were never merged.
	MergedFrom int `json:"merged_from,omitempty"`
}

// TranslatedSegment is an AudioSegment after the external collaborators
// have run.
type TranslatedSegment struct {
	AudioSegment

	// OriginalText is the recognised source-language text.
	OriginalText string `json:"original_text,omitempty"`

	// TranslatedText is the target-language text handed to synthesis.
	TranslatedText string `json:"translated_text,omitempty"`

	// SynthesizedRef points at the synthesised replacement audio. Empty
	// means synthesis failed or the segment was excluded.
	SynthesizedRef string `json:"synthesized_audio_ref,omitempty"`

	// SynthesizedDuration is the measured length of the synthesised audio
	// in seconds, 0 when SynthesizedRef is empty.
	SynthesizedDuration float64 `json:"synthesized_duration,omitempty"`

	// Success reports whether the full chain completed for this segment.
	Success bool `json:"success"`

	// Status records the processing outcome.
	Status Status `json:"status"`
}

// Timeline is the ordered sequence of translated segments for one video
// plus the video's total duration in seconds. A Timeline is created once
// per input video, populated incrementally, and discarded after the final
// video is written.
type Timeline struct {
	Segments      []TranslatedSegment `json:"segments"`
	VideoDuration float64             `json:"video_duration"`
}

// SpeechSegments returns the segments that survive into the final speech
// track: VAD-positive and not marked no_speech_vad. The slice shares
// backing elements with the timeline.
func (t *Timeline) SpeechSegments() []TranslatedSegment {
	var out []TranslatedSegment
	for _, s := range t.Segments {
		if s.VADIsSpeech && s.Status != StatusNoSpeechVAD {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks the ordering and overlap invariants over the timeline's
// segments. It returns a joined error listing every violation found.
func (t *Timeline) Validate() error {
	var errs []error
	prevEnd := 0.0
	prevStart := -1.0
	for i, s := range t.Segments {
		if s.Duration <= 0 {
			errs = append(errs, fmt.Errorf("segment %d: non-positive duration %.3f", s.ID, s.Duration))
		}
		if d := s.End - s.Start; abs(d-s.Duration) > 1e-6 {
			errs = append(errs, fmt.Errorf("segment %d: end-start %.3f does not match duration %.3f", s.ID, d, s.Duration))
		}
		if s.Start < prevStart {
			errs = append(errs, fmt.Errorf("segment %d: start %.3f before previous start %.3f", s.ID, s.Start, prevStart))
		}
		if i > 0 && s.Start < prevEnd-1e-6 {
			errs = append(errs, fmt.Errorf("segment %d: overlaps previous segment (start %.3f < previous end %.3f)", s.ID, s.Start, prevEnd))
		}
		prevStart = s.Start
		prevEnd = s.End
	}
	return errors.Join(errs...)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
