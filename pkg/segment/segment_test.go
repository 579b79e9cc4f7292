package segment

import (
	"strings"
	"testing"
)

func seg(id int, start, end float64) TranslatedSegment {
	return TranslatedSegment{AudioSegment: AudioSegment{
		ID:       id,
		Start:    start,
		End:      end,
		Duration: end - start,
	}}
}

func TestValidateAcceptsWellFormedTimeline(t *testing.T) {
	tl := Timeline{
		Segments: []TranslatedSegment{
			seg(0, 0.0, 2.5),
			seg(1, 3.0, 5.0),
			seg(2, 5.0, 9.5),
		},
		VideoDuration: 10,
	}
	if err := tl.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateReportsViolations(t *testing.T) {
	tests := []struct {
		name     string
		segments []TranslatedSegment
		want     string
	}{
		{
			name: "overlap",
			segments: []TranslatedSegment{
				seg(0, 0, 3),
				seg(1, 2, 4),
			},
			want: "overlaps",
		},
		{
			name: "out of order",
			segments: []TranslatedSegment{
				seg(0, 5, 6),
				seg(1, 1, 2),
			},
			want: "before previous start",
		},
		{
			name: "duration mismatch",
			segments: func() []TranslatedSegment {
				s := seg(0, 0, 3)
				s.Duration = 1
				return []TranslatedSegment{s}
			}(),
			want: "does not match duration",
		},
		{
			name: "non-positive duration",
			segments: []TranslatedSegment{
				seg(0, 2, 2),
			},
			want: "non-positive duration",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := Timeline{Segments: tt.segments}
			err := tl.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateJoinsMultipleViolations(t *testing.T) {
	tl := Timeline{Segments: []TranslatedSegment{
		seg(0, 0, 0),     // non-positive duration
		seg(1, -1, -0.5), // starts before previous, negative duration range
	}}
	err := tl.Validate()
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	msg := err.Error()
	if !strings.Contains(msg, "segment 0") || !strings.Contains(msg, "segment 1") {
		t.Errorf("joined error missing a segment: %q", msg)
	}
}

func TestSpeechSegments(t *testing.T) {
	speech := seg(0, 0, 2)
	speech.VADIsSpeech = true
	speech.Status = StatusOK

	rejected := seg(1, 2, 4)
	rejected.VADIsSpeech = false

	skipped := seg(2, 4, 6)
	skipped.VADIsSpeech = true
	skipped.Status = StatusNoSpeechVAD

	tl := Timeline{Segments: []TranslatedSegment{speech, rejected, skipped}}
	got := tl.SpeechSegments()
	if len(got) != 1 || got[0].ID != 0 {
		t.Fatalf("SpeechSegments = %+v, want only segment 0", got)
	}

	// The full timeline keeps all three; filtering never removes segments
	// from the sequence itself.
	if len(tl.Segments) != 3 {
		t.Errorf("timeline lost segments: %d", len(tl.Segments))
	}
}

func TestGenderIsValid(t *testing.T) {
	for _, g := range []Gender{GenderMale, GenderFemale} {
		if !g.IsValid() {
			t.Errorf("%q should be valid", g)
		}
	}
	if Gender("other").IsValid() {
		t.Error("unknown gender accepted")
	}
}
