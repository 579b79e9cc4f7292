package reconcile

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/redubtool/redub/internal/config"
	"github.com/redubtool/redub/internal/media"
	"github.com/redubtool/redub/pkg/audio"
	"github.com/redubtool/redub/pkg/segment"
)

func newAdjuster(cfg config.ReconcileConfig) *SpeedAdjuster {
	return NewSpeedAdjuster(cfg, testRate, nil, nil)
}

func TestSpeedPlanRetimesSpeechToSynthDuration(t *testing.T) {
	cfg := config.Default().Reconcile
	s := newAdjuster(cfg)

	// 2s of original speech dubbed with 3s of synth: the clip slows by
	// factor 1.5 so the picture lasts as long as the audio.
	rendered := []Rendered{okSegment(0, 0, 2.0, 3.0)}
	steps := s.plan(rendered, 2.0)

	if len(steps) != 1 {
		t.Fatalf("got %d steps, want 1: %+v", len(steps), steps)
	}
	if math.Abs(steps[0].Retime-1.5) > 1e-9 {
		t.Errorf("retime factor = %g, want 1.5", steps[0].Retime)
	}
}

func TestSpeedPlanDeadband(t *testing.T) {
	cfg := config.Default().Reconcile
	s := newAdjuster(cfg)

	// 2s original vs 2.05s synth: the 2.5% stretch sits inside the 5%
	// deadband, so the clip passes through untouched.
	rendered := []Rendered{okSegment(0, 0, 2.0, 2.05)}
	steps := s.plan(rendered, 2.0)

	if steps[0].Retime != 1 {
		t.Errorf("retime factor = %g, want 1 inside the deadband", steps[0].Retime)
	}
}

func TestSpeedPlanClampsMinimumSpeed(t *testing.T) {
	cfg := config.Default().Reconcile
	s := newAdjuster(cfg)

	// 1s original vs 100s synth would slow the clip 100x; the minimum
	// speed ratio of 0.1 caps the stretch at 10x.
	rendered := []Rendered{okSegment(0, 0, 1.0, 100.0)}
	steps := s.plan(rendered, 1.0)

	if math.Abs(steps[0].Retime-10) > 1e-9 {
		t.Errorf("retime factor = %g, want clamped to 10", steps[0].Retime)
	}
}

func TestSpeedPlanKeepsNonSpeechSpans(t *testing.T) {
	cfg := config.Default().Reconcile
	s := newAdjuster(cfg)

	// Speech [2,4] inside a 10s video with KeepNonSpeech on: pre-roll,
	// the speech clip, and the tail all appear, in order.
	rendered := []Rendered{okSegment(0, 2.0, 4.0, 2.0)}
	steps := s.plan(rendered, 10.0)

	if len(steps) != 3 {
		t.Fatalf("got %d steps, want pre-roll + speech + tail: %+v", len(steps), steps)
	}
	if steps[0].Start != 0 || steps[0].Dur != 2.0 || steps[0].Retime != 1 {
		t.Errorf("pre-roll step = %+v", steps[0])
	}
	if steps[1].Start != 2.0 || steps[1].Dur != 2.0 {
		t.Errorf("speech step = %+v", steps[1])
	}
	if steps[2].Start != 4.0 || steps[2].Dur != 6.0 || steps[2].Retime != 1 {
		t.Errorf("tail step = %+v", steps[2])
	}
}

func TestSpeedPlanDropsNonSpeechSpansWhenDisabled(t *testing.T) {
	cfg := config.Default().Reconcile
	cfg.KeepNonSpeech = false
	s := newAdjuster(cfg)

	rendered := []Rendered{okSegment(0, 2.0, 4.0, 2.0)}
	steps := s.plan(rendered, 10.0)

	if len(steps) != 1 {
		t.Fatalf("got %d steps, want only the speech clip: %+v", len(steps), steps)
	}
	if steps[0].Start != 2.0 {
		t.Errorf("speech step = %+v", steps[0])
	}
}

func TestSpeedPlanLowConfidenceSegmentNotRetimed(t *testing.T) {
	cfg := config.Default().Reconcile
	s := newAdjuster(cfg)

	// A VAD-rejected segment keeps its original pacing: its picture plays
	// at normal speed as an unretimed span carrying silence.
	rendered := []Rendered{
		okSegment(0, 0, 2.0, 4.0),
		silentSegment(1, 2.0, 4.0, segment.StatusNoSpeechVAD),
	}
	steps := s.plan(rendered, 4.0)

	if len(steps) != 2 {
		t.Fatalf("got %d steps, want 2: %+v", len(steps), steps)
	}
	if steps[0].Retime == 1 {
		t.Errorf("speech clip not retimed: %+v", steps[0])
	}
	if steps[1].Retime != 1 {
		t.Errorf("non-speech span retimed: %+v", steps[1])
	}
	if steps[1].Start != 2.0 || steps[1].Dur != 2.0 {
		t.Errorf("non-speech span = %+v, want its original [2,4] slot", steps[1])
	}
}

func TestSpeedPlanExcludesNonSpeechSegmentsWhenDisabled(t *testing.T) {
	// Low-confidence segment between two speech segments with non-speech
	// spans disabled: its picture is cut from the condensed video just
	// like an untagged gap would be.
	cfg := config.Default().Reconcile
	cfg.KeepNonSpeech = false
	s := newAdjuster(cfg)

	rendered := []Rendered{
		okSegment(0, 0, 2.0, 2.0),
		silentSegment(1, 2.0, 4.0, segment.StatusNoSpeechVAD),
		okSegment(2, 4.0, 6.0, 2.0),
	}
	steps := s.plan(rendered, 6.0)

	if len(steps) != 2 {
		t.Fatalf("got %d steps, want only the two speech clips: %+v", len(steps), steps)
	}
	if steps[0].Start != 0 || steps[1].Start != 4.0 {
		t.Errorf("speech clips at %g and %g, want 0 and 4", steps[0].Start, steps[1].Start)
	}
}

func TestSpeedClipAudioMirrorsClipLayout(t *testing.T) {
	cfg := config.Default().Reconcile
	s := newAdjuster(cfg)

	// A span carries silence of its full length.
	span := clipStep{Start: 0, Dur: 2.0, Retime: 1}
	if buf := s.clipAudio(span); buf.Seconds() != 2.0 || buf.RMS() != 0 {
		t.Errorf("span audio = %gs RMS %g, want 2s of silence", buf.Seconds(), buf.RMS())
	}

	// A deadbanded speech clip keeps its slightly short synth and is
	// padded to the slot.
	speech := clipStep{Start: 2.0, Dur: 2.0, Retime: 1, Audio: tone(1.9)}
	buf := s.clipAudio(speech)
	if math.Abs(buf.Seconds()-2.0) > 1e-3 {
		t.Errorf("speech slot audio = %gs, want padded to 2s", buf.Seconds())
	}
	if rms := buf.Slice(0, 1.8).RMS(); rms < 0.1 {
		t.Errorf("synth audio missing from its slot, RMS %g", rms)
	}

	// Audio longer than the slot is never cut.
	long := clipStep{Start: 4.0, Dur: 2.0, Retime: 1, Audio: tone(2.1)}
	if buf := s.clipAudio(long); math.Abs(buf.Seconds()-2.1) > 1e-3 {
		t.Errorf("overlong audio = %gs, want kept at 2.1s", buf.Seconds())
	}
}

// scriptRunner records every subprocess invocation and reports success.
type scriptRunner struct {
	commands []string
}

func (r *scriptRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.commands = append(r.commands, name+" "+strings.Join(args, " "))
	return nil, nil
}

func TestSpeedRenderAttachesPerClipAudio(t *testing.T) {
	cfg := config.Default().Reconcile
	runner := &scriptRunner{}
	tool := media.NewWithRunner(config.Default().Media, runner)
	s := NewSpeedAdjuster(cfg, testRate, tool, nil)

	workDir := t.TempDir()
	rendered := []Rendered{
		okSegment(0, 1.0, 3.0, 2.0),
		okSegment(1, 4.0, 6.0, 3.0),
	}
	err := s.Render(context.Background(), "in.mp4", rendered, 7.0, workDir, filepath.Join(workDir, "out.mp4"))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(workDir, "speed_track.wav"))
	if err != nil {
		t.Fatalf("dubbed track not written: %v", err)
	}
	track, err := audio.ParseWAV(data)
	if err != nil {
		t.Fatalf("dubbed track unreadable: %v", err)
	}

	// Clip layout: 1s span + 2s synth + 1s span + 3s retimed slot + 1s
	// tail. The track mirrors it exactly.
	if got := track.Seconds(); math.Abs(got-8.0) > 0.01 {
		t.Errorf("track = %gs, want 8.0 matching the clip layout", got)
	}
	if rms := track.Slice(0, 0.9).RMS(); rms != 0 {
		t.Errorf("pre-roll span carries audio, RMS %g", rms)
	}
	if rms := track.Slice(1.1, 2.9).RMS(); rms < 0.1 {
		t.Errorf("first clip missing its synth audio, RMS %g", rms)
	}
	if rms := track.Slice(4.1, 6.9).RMS(); rms < 0.1 {
		t.Errorf("retimed clip missing its synth audio, RMS %g", rms)
	}

	concat := runner.commands[len(runner.commands)-1]
	if !strings.Contains(concat, "speed_track.wav") {
		t.Errorf("concat does not attach the per-clip track: %s", concat)
	}
}

func TestSpeedPlanStaysChronological(t *testing.T) {
	cfg := config.Default().Reconcile
	s := newAdjuster(cfg)

	rendered := []Rendered{
		okSegment(0, 1.0, 3.0, 5.0),
		okSegment(1, 4.0, 6.0, 1.0),
		okSegment(2, 7.0, 9.0, 2.0),
	}
	steps := s.plan(rendered, 10.0)

	prevEnd := 0.0
	for i, st := range steps {
		if st.Start < prevEnd-1e-9 {
			t.Fatalf("step %d out of order: %+v", i, steps)
		}
		prevEnd = st.Start + st.Dur
	}
	// Coverage runs to the end of the video.
	last := steps[len(steps)-1]
	if got := last.Start + last.Dur; math.Abs(got-10.0) > 1e-9 {
		t.Errorf("coverage ends at %g, want 10", got)
	}
}
