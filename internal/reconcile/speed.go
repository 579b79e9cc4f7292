package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/redubtool/redub/internal/config"
	"github.com/redubtool/redub/internal/media"
	"github.com/redubtool/redub/pkg/audio"
)

// clipStep is one planned cut of the source video. Retime is the setpts
// factor applied to the clip; 1 leaves it untouched. Audio is the dubbed
// audio laid over the clip; empty plays as silence.
type clipStep struct {
	Start  float64
	Dur    float64
	Retime float64
	Audio  audio.Buffer
}

// SpeedAdjuster implements the speed-adjust strategy: instead of padding
// the video once at the end, each speech clip is individually retimed so
// its picture lasts as long as its dubbed audio. Non-speech spans pass
// through at normal speed when configured to; otherwise they are dropped
// entirely, picture and all, producing a condensed speech-only video.
type SpeedAdjuster struct {
	cfg        config.ReconcileConfig
	sampleRate int
	tool       *media.Tool
	log        *slog.Logger
}

// NewSpeedAdjuster creates a SpeedAdjuster producing PCM at the given
// sample rate with the given media tool.
func NewSpeedAdjuster(cfg config.ReconcileConfig, sampleRate int, tool *media.Tool, log *slog.Logger) *SpeedAdjuster {
	if log == nil {
		log = slog.Default()
	}
	return &SpeedAdjuster{cfg: cfg, sampleRate: sampleRate, tool: tool, log: log}
}

// Render cuts the source video into clips following the plan, retimes the
// speech clips to their synthesized durations, and concatenates everything
// in chronological order. The dubbed track is assembled clip by clip in
// the same order, so its layout mirrors the concatenated video exactly:
// each speech clip carries its own synthesized audio and every kept span
// carries silence of its clip's length. Intermediate files are written
// under workDir.
func (s *SpeedAdjuster) Render(ctx context.Context, videoPath string, rendered []Rendered, videoDuration float64, workDir, output string) error {
	steps := s.plan(rendered, videoDuration)
	if len(steps) == 0 {
		return fmt.Errorf("speed adjust: no clips to render")
	}

	track := audio.Silence(0, s.sampleRate)
	clips := make([]string, 0, len(steps))
	for i, step := range steps {
		clip := filepath.Join(workDir, fmt.Sprintf("clip_%03d.mp4", i))
		if err := s.tool.ExtractClip(ctx, videoPath, step.Start, step.Dur, clip); err != nil {
			return fmt.Errorf("speed adjust: extract clip %d: %w", i, err)
		}

		if step.Retime != 1 {
			retimed := filepath.Join(workDir, fmt.Sprintf("clip_%03d_retimed.mp4", i))
			if err := s.tool.RetimeClip(ctx, clip, step.Retime, retimed); err != nil {
				return fmt.Errorf("speed adjust: retime clip %d: %w", i, err)
			}
			clip = retimed
		}
		clips = append(clips, clip)
		track = track.Append(s.clipAudio(step))
	}

	trackPath := filepath.Join(workDir, "speed_track.wav")
	if err := os.WriteFile(trackPath, audio.EncodeWAV(track), 0o644); err != nil {
		return fmt.Errorf("speed adjust: write track: %w", err)
	}

	if err := s.tool.ConcatClips(ctx, clips, trackPath, output); err != nil {
		return fmt.Errorf("speed adjust: concat: %w", err)
	}
	return nil
}

// plan turns the segment timeline into an ordered clip list. Only
// successfully synthesized speech segments become clips, each with a
// retime factor bounded so the picture never slows below the minimum
// speed ratio; factors inside the deadband count as 1. Everything else,
// gaps and non-speech segments alike, becomes a normal-speed span when
// non-speech spans are kept and is omitted when they are not.
func (s *SpeedAdjuster) plan(rendered []Rendered, videoDuration float64) []clipStep {
	var steps []clipStep
	cursor := 0.0

	appendSpan := func(from, to float64) {
		if s.cfg.KeepNonSpeech && to-from > 1e-6 {
			steps = append(steps, clipStep{Start: from, Dur: to - from, Retime: 1})
		}
	}

	for _, ren := range rendered {
		seg := ren.Segment
		if !seg.Success || !seg.VADIsSpeech || seg.SynthesizedDuration <= 0 || seg.Duration <= 0 {
			continue
		}
		appendSpan(cursor, seg.Start)
		steps = append(steps, clipStep{
			Start:  seg.Start,
			Dur:    seg.Duration,
			Retime: s.retimeFactor(seg.Duration, seg.SynthesizedDuration),
			Audio:  ren.Audio,
		})
		cursor = seg.End
	}

	appendSpan(cursor, videoDuration)
	return steps
}

// clipAudio returns the audio occupying one planned clip's slot. The slot
// is the clip's retimed duration; synthesized audio shorter than the slot
// is padded with trailing silence, longer audio is kept whole rather than
// cut.
func (s *SpeedAdjuster) clipAudio(step clipStep) audio.Buffer {
	slot := step.Dur * step.Retime
	if step.Audio.NumSamples() == 0 {
		return audio.Silence(slot, s.sampleRate)
	}
	buf := step.Audio
	if pad := slot - buf.Seconds(); pad > 0 {
		buf = buf.Append(audio.Silence(pad, s.sampleRate))
	}
	return buf
}

// retimeFactor maps original and synthesized durations to a setpts factor.
func (s *SpeedAdjuster) retimeFactor(originalDur, synthDur float64) float64 {
	speed := originalDur / synthDur
	if speed < s.cfg.MinSpeedRatio {
		speed = s.cfg.MinSpeedRatio
	}
	factor := 1 / speed
	if factor > 1-s.cfg.SpeedAdjustDeadband && factor < 1+s.cfg.SpeedAdjustDeadband {
		return 1
	}
	return factor
}
