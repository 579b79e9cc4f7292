package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/redubtool/redub/internal/config"
)

// Tool exposes the media operations the dubbing pipeline needs. All paths
// are filesystem paths; audio is always mono 16-bit PCM at the configured
// sample rate.
type Tool struct {
	cfg    config.MediaConfig
	runner Runner
}

// New creates a Tool running real commands.
func New(cfg config.MediaConfig) *Tool {
	return NewWithRunner(cfg, ExecRunner{})
}

// NewWithRunner creates a Tool with a custom Runner.
func NewWithRunner(cfg config.MediaConfig, r Runner) *Tool {
	return &Tool{cfg: cfg, runner: r}
}

func (t *Tool) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if t.cfg.CommandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.CommandTimeout)
		defer cancel()
	}
	return t.runner.Run(ctx, name, args...)
}

func (t *Tool) ffmpeg(ctx context.Context, args ...string) error {
	full := append([]string{"-hide_banner", "-loglevel", "error", "-y"}, args...)
	_, err := t.run(ctx, t.cfg.FFmpegPath, full...)
	return err
}

// ExtractAudio demuxes and resamples the input's audio track to a mono
// 16-bit WAV at the configured sample rate.
func (t *Tool) ExtractAudio(ctx context.Context, input, output string) error {
	return t.ffmpeg(ctx,
		"-i", input,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", strconv.Itoa(t.cfg.SampleRate),
		output,
	)
}

// ProbeDuration returns the container duration of a media file in seconds.
func (t *Tool) ProbeDuration(ctx context.Context, input string) (float64, error) {
	out, err := t.run(ctx, t.cfg.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		input,
	)
	if err != nil {
		return 0, err
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("probe %s: unparseable duration %q: %w", input, strings.TrimSpace(string(out)), err)
	}
	return dur, nil
}

// HasAudioStream reports whether the input carries at least one audio
// stream. Inputs without one degrade to video-only processing upstream.
func (t *Tool) HasAudioStream(ctx context.Context, input string) (bool, error) {
	out, err := t.run(ctx, t.cfg.FFprobePath,
		"-v", "error",
		"-select_streams", "a",
		"-show_entries", "stream=codec_type",
		"-of", "default=noprint_wrappers=1:nokey=1",
		input,
	)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(string(out)) != "", nil
}

// MuxCopy replaces the input video's audio with the given track, copying
// the video stream untouched. Neither stream is cut: ffmpeg runs without
// -shortest, so the output lasts as long as the longer input.
func (t *Tool) MuxCopy(ctx context.Context, video, audioTrack, output string) error {
	return t.ffmpeg(ctx,
		"-i", video,
		"-i", audioTrack,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", t.cfg.AudioCodec,
		"-b:a", t.cfg.AudioBitrate,
		output,
	)
}

// MuxPadded muxes like MuxCopy but first extends the video by padDur
// seconds, cloning the final frame so the picture holds while the longer
// dubbed audio finishes. The video is re-encoded because tpad cannot work
// on a copied stream.
func (t *Tool) MuxPadded(ctx context.Context, video, audioTrack string, padDur float64, output string) error {
	return t.ffmpeg(ctx,
		"-i", video,
		"-i", audioTrack,
		"-filter_complex", fmt.Sprintf("[0:v]tpad=stop_mode=clone:stop_duration=%.3f[v]", padDur),
		"-map", "[v]",
		"-map", "1:a:0",
		"-c:v", t.cfg.VideoCodec,
		"-c:a", t.cfg.AudioCodec,
		"-b:a", t.cfg.AudioBitrate,
		output,
	)
}

// ExtractClip cuts [start, start+dur) out of the input video without its
// audio track.
func (t *Tool) ExtractClip(ctx context.Context, input string, start, dur float64, output string) error {
	return t.ffmpeg(ctx,
		"-ss", formatSeconds(start),
		"-i", input,
		"-t", formatSeconds(dur),
		"-an",
		"-c:v", t.cfg.VideoCodec,
		output,
	)
}

// RetimeClip stretches or squeezes a clip's presentation timestamps by the
// given factor. factor > 1 slows the clip down, factor < 1 speeds it up.
func (t *Tool) RetimeClip(ctx context.Context, input string, factor float64, output string) error {
	return t.ffmpeg(ctx,
		"-i", input,
		"-filter:v", fmt.Sprintf("setpts=%.6f*PTS", factor),
		"-an",
		"-c:v", t.cfg.VideoCodec,
		output,
	)
}

// ConcatClips joins the clips in order using the concat demuxer, then
// muxes the audio track over the result. The clip list is written next to
// the output file and removed afterwards.
func (t *Tool) ConcatClips(ctx context.Context, clips []string, audioTrack, output string) error {
	if len(clips) == 0 {
		return fmt.Errorf("concat: no clips")
	}

	listPath := filepath.Join(filepath.Dir(output), "concat_list.txt")
	var sb strings.Builder
	for _, c := range clips {
		abs, err := filepath.Abs(c)
		if err != nil {
			return fmt.Errorf("concat: resolve %s: %w", c, err)
		}
		fmt.Fprintf(&sb, "file '%s'\n", abs)
	}
	if err := os.WriteFile(listPath, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("concat: write list: %w", err)
	}
	defer os.Remove(listPath)

	return t.ffmpeg(ctx,
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-i", audioTrack,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", t.cfg.AudioCodec,
		"-b:a", t.cfg.AudioBitrate,
		output,
	)
}

// ExportNoAudio copies the input's video stream into the output with no
// audio at all. Used when the source has no audio track to dub.
func (t *Tool) ExportNoAudio(ctx context.Context, input, output string) error {
	return t.ffmpeg(ctx,
		"-i", input,
		"-an",
		"-c:v", "copy",
		output,
	)
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
