// Package pipeline orchestrates a dubbing job end to end: extract the
// source audio, segment it on silences, classify and attribute the
// segments, run them through the recognition, translation, and synthesis
// engines, and reconcile the dubbed track back onto the video.
//
// Segment-level engine failures are absorbed: a failed segment becomes
// silence of its original duration and the job completes with the failure
// recorded on the segment. Only job-level failures (unreadable input,
// media tool errors) abort the run.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/redubtool/redub/internal/config"
	"github.com/redubtool/redub/internal/diarize"
	"github.com/redubtool/redub/internal/media"
	"github.com/redubtool/redub/internal/merge"
	"github.com/redubtool/redub/internal/observe"
	"github.com/redubtool/redub/internal/reconcile"
	"github.com/redubtool/redub/internal/segmenter"
	"github.com/redubtool/redub/internal/vad"
	"github.com/redubtool/redub/pkg/audio"
	"github.com/redubtool/redub/pkg/provider/recognition"
	"github.com/redubtool/redub/pkg/provider/synth"
	"github.com/redubtool/redub/pkg/provider/translate"
	"github.com/redubtool/redub/pkg/segment"
)

// Job describes one dubbing run.
type Job struct {
	ID         string
	InputPath  string
	OutputPath string
	SourceLang string
	TargetLang string

	// WorkDir holds intermediate files. When empty a temp dir is created
	// and removed when the job finishes.
	WorkDir string
}

// Result summarises a finished job.
type Result struct {
	JobID          string
	OutputPath     string
	Timeline       segment.Timeline
	VideoDuration  float64
	TrackDuration  float64
	SegmentsTotal  int
	SegmentsFailed int
	NoAudioSource  bool
	Elapsed        time.Duration
}

// Progress reports pipeline stages to an observer. Stage names are
// stable identifiers: extract, segment, classify, attribute, merge,
// synthesize, reconcile, mux.
type Progress func(stage string, done, total int)

// Pipeline wires the dubbing stages together. A Pipeline is safe to reuse
// across jobs; per-job state like speaker attribution lives only for the
// duration of one Run.
type Pipeline struct {
	cfg        config.Config
	tool       *media.Tool
	recognizer recognition.Recognizer
	translator translate.Translator
	synth      synth.Synthesizer
	metrics    *observe.Metrics
	log        *slog.Logger
	progress   Progress
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithProgress installs a progress observer.
func WithProgress(p Progress) Option {
	return func(pl *Pipeline) { pl.progress = p }
}

// WithMetrics overrides the default metrics instance.
func WithMetrics(m *observe.Metrics) Option {
	return func(pl *Pipeline) { pl.metrics = m }
}

// WithMediaTool overrides the media tool, used by tests to inject a fake
// command runner.
func WithMediaTool(t *media.Tool) Option {
	return func(pl *Pipeline) { pl.tool = t }
}

// New creates a Pipeline around the three engine providers.
func New(cfg config.Config, rec recognition.Recognizer, tr translate.Translator, sy synth.Synthesizer, log *slog.Logger, opts ...Option) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	p := &Pipeline{
		cfg:        cfg,
		tool:       media.New(cfg.Media),
		recognizer: rec,
		translator: tr,
		synth:      sy,
		metrics:    observe.DefaultMetrics(),
		log:        log,
		progress:   func(string, int, int) {},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one dubbing job.
func (p *Pipeline) Run(ctx context.Context, job Job) (Result, error) {
	start := time.Now()
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	log := p.log.With("job", job.ID, "input", job.InputPath)
	log.Info("dubbing job started", "source_lang", job.SourceLang, "target_lang", job.TargetLang)

	p.metrics.ActiveJobs.Add(ctx, 1)
	defer p.metrics.ActiveJobs.Add(ctx, -1)

	if job.WorkDir == "" {
		dir, err := os.MkdirTemp("", "redub-"+job.ID)
		if err != nil {
			return Result{}, fmt.Errorf("pipeline: work dir: %w", err)
		}
		defer os.RemoveAll(dir)
		job.WorkDir = dir
	}

	videoDur, err := p.tool.ProbeDuration(ctx, job.InputPath)
	if err != nil {
		return Result{}, fmt.Errorf("pipeline: probe input: %w", err)
	}

	hasAudio, err := p.tool.HasAudioStream(ctx, job.InputPath)
	if err != nil {
		return Result{}, fmt.Errorf("pipeline: probe streams: %w", err)
	}
	if !hasAudio {
		log.Warn("input has no audio stream, exporting video unchanged")
		if err := p.tool.ExportNoAudio(ctx, job.InputPath, job.OutputPath); err != nil {
			return Result{}, fmt.Errorf("pipeline: export without audio: %w", err)
		}
		p.metrics.MergeStrategies.Add(ctx, 1, observe.WithStrategy("no_audio"))
		return Result{
			JobID:         job.ID,
			OutputPath:    job.OutputPath,
			VideoDuration: videoDur,
			NoAudioSource: true,
			Elapsed:       time.Since(start),
		}, nil
	}

	original, err := p.extractAudio(ctx, job)
	if err != nil {
		return Result{}, err
	}
	p.progress("extract", 1, 1)

	segs := p.segmentAudio(ctx, original)
	sourceWAV := filepath.Join(job.WorkDir, "source.wav")
	for i := range segs {
		segs[i].SourceRef = sourceWAV
	}
	p.progress("segment", len(segs), len(segs))

	src := bufferProvider{buf: original}

	segs = p.classify(ctx, segs, src)
	p.progress("classify", len(segs), len(segs))

	segs = diarize.New(p.cfg.Diarize, log).Attribute(segs, src)
	for i := 1; i < len(segs); i++ {
		if segs[i].Speaker == segs[i-1].Speaker {
			continue
		}
		trigger := "duration"
		if segs[i-1].SilenceAfter > p.cfg.Diarize.LongPause {
			trigger = "pause"
		}
		p.metrics.SpeakerSwitches.Add(ctx, 1, observe.WithTrigger(trigger))
	}
	p.progress("attribute", len(segs), len(segs))

	before := len(segs)
	segs = merge.New(p.cfg.Merge, p.cfg.Segmenter.MinSegmentDuration).Merge(segs)
	if len(segs) != before {
		log.Info("merged short same-speaker segments", "before", before, "after", len(segs))
	}
	p.progress("merge", len(segs), len(segs))

	rendered := p.synthesize(ctx, job, segs, src, log)

	track, err := p.reconcileTrack(ctx, job, original, rendered, videoDur, log)
	if err != nil {
		return Result{}, err
	}

	timeline := segment.Timeline{VideoDuration: videoDur}
	failed := 0
	for _, ren := range rendered {
		timeline.Segments = append(timeline.Segments, ren.Segment)
		if ren.Segment.Status == segment.StatusError {
			failed++
		}
	}
	if err := timeline.Validate(); err != nil {
		log.Warn("timeline validation reported issues", "error", err)
	}
	if err := p.exportTimeline(job, timeline); err != nil {
		log.Warn("timeline export failed", "error", err)
	}

	res := Result{
		JobID:          job.ID,
		OutputPath:     job.OutputPath,
		Timeline:       timeline,
		VideoDuration:  videoDur,
		TrackDuration:  track.Seconds(),
		SegmentsTotal:  len(rendered),
		SegmentsFailed: failed,
		Elapsed:        time.Since(start),
	}
	log.Info("dubbing job finished",
		"segments", res.SegmentsTotal,
		"failed", res.SegmentsFailed,
		"track_s", res.TrackDuration,
		"video_s", res.VideoDuration,
		"elapsed", res.Elapsed)
	return res, nil
}

// exportTimeline writes the segment records next to the output video so
// subtitle or text-export tooling can consume them by start_time/end_time.
func (p *Pipeline) exportTimeline(job Job, timeline segment.Timeline) error {
	data, err := json.MarshalIndent(timeline, "", "  ")
	if err != nil {
		return fmt.Errorf("pipeline: marshal timeline: %w", err)
	}
	path := strings.TrimSuffix(job.OutputPath, filepath.Ext(job.OutputPath)) + ".timeline.json"
	return os.WriteFile(path, data, 0o644)
}

func (p *Pipeline) extractAudio(ctx context.Context, job Job) (audio.Buffer, error) {
	wavPath := filepath.Join(job.WorkDir, "source.wav")
	if err := p.tool.ExtractAudio(ctx, job.InputPath, wavPath); err != nil {
		return audio.Buffer{}, fmt.Errorf("pipeline: extract audio: %w", err)
	}
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("pipeline: read extracted audio: %w", err)
	}
	buf, err := audio.ParseWAV(data)
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("pipeline: parse extracted audio: %w", err)
	}
	return buf, nil
}

func (p *Pipeline) segmentAudio(ctx context.Context, original audio.Buffer) []segment.AudioSegment {
	t := time.Now()
	segs := segmenter.New(p.cfg.Segmenter).Segment(original)
	p.metrics.SegmentationDuration.Record(ctx, time.Since(t).Seconds())
	source := "silence"
	if original.NumSamples() == 0 || original.SampleRate <= 0 {
		source = "fixed_window"
	}
	p.metrics.SegmentsEmitted.Add(ctx, int64(len(segs)), observe.WithSource(source))
	return segs
}

// classify runs voice-activity classification on every segment. Segments
// rejected as non-speech keep their place in the timeline with the
// no-speech status so the reconciler renders them as silence.
func (p *Pipeline) classify(ctx context.Context, segs []segment.AudioSegment, src bufferProvider) []segment.AudioSegment {
	t := time.Now()
	classifier := vad.New(p.cfg.VAD.Threshold)
	for i := range segs {
		buf, err := src.SegmentAudio(segs[i])
		var res vad.Result
		if err != nil {
			res = vad.Failed(err)
		} else {
			res = classifier.Classify(buf)
		}
		segs[i].VADIsSpeech = res.IsSpeech
		segs[i].VADConfidence = res.Confidence
		segs[i].VADReason = res.Reason

		if !res.IsSpeech {
			p.log.Debug("segment classified as non-speech", "segment", segs[i].ID, "reason", res.Reason)
		}
		p.metrics.VADVerdicts.Add(ctx, 1, observe.WithSpeech(res.IsSpeech))
	}
	p.metrics.ClassificationDuration.Record(ctx, time.Since(t).Seconds())
	return segs
}

func (p *Pipeline) reconcileTrack(ctx context.Context, job Job, original audio.Buffer, rendered []reconcile.Rendered, videoDur float64, log *slog.Logger) (audio.Buffer, error) {
	t := time.Now()
	defer func() { p.metrics.ReconcileDuration.Record(ctx, time.Since(t).Seconds()) }()

	rec := reconcile.New(p.cfg.Reconcile, p.cfg.Media.SampleRate, log)
	track, err := rec.BuildTrack(original, rendered, videoDur)
	trackPath := filepath.Join(job.WorkDir, "dubbed.wav")
	if err == nil {
		err = os.WriteFile(trackPath, audio.EncodeWAV(track), 0o644)
	}
	if err != nil {
		// The video itself is still deliverable without the dub track.
		log.Error("dub track assembly failed, exporting video without audio", "error", err)
		if expErr := p.tool.ExportNoAudio(ctx, job.InputPath, job.OutputPath); expErr != nil {
			return audio.Buffer{}, fmt.Errorf("pipeline: no-audio export after track failure: %w", expErr)
		}
		p.metrics.MergeStrategies.Add(ctx, 1, observe.WithStrategy("no_audio"))
		p.progress("reconcile", 1, 1)
		p.progress("mux", 1, 1)
		return audio.Buffer{}, nil
	}
	p.progress("reconcile", 1, 1)

	switch p.cfg.Reconcile.Strategy {
	case config.StrategySpeedAdjust:
		adj := reconcile.NewSpeedAdjuster(p.cfg.Reconcile, p.cfg.Media.SampleRate, p.tool, log)
		if err := adj.Render(ctx, job.InputPath, rendered, videoDur, job.WorkDir, job.OutputPath); err != nil {
			return audio.Buffer{}, fmt.Errorf("pipeline: %w", err)
		}
		p.metrics.MergeStrategies.Add(ctx, 1, observe.WithStrategy("speed_adjust"))
	default:
		plan := rec.Plan(track.Seconds(), videoDur)
		if plan.PadVideo > 0 {
			if err := p.tool.MuxPadded(ctx, job.InputPath, trackPath, plan.PadVideo, job.OutputPath); err != nil {
				return audio.Buffer{}, fmt.Errorf("pipeline: mux padded: %w", err)
			}
			p.metrics.MergeStrategies.Add(ctx, 1, observe.WithStrategy("pad"))
		} else {
			if err := p.tool.MuxCopy(ctx, job.InputPath, trackPath, job.OutputPath); err != nil {
				return audio.Buffer{}, fmt.Errorf("pipeline: mux: %w", err)
			}
			p.metrics.MergeStrategies.Add(ctx, 1, observe.WithStrategy("copy"))
		}
	}
	p.progress("mux", 1, 1)
	return track, nil
}

// bufferProvider serves segment audio by slicing the extracted source
// track.
type bufferProvider struct {
	buf audio.Buffer
}

var _ diarize.AudioProvider = bufferProvider{}

func (b bufferProvider) SegmentAudio(seg segment.AudioSegment) (audio.Buffer, error) {
	if b.buf.NumSamples() == 0 {
		return audio.Buffer{}, fmt.Errorf("no source audio")
	}
	return b.buf.Slice(seg.Start, seg.End), nil
}
