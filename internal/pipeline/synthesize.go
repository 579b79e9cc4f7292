package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/redubtool/redub/internal/observe"
	"github.com/redubtool/redub/internal/reconcile"
	"github.com/redubtool/redub/pkg/audio"
	"github.com/redubtool/redub/pkg/provider/synth"
	"github.com/redubtool/redub/pkg/segment"
)

// synthesize runs every speech segment through the recognise, translate,
// synthesise chain and returns the rendered results in timeline order.
// Segments run concurrently up to the configured worker count. Failures
// never abort the job: a failed segment carries the error status and no
// audio, which the reconciler turns into silence of the original duration.
func (p *Pipeline) synthesize(ctx context.Context, job Job, segs []segment.AudioSegment, src bufferProvider, log *slog.Logger) []reconcile.Rendered {
	rendered := make([]reconcile.Rendered, len(segs))

	workers := p.cfg.Synthesis.Workers
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range segs {
		g.Go(func() error {
			rendered[i] = p.renderSegment(gctx, job, segs[i], src, log)
			return nil
		})
	}
	// Workers absorb their own failures, so Wait only flushes them.
	_ = g.Wait()

	p.progress("synthesize", len(segs), len(segs))
	return rendered
}

// renderSegment processes a single segment through the engine chain.
func (p *Pipeline) renderSegment(ctx context.Context, job Job, seg segment.AudioSegment, src bufferProvider, log *slog.Logger) reconcile.Rendered {
	out := reconcile.Rendered{Segment: segment.TranslatedSegment{AudioSegment: seg}}

	if !seg.VADIsSpeech {
		out.Segment.Status = segment.StatusNoSpeechVAD
		return out
	}

	start := time.Now()
	defer func() { p.metrics.SynthesisDuration.Record(ctx, time.Since(start).Seconds()) }()

	fail := func(stage string, err error) reconcile.Rendered {
		log.Warn("segment failed, rendering as silence", "segment", seg.ID, "stage", stage, "error", err)
		p.metrics.SegmentErrors.Add(ctx, 1, observe.WithStage(stage))
		out.Segment.Status = segment.StatusError
		out.Segment.Success = false
		return out
	}

	buf, err := src.SegmentAudio(seg)
	if err != nil {
		return fail("extract", err)
	}

	transcript, err := p.recognizer.Transcribe(ctx, audio.EncodeWAV(buf), job.SourceLang)
	if err != nil {
		p.metrics.ProviderErrors.Add(ctx, 1, observe.WithProvider("recognition", "transcribe"))
		return fail("transcribe", err)
	}
	out.Segment.OriginalText = transcript
	if strings.TrimSpace(transcript) == "" {
		log.Debug("recogniser found no speech", "segment", seg.ID)
		out.Segment.Status = segment.StatusNoSpeech
		return out
	}

	translated, err := p.translator.Translate(ctx, transcript, job.SourceLang, job.TargetLang)
	if err != nil {
		p.metrics.ProviderErrors.Add(ctx, 1, observe.WithProvider("translate", "translate"))
		return fail("translate", err)
	}
	out.Segment.TranslatedText = translated

	res, err := p.synth.Synthesize(ctx, synth.Request{
		Text:     translated,
		VoiceID:  seg.VoiceID,
		Language: job.TargetLang,
	})
	if err != nil {
		p.metrics.ProviderErrors.Add(ctx, 1, observe.WithProvider("synth", "synthesize"))
		return fail("synthesize", err)
	}

	synthBuf, err := audio.ParseWAV(res.WAV)
	if err != nil {
		return fail("decode", fmt.Errorf("synthesized audio: %w", err))
	}

	ref := filepath.Join(job.WorkDir, fmt.Sprintf("synth_%04d.wav", seg.ID))
	if err := os.WriteFile(ref, res.WAV, 0o644); err != nil {
		log.Warn("could not persist synthesized segment", "segment", seg.ID, "error", err)
		ref = ""
	}

	dur := res.Duration
	if dur <= 0 {
		dur = synthBuf.Seconds()
	}

	out.Audio = synthBuf
	out.Segment.SynthesizedRef = ref
	out.Segment.SynthesizedDuration = dur
	out.Segment.Success = true
	out.Segment.Status = segment.StatusOK
	return out
}
