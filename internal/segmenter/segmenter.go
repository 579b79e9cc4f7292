// Package segmenter splits a raw mono audio stream into time-bounded
// segments separated by detected silence.
//
// Detection parameters adapt to the total duration: long recordings use a
// longer minimum silence and a less sensitive loudness threshold so that
// slow dialogue does not shatter into fragments, short ones use tighter
// values. When silence detection cannot run at all the segmenter degrades
// to a fixed-window splitter that ignores speaker boundaries entirely:
// worse segments, but total coverage is preserved.
package segmenter

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/redubtool/redub/internal/config"
	"github.com/redubtool/redub/pkg/audio"
	"github.com/redubtool/redub/pkg/segment"
)

// analysisWindow is the loudness measurement granularity in seconds.
// Silence boundaries are resolved to this step.
const analysisWindow = 0.01

// ErrEmptyAudio is returned by silence detection when the input buffer
// holds no samples or carries no sample rate.
var ErrEmptyAudio = errors.New("segmenter: empty audio buffer")

// silenceInterval is one detected stretch of silence, in seconds.
type silenceInterval struct {
	start float64
	end   float64
}

// Segmenter splits audio into silence-bounded segments.
type Segmenter struct {
	cfg config.SegmenterConfig
}

// New creates a Segmenter with the given configuration.
func New(cfg config.SegmenterConfig) *Segmenter {
	return &Segmenter{cfg: cfg}
}

// bucket returns the silence parameters for the given total duration.
func (s *Segmenter) bucket(totalDuration float64) config.SilenceBucket {
	switch {
	case totalDuration > s.cfg.LongCutoff:
		return s.cfg.Long
	case totalDuration > s.cfg.MediumCutoff:
		return s.cfg.Medium
	default:
		return s.cfg.Short
	}
}

// Segment splits buf into ordered, non-overlapping segments. Segments are
// emitted only when they reach MinSegmentDuration; shorter spans are folded
// into the next candidate so no time is lost. If silence detection fails
// the fixed-window fallback is used instead.
func (s *Segmenter) Segment(buf audio.Buffer) []segment.AudioSegment {
	total := buf.Seconds()
	bucket := s.bucket(total)

	slog.Debug("segmenting audio",
		"duration", fmt.Sprintf("%.2fs", total),
		"min_silence", bucket.MinSilence,
		"threshold_dbfs", bucket.Threshold,
	)

	silences, err := detectSilence(buf, bucket.MinSilence, bucket.Threshold)
	if err != nil {
		slog.Warn("silence detection failed, using fixed-window fallback", "error", err)
		return s.fixedWindowSplit(total)
	}
	return s.emit(total, silences)
}

// emit walks the detected silences and produces segments from the spans
// between them.
func (s *Segmenter) emit(total float64, silences []silenceInterval) []segment.AudioSegment {
	var segs []segment.AudioSegment
	currentPos := 0.0

	appendSegment := func(start, end, silenceAfter float64) {
		segs = append(segs, segment.AudioSegment{
			ID:           len(segs),
			Start:        start,
			End:          end,
			Duration:     end - start,
			SilenceAfter: silenceAfter,
		})
	}

	for _, sil := range silences {
		if sil.start <= currentPos {
			// Leading silence, or silence inside a span we are folding
			// forward: skip past it without emitting.
			if sil.end > currentPos && currentPos == 0 {
				currentPos = sil.end
			}
			continue
		}
		span := sil.start - currentPos
		if span < s.cfg.MinSegmentDuration {
			// Too short to stand alone: fold the span and the silence
			// into the next candidate by not advancing past them.
			continue
		}
		appendSegment(currentPos, sil.start, sil.end-sil.start)
		currentPos = sil.end
	}

	// Trailing span after the last silence.
	if remaining := total - currentPos; remaining > 0 {
		if remaining >= s.cfg.MinSegmentDuration || len(segs) == 0 {
			appendSegment(currentPos, total, 0)
		} else {
			// Extend the last segment's slot rather than dropping the tail.
			last := &segs[len(segs)-1]
			last.End = total
			last.Duration = last.End - last.Start
			last.SilenceAfter = 0
		}
	}

	slog.Info("silence segmentation complete", "segments", len(segs), "duration", fmt.Sprintf("%.2fs", total))
	return segs
}

// fixedWindowSplit emits uniform chunks covering the whole duration. This
// is the correctness floor when silence detection fails: it ignores speaker
// boundaries but loses no content.
func (s *Segmenter) fixedWindowSplit(total float64) []segment.AudioSegment {
	if total <= 0 {
		return nil
	}
	window := s.cfg.FallbackWindow
	n := int(math.Ceil(total / window))
	segs := make([]segment.AudioSegment, 0, n)
	for i := range n {
		start := float64(i) * window
		end := start + window
		if end > total {
			end = total
		}
		if end <= start {
			break
		}
		segs = append(segs, segment.AudioSegment{
			ID:       i,
			Start:    start,
			End:      end,
			Duration: end - start,
		})
	}
	return segs
}

// detectSilence scans the buffer in analysisWindow steps and returns the
// intervals where loudness stays below thresholdDBFS for at least
// minSilence seconds.
func detectSilence(buf audio.Buffer, minSilence, thresholdDBFS float64) ([]silenceInterval, error) {
	if buf.SampleRate <= 0 || buf.NumSamples() == 0 {
		return nil, ErrEmptyAudio
	}

	total := buf.Seconds()
	var (
		silences   []silenceInterval
		runStart   float64
		inSilence  bool
		windowsNum = int(math.Ceil(total / analysisWindow))
	)

	for i := range windowsNum {
		start := float64(i) * analysisWindow
		end := start + analysisWindow
		quiet := buf.Slice(start, end).DBFS() < thresholdDBFS

		switch {
		case quiet && !inSilence:
			inSilence = true
			runStart = start
		case !quiet && inSilence:
			inSilence = false
			if start-runStart >= minSilence {
				silences = append(silences, silenceInterval{start: runStart, end: start})
			}
		}
	}
	if inSilence && total-runStart >= minSilence {
		silences = append(silences, silenceInterval{start: runStart, end: total})
	}
	return silences, nil
}
