// Package merge coalesces runs of short same-speaker segments so the
// synthesis stage receives fewer, longer utterances. Merging never crosses
// a speaker boundary and never reorders segments.
package merge

import (
	"github.com/redubtool/redub/internal/config"
	"github.com/redubtool/redub/pkg/segment"
)

// Merger groups adjacent same-speaker segments whose combined duration
// stays under a window derived from the minimum segment duration.
type Merger struct {
	window float64
}

// New creates a Merger. The merge window is minSegmentDuration multiplied
// by the configured window multiplier; a non-positive window disables
// merging entirely.
func New(cfg config.MergeConfig, minSegmentDuration float64) *Merger {
	return &Merger{window: cfg.WindowMultiplier * minSegmentDuration}
}

// Merge returns a new slice where adjacent same-speaker segments have been
// greedily folded together: a group keeps absorbing the next segment while
// the speaker matches and the group's duration plus the next segment's
// duration stays below the window. Input order is preserved and the input
// slice is not modified.
//
// A merged segment keeps the first member's ID, start, speaker, gender and
// voice, takes the last member's end and silence-after, sums the
// durations, averages the VAD confidence, and records the group size in
// MergedFrom. Single-segment groups pass through untouched with
// MergedFrom zero.
func (m *Merger) Merge(segs []segment.AudioSegment) []segment.AudioSegment {
	if len(segs) == 0 {
		return nil
	}

	out := make([]segment.AudioSegment, 0, len(segs))
	group := []segment.AudioSegment{segs[0]}
	groupDur := segs[0].Duration

	for _, next := range segs[1:] {
		if next.Speaker == group[0].Speaker && m.window > 0 && groupDur+next.Duration < m.window {
			group = append(group, next)
			groupDur += next.Duration
			continue
		}
		out = append(out, flatten(group, groupDur))
		group = []segment.AudioSegment{next}
		groupDur = next.Duration
	}
	out = append(out, flatten(group, groupDur))
	return out
}

func flatten(group []segment.AudioSegment, totalDur float64) segment.AudioSegment {
	if len(group) == 1 {
		return group[0]
	}

	first, last := group[0], group[len(group)-1]
	merged := first
	merged.End = last.End
	merged.Duration = totalDur
	merged.SilenceAfter = last.SilenceAfter
	merged.MergedFrom = len(group)

	var confidence float64
	speech := false
	for _, g := range group {
		confidence += g.VADConfidence
		if g.VADIsSpeech {
			speech = true
		}
	}
	merged.VADConfidence = confidence / float64(len(group))
	merged.VADIsSpeech = speech
	return merged
}
