// Package reconcile assembles the final dubbed audio track and decides how
// it is married back to the video. The governing rule is that content is
// never thrown away: video frames are never cut and dubbed audio is never
// truncated. When the two disagree in length, the shorter side is padded.
package reconcile

import (
	"fmt"
	"log/slog"

	"github.com/redubtool/redub/internal/config"
	"github.com/redubtool/redub/pkg/audio"
	"github.com/redubtool/redub/pkg/segment"
)

// Rendered pairs a translated segment with its synthesized audio. For
// non-speech and failed segments Audio is empty and the reconciler
// substitutes silence of the segment's original duration.
type Rendered struct {
	Segment segment.TranslatedSegment
	Audio   audio.Buffer
}

// Reconciler builds the dubbed track for the global-track strategy and
// plans the final mux for both strategies.
type Reconciler struct {
	cfg        config.ReconcileConfig
	sampleRate int
	log        *slog.Logger
}

// New creates a Reconciler producing PCM at the given sample rate.
func New(cfg config.ReconcileConfig, sampleRate int, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{cfg: cfg, sampleRate: sampleRate, log: log}
}

// BuildTrack assembles the complete dubbed audio track from rendered
// segments in timeline order. Each segment's audio is placed no earlier
// than its original start time: the gap inserted before it is the distance
// from the running track position to the segment's start, so a short
// synthesis never pulls later segments forward, and a long one pushes the
// rest of the track back without overlap. A first segment starting at
// zero gets probed leading silence instead. The track is topped up with
// trailing silence to the video duration. Non-speech and failed segments
// occupy their original span as silence, so the output timeline stays
// aligned with the input even when individual segments produced nothing.
func (r *Reconciler) BuildTrack(original audio.Buffer, rendered []Rendered, videoDuration float64) (audio.Buffer, error) {
	if r.sampleRate <= 0 {
		return audio.Buffer{}, fmt.Errorf("reconcile: invalid sample rate %d", r.sampleRate)
	}

	track := audio.Silence(r.leadingSilence(original, rendered), r.sampleRate)

	for _, ren := range rendered {
		if gap := ren.Segment.Start - track.Seconds(); gap > 0 {
			track = track.Append(audio.Silence(gap, r.sampleRate))
		}
		track = track.Append(r.segmentAudio(ren))
	}

	if trailing := videoDuration - track.Seconds(); trailing > 0 {
		track = track.Append(audio.Silence(trailing, r.sampleRate))
	}

	if track.DBFS() < r.cfg.FinalTrackDBFS {
		r.log.Debug("raising final track level", "from_dbfs", track.DBFS(), "to_dbfs", r.cfg.FinalTrackDBFS)
		track = track.NormalizeTo(r.cfg.FinalTrackDBFS)
	}
	return track, nil
}

// segmentAudio resolves one rendered segment to the PCM it contributes.
func (r *Reconciler) segmentAudio(ren Rendered) audio.Buffer {
	seg := ren.Segment
	if !seg.Success || ren.Audio.NumSamples() == 0 {
		return audio.Silence(seg.Duration, r.sampleRate)
	}

	buf := ren.Audio
	if buf.DBFS() < r.cfg.QuietSegmentDBFS {
		r.log.Warn("synthesized segment unusually quiet, normalizing",
			"segment", seg.ID, "dbfs", buf.DBFS())
		buf = buf.NormalizeTo(r.cfg.FinalTrackDBFS)
	}
	return buf
}

// leadingSilence measures how long the original audio stays quiet before
// the first speech. The probe only runs when the first segment claims to
// start at time zero; a segment with detected lead-in silence already has
// its offset and the gap insertion in BuildTrack covers it. The probe
// walks fixed windows from the start and stops at the start of the first
// one whose level reaches the speech threshold, or at the probe limit.
// The result is quantized to window starts, so a voice onset mid-window
// shortens the lead by up to one window and the dub starts that much
// early; never late, so no speech is ever covered.
func (r *Reconciler) leadingSilence(original audio.Buffer, rendered []Rendered) float64 {
	if len(rendered) == 0 || rendered[0].Segment.Start > 1e-6 {
		return 0
	}
	if original.NumSamples() == 0 {
		return 0
	}

	window := r.cfg.LeadProbeWindow
	if window <= 0 {
		return 0
	}
	limit := r.cfg.LeadProbeLimit
	if total := original.Seconds(); limit > total {
		limit = total
	}

	for pos := 0.0; pos < limit; pos += window {
		if original.Slice(pos, pos+window).DBFS() >= r.cfg.SpeechLevelDBFS {
			return pos
		}
	}
	return limit
}

// Plan describes how the dubbed track and the video are combined.
type Plan struct {
	// PadVideo is how many seconds of cloned-frame padding the video
	// needs so the longer audio fits. Zero means a straight mux.
	PadVideo float64
}

// Plan compares the dubbed track duration against the video duration and
// decides the mux. Differences within the tolerance mux directly. A longer
// audio track pads the video tail; a longer video muxes directly and the
// audio simply ends early. Nothing is ever trimmed.
func (r *Reconciler) Plan(audioDuration, videoDuration float64) Plan {
	diff := audioDuration - videoDuration
	if diff <= r.cfg.DurationTolerance {
		if diff < -r.cfg.DurationTolerance {
			r.log.Info("video outlasts dubbed audio, keeping full video",
				"audio_s", audioDuration, "video_s", videoDuration)
		}
		return Plan{}
	}
	r.log.Info("dubbed audio outlasts video, padding final frame",
		"audio_s", audioDuration, "video_s", videoDuration, "pad_s", diff)
	return Plan{PadVideo: diff}
}
