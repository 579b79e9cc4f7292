// Package config provides the configuration schema, defaults, and YAML
// loader for the redub dubbing pipeline.
//
// Every empirically chosen threshold in the pipeline (silence duration
// buckets, the 3 s long-pause rule, the 60 s long-segment rule, loudness
// floors) lives here as a named, overridable default rather than a literal
// buried in a component. The values were tuned against real dialogue
// footage; do not "improve" them without re-validating against recordings.
package config

import "time"

// LogLevel controls log verbosity for the redub pipeline.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// MergeStrategy selects the final audio/video reconciliation stage.
type MergeStrategy string

const (
	// StrategyGlobalTrack rebuilds one continuous audio track on the
	// original timeline and applies a single global duration correction.
	StrategyGlobalTrack MergeStrategy = "global_track"

	// StrategySpeedAdjust retimes each video sub-clip independently to its
	// re-synthesised audio and concatenates the clips.
	StrategySpeedAdjust MergeStrategy = "speed_adjust"
)

// IsValid reports whether m is a recognised merge strategy.
func (m MergeStrategy) IsValid() bool {
	return m == StrategyGlobalTrack || m == StrategySpeedAdjust
}

// Config is the root configuration structure for redub, typically loaded
// from a YAML file with [Load].
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Media     MediaConfig     `yaml:"media"`
	Segmenter SegmenterConfig `yaml:"segmenter"`
	VAD       VADConfig       `yaml:"vad"`
	Diarize   DiarizeConfig   `yaml:"diarize"`
	Merge     MergeConfig     `yaml:"merge"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Synthesis SynthesisConfig `yaml:"synthesis"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	// Level controls verbosity. Default: info.
	Level LogLevel `yaml:"level"`

	// JSON switches the handler to JSON output for log collection.
	JSON bool `yaml:"json"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	// ListenAddr is the address the /metrics endpoint listens on.
	// Empty disables the endpoint.
	ListenAddr string `yaml:"listen_addr"`
}

// MediaConfig holds the parameters handed to the ffmpeg-based muxing
// collaborator and the subprocess execution limits.
type MediaConfig struct {
	// FFmpegPath and FFprobePath name the binaries to invoke; bare names
	// resolve via $PATH.
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`

	// VideoCodec, AudioCodec, and AudioBitrate are the target encode
	// parameters for the final video.
	VideoCodec   string `yaml:"video_codec"`
	AudioCodec   string `yaml:"audio_codec"`
	AudioBitrate string `yaml:"audio_bitrate"`

	// SampleRate is the PCM rate the dubbing track is extracted at.
	SampleRate int `yaml:"sample_rate"`

	// CommandTimeout bounds each ffmpeg/ffprobe invocation.
	CommandTimeout time.Duration `yaml:"command_timeout"`
}

// SilenceBucket pairs the silence-detection parameters used for one total
// duration range.
type SilenceBucket struct {
	// MinSilence is the shortest gap that counts as a silence boundary.
	MinSilence float64 `yaml:"min_silence"`

	// Threshold is the dBFS level below which audio counts as silent.
	Threshold float64 `yaml:"threshold"`
}

// SegmenterConfig holds silence segmentation parameters. The three buckets
// make detection less sensitive on long recordings, where slow dialogue
// would otherwise shatter into fragments.
type SegmenterConfig struct {
	// Long applies to audio over LongCutoff seconds, Medium over
	// MediumCutoff, Short to everything else.
	Long   SilenceBucket `yaml:"long"`
	Medium SilenceBucket `yaml:"medium"`
	Short  SilenceBucket `yaml:"short"`

	// LongCutoff and MediumCutoff are the bucket boundaries in seconds.
	LongCutoff   float64 `yaml:"long_cutoff"`
	MediumCutoff float64 `yaml:"medium_cutoff"`

	// MinSegmentDuration is the shortest segment worth emitting; shorter
	// spans are folded into the next candidate.
	MinSegmentDuration float64 `yaml:"min_segment_duration"`

	// FallbackWindow is the uniform chunk length used by the fixed-window
	// splitter when silence detection fails.
	FallbackWindow float64 `yaml:"fallback_window"`
}

// VADConfig holds voice activity classification parameters.
type VADConfig struct {
	// Threshold is the combined score at or above which a segment counts
	// as speech. Range [0,1].
	Threshold float64 `yaml:"threshold"`
}

// DiarizeConfig holds speaker attribution parameters.
type DiarizeConfig struct {
	// LongPause is the silence length in seconds that triggers a speaker
	// switch.
	LongPause float64 `yaml:"long_pause"`

	// LongSegment is the segment duration in seconds that suggests a
	// monologue takeover and triggers a speaker switch.
	LongSegment float64 `yaml:"long_segment"`

	// MaleVoices and FemaleVoices are the fixed per-gender synthesis voice
	// pools assigned round-robin per speaker.
	MaleVoices   []string `yaml:"male_voices"`
	FemaleVoices []string `yaml:"female_voices"`
}

// MergeConfig holds segment merging parameters.
type MergeConfig struct {
	// WindowMultiplier scales the segmenter's MinSegmentDuration into the
	// merge window: groups grow while their duration stays under
	// WindowMultiplier x MinSegmentDuration.
	WindowMultiplier float64 `yaml:"window_multiplier"`
}

// ReconcileConfig holds timeline reconciliation parameters.
type ReconcileConfig struct {
	// Strategy selects the final reconciliation stage.
	Strategy MergeStrategy `yaml:"strategy"`

	// DurationTolerance is the audio/video duration difference below which
	// the tracks are muxed directly.
	DurationTolerance float64 `yaml:"duration_tolerance"`

	// LeadProbeWindow and LeadProbeLimit control the leading-silence probe
	// of the original audio: the probe scans LeadProbeWindow-second windows
	// up to LeadProbeLimit seconds for the first window above
	// SpeechLevelDBFS.
	LeadProbeWindow float64 `yaml:"lead_probe_window"`
	LeadProbeLimit  float64 `yaml:"lead_probe_limit"`
	SpeechLevelDBFS float64 `yaml:"speech_level_dbfs"`

	// QuietSegmentDBFS is the loudness floor below which an individual
	// synthesised segment is normalised before being appended.
	QuietSegmentDBFS float64 `yaml:"quiet_segment_dbfs"`

	// FinalTrackDBFS is the loudness floor below which the assembled track
	// gets one final normalisation pass.
	FinalTrackDBFS float64 `yaml:"final_track_dbfs"`

	// SpeedAdjustDeadband is the |ratio-1| band inside which a sub-clip is
	// not retimed by the speed adjuster.
	SpeedAdjustDeadband float64 `yaml:"speed_adjust_deadband"`

	// MinSpeedRatio clamps sub-clip retiming so a ratio can never become
	// zero or negative.
	MinSpeedRatio float64 `yaml:"min_speed_ratio"`

	// KeepNonSpeech keeps non-speech intervals at original speed in the
	// speed-adjust strategy; false drops them, producing a condensed,
	// speech-only video.
	KeepNonSpeech bool `yaml:"keep_non_speech"`
}

// SynthesisConfig controls how per-segment external engine calls are
// issued.
type SynthesisConfig struct {
	// Workers is the number of per-segment synthesis calls in flight at
	// once. 1 keeps the documented sequential behaviour.
	Workers int `yaml:"workers"`
}

// Default returns a Config populated with the tuned defaults.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: LogInfo},
		Media: MediaConfig{
			FFmpegPath:     "ffmpeg",
			FFprobePath:    "ffprobe",
			VideoCodec:     "libx264",
			AudioCodec:     "aac",
			AudioBitrate:   "192k",
			SampleRate:     16000,
			CommandTimeout: 10 * time.Minute,
		},
		Segmenter: SegmenterConfig{
			Long:               SilenceBucket{MinSilence: 1.2, Threshold: -35},
			Medium:             SilenceBucket{MinSilence: 1.0, Threshold: -40},
			Short:              SilenceBucket{MinSilence: 0.8, Threshold: -42},
			LongCutoff:         300,
			MediumCutoff:       120,
			MinSegmentDuration: 1.0,
			FallbackWindow:     10,
		},
		VAD: VADConfig{Threshold: 0.5},
		Diarize: DiarizeConfig{
			LongPause:    3.0,
			LongSegment:  60,
			MaleVoices:   []string{"male-1", "male-2", "male-3"},
			FemaleVoices: []string{"female-1", "female-2", "female-3"},
		},
		Merge: MergeConfig{WindowMultiplier: 2.0},
		Reconcile: ReconcileConfig{
			Strategy:            StrategyGlobalTrack,
			DurationTolerance:   0.5,
			LeadProbeWindow:     0.5,
			LeadProbeLimit:      45,
			SpeechLevelDBFS:     -35,
			QuietSegmentDBFS:    -50,
			FinalTrackDBFS:      -30,
			SpeedAdjustDeadband: 0.05,
			MinSpeedRatio:       0.1,
			KeepNonSpeech:       true,
		},
		Synthesis: SynthesisConfig{Workers: 1},
	}
}
