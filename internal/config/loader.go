package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path, applies it over the
// defaults, and returns a validated [Config]. It is a convenience wrapper
// around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r over the defaults and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Logging.Level != "" && !cfg.Logging.Level.IsValid() {
		errs = append(errs, fmt.Errorf("logging.level %q is invalid; valid values: debug, info, warn, error", cfg.Logging.Level))
	}

	if cfg.Media.FFmpegPath == "" || cfg.Media.FFprobePath == "" {
		errs = append(errs, errors.New("media.ffmpeg_path and media.ffprobe_path must not be empty"))
	}
	if cfg.Media.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("media.sample_rate must be positive, got %d", cfg.Media.SampleRate))
	}
	if cfg.Media.CommandTimeout <= 0 {
		errs = append(errs, errors.New("media.command_timeout must be positive"))
	}

	for name, bucket := range map[string]SilenceBucket{
		"segmenter.long":   cfg.Segmenter.Long,
		"segmenter.medium": cfg.Segmenter.Medium,
		"segmenter.short":  cfg.Segmenter.Short,
	} {
		if bucket.MinSilence <= 0 {
			errs = append(errs, fmt.Errorf("%s.min_silence must be positive, got %g", name, bucket.MinSilence))
		}
		if bucket.Threshold >= 0 {
			errs = append(errs, fmt.Errorf("%s.threshold must be negative dBFS, got %g", name, bucket.Threshold))
		}
	}
	if cfg.Segmenter.MinSegmentDuration <= 0 {
		errs = append(errs, errors.New("segmenter.min_segment_duration must be positive"))
	}
	if cfg.Segmenter.LongCutoff <= cfg.Segmenter.MediumCutoff {
		errs = append(errs, fmt.Errorf("segmenter.long_cutoff (%g) must exceed medium_cutoff (%g)", cfg.Segmenter.LongCutoff, cfg.Segmenter.MediumCutoff))
	}
	if cfg.Segmenter.FallbackWindow <= 0 {
		errs = append(errs, errors.New("segmenter.fallback_window must be positive"))
	}

	if cfg.VAD.Threshold < 0 || cfg.VAD.Threshold > 1 {
		errs = append(errs, fmt.Errorf("vad.threshold must be within [0,1], got %g", cfg.VAD.Threshold))
	}

	if cfg.Diarize.LongPause <= 0 {
		errs = append(errs, errors.New("diarize.long_pause must be positive"))
	}
	if cfg.Diarize.LongSegment <= 0 {
		errs = append(errs, errors.New("diarize.long_segment must be positive"))
	}
	if len(cfg.Diarize.MaleVoices) == 0 {
		errs = append(errs, errors.New("diarize.male_voices must not be empty"))
	}
	if len(cfg.Diarize.FemaleVoices) == 0 {
		errs = append(errs, errors.New("diarize.female_voices must not be empty"))
	}

	if cfg.Merge.WindowMultiplier <= 0 {
		errs = append(errs, errors.New("merge.window_multiplier must be positive"))
	}

	if !cfg.Reconcile.Strategy.IsValid() {
		errs = append(errs, fmt.Errorf("reconcile.strategy %q is invalid; valid values: global_track, speed_adjust", cfg.Reconcile.Strategy))
	}
	if cfg.Reconcile.DurationTolerance <= 0 {
		errs = append(errs, errors.New("reconcile.duration_tolerance must be positive"))
	}
	if cfg.Reconcile.LeadProbeWindow <= 0 || cfg.Reconcile.LeadProbeLimit <= 0 {
		errs = append(errs, errors.New("reconcile.lead_probe_window and lead_probe_limit must be positive"))
	}
	if cfg.Reconcile.MinSpeedRatio <= 0 {
		errs = append(errs, errors.New("reconcile.min_speed_ratio must be positive"))
	}

	if cfg.Synthesis.Workers <= 0 {
		errs = append(errs, errors.New("synthesis.workers must be at least 1"))
	}

	return errors.Join(errs...)
}
