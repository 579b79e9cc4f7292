package config

import (
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
}

func TestDefaultBuckets(t *testing.T) {
	cfg := Default()

	if cfg.Segmenter.Long.MinSilence != 1.2 || cfg.Segmenter.Long.Threshold != -35 {
		t.Errorf("long bucket = %+v, want {1.2 -35}", cfg.Segmenter.Long)
	}
	if cfg.Segmenter.Medium.MinSilence != 1.0 || cfg.Segmenter.Medium.Threshold != -40 {
		t.Errorf("medium bucket = %+v, want {1 -40}", cfg.Segmenter.Medium)
	}
	if cfg.Segmenter.Short.MinSilence != 0.8 || cfg.Segmenter.Short.Threshold != -42 {
		t.Errorf("short bucket = %+v, want {0.8 -42}", cfg.Segmenter.Short)
	}
	if cfg.Segmenter.LongCutoff != 300 || cfg.Segmenter.MediumCutoff != 120 {
		t.Errorf("cutoffs = %g/%g, want 300/120", cfg.Segmenter.LongCutoff, cfg.Segmenter.MediumCutoff)
	}
}

func TestLoadFromReaderOverridesDefaults(t *testing.T) {
	yaml := `
logging:
  level: debug
vad:
  threshold: 0.7
reconcile:
  strategy: speed_adjust
diarize:
  male_voices: [m1]
  female_voices: [f1, f2]
`
	cfg, err := LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Logging.Level != LogDebug {
		t.Errorf("logging.level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.VAD.Threshold != 0.7 {
		t.Errorf("vad.threshold = %g, want 0.7", cfg.VAD.Threshold)
	}
	if cfg.Reconcile.Strategy != StrategySpeedAdjust {
		t.Errorf("reconcile.strategy = %q, want speed_adjust", cfg.Reconcile.Strategy)
	}
	if len(cfg.Diarize.FemaleVoices) != 2 {
		t.Errorf("female_voices = %v, want 2 entries", cfg.Diarize.FemaleVoices)
	}

	// Untouched sections keep their defaults.
	if cfg.Segmenter.MinSegmentDuration != Default().Segmenter.MinSegmentDuration {
		t.Errorf("segmenter defaults lost: %+v", cfg.Segmenter)
	}
}

func TestLoadFromReaderEmptyInputYieldsDefaults(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Media.SampleRate != Default().Media.SampleRate {
		t.Errorf("empty config did not produce defaults")
	}
}

func TestLoadFromReaderRejectsUnknownFields(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("segmentr:\n  foo: 1\n"))
	if err == nil {
		t.Fatal("expected error for unknown top-level key")
	}
}

func TestValidateCollectsAllFailures(t *testing.T) {
	cfg := Default()
	cfg.VAD.Threshold = 2
	cfg.Media.SampleRate = 0
	cfg.Diarize.MaleVoices = nil
	cfg.Reconcile.Strategy = "clever"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	for _, want := range []string{
		"vad.threshold",
		"media.sample_rate",
		"diarize.male_voices",
		"reconcile.strategy",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("joined error missing %q: %v", want, err)
		}
	}
}

func TestValidateBucketThresholdSign(t *testing.T) {
	cfg := Default()
	cfg.Segmenter.Short.Threshold = 10

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "segmenter.short.threshold") {
		t.Errorf("positive dBFS threshold accepted: %v", err)
	}
}
