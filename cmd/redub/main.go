// Command redub dubs a video into another language: it segments the
// original audio on silences, attributes speakers, runs each speech
// segment through recognition, translation, and synthesis engines, and
// reconciles the dubbed track back onto the video without cutting either.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/redubtool/redub/internal/config"
	"github.com/redubtool/redub/internal/observe"
	"github.com/redubtool/redub/internal/pipeline"
	"github.com/redubtool/redub/internal/resilience"
	recognitionmock "github.com/redubtool/redub/pkg/provider/recognition/mock"
	synthmock "github.com/redubtool/redub/pkg/provider/synth/mock"
	translatemock "github.com/redubtool/redub/pkg/provider/translate/mock"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "", "path to the YAML configuration file (empty uses defaults)")
	input := flag.String("input", "", "input video file")
	output := flag.String("output", "", "output video file")
	sourceLang := flag.String("source-lang", "en", "language of the input audio")
	targetLang := flag.String("target-lang", "", "language to dub into")
	flag.Parse()

	if *input == "" || *output == "" || *targetLang == "" {
		fmt.Fprintln(os.Stderr, "redub: -input, -output, and -target-lang are required")
		flag.Usage()
		return 2
	}

	// ── Load configuration ────────────────────────────────────────────────────
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "redub: %v\n", err)
			return 1
		}
		cfg = loaded
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	slog.Info("redub starting",
		"version", version,
		"input", *input,
		"output", *output,
		"source_lang", *sourceLang,
		"target_lang", *targetLang,
		"strategy", cfg.Reconcile.Strategy,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Metrics ───────────────────────────────────────────────────────────────
	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "redub",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise metrics", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(shutdownCtx); err != nil {
			slog.Warn("metrics shutdown error", "err", err)
		}
	}()

	if addr := cfg.Metrics.ListenAddr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: addr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Warn("metrics endpoint error", "err", err)
			}
		}()
		defer srv.Close()
		slog.Info("metrics endpoint listening", "addr", addr)
	}

	// ── Engine providers ──────────────────────────────────────────────────────
	// Engines are external services wired in by the embedding application.
	// The standalone binary runs with stub engines, which produce a silent
	// dub; useful for exercising the timeline pipeline against real media.
	slog.Warn("no engine providers configured, using stubs; dubbed speech will be silent")
	chainCfg := resilience.FallbackConfig{}
	rec := resilience.NewRecognizerChain(&recognitionmock.Recognizer{Default: ""}, "stub", chainCfg)
	tr := resilience.NewTranslatorChain(&translatemock.Translator{}, "stub", chainCfg)
	sy := resilience.NewSynthesizerChain(&synthmock.Synthesizer{SampleRate: cfg.Media.SampleRate}, "stub", chainCfg)

	// ── Run ───────────────────────────────────────────────────────────────────
	progress := func(stage string, done, total int) {
		slog.Debug("stage progress", "stage", stage, "done", done, "total", total)
	}

	p := pipeline.New(*cfg, rec, tr, sy, logger, pipeline.WithProgress(progress))
	res, err := p.Run(ctx, pipeline.Job{
		InputPath:  *input,
		OutputPath: *output,
		SourceLang: *sourceLang,
		TargetLang: *targetLang,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Info("cancelled")
			return 130
		}
		slog.Error("dubbing failed", "err", err)
		return 1
	}

	slog.Info("done",
		"output", res.OutputPath,
		"segments", res.SegmentsTotal,
		"failed_segments", res.SegmentsFailed,
		"elapsed", res.Elapsed,
	)
	return 0
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var lvl slog.Level
	switch cfg.Level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if cfg.JSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
