package observe

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Attribute helpers matching the instrument documentation in [Metrics].

// WithSource labels segment counts with how they were produced.
func WithSource(source string) metric.AddOption {
	return metric.WithAttributes(attribute.String("source", source))
}

// WithSpeech labels VAD verdict counts with the outcome.
func WithSpeech(isSpeech bool) metric.AddOption {
	return metric.WithAttributes(attribute.Bool("is_speech", isSpeech))
}

// WithTrigger labels speaker switches with the rule that fired.
func WithTrigger(trigger string) metric.AddOption {
	return metric.WithAttributes(attribute.String("trigger", trigger))
}

// WithStrategy labels duration-merge decisions.
func WithStrategy(strategy string) metric.AddOption {
	return metric.WithAttributes(attribute.String("strategy", strategy))
}

// WithStage labels absorbed segment errors with the failing stage.
func WithStage(stage string) metric.AddOption {
	return metric.WithAttributes(attribute.String("stage", stage))
}

// WithProvider labels engine errors with the provider and error kind.
func WithProvider(provider, kind string) metric.AddOption {
	return metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("kind", kind),
	)
}
