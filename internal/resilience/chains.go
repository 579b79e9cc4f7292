package resilience

import (
	"context"

	"github.com/redubtool/redub/pkg/provider/recognition"
	"github.com/redubtool/redub/pkg/provider/synth"
	"github.com/redubtool/redub/pkg/provider/translate"
)

// RecognizerChain implements [recognition.Recognizer] with automatic
// failover across multiple recognition engines.
type RecognizerChain struct {
	group *FallbackGroup[recognition.Recognizer]
}

// Compile-time interface assertion.
var _ recognition.Recognizer = (*RecognizerChain)(nil)

// NewRecognizerChain creates a [RecognizerChain] with primary as the
// preferred engine.
func NewRecognizerChain(primary recognition.Recognizer, primaryName string, cfg FallbackConfig) *RecognizerChain {
	return &RecognizerChain{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers an additional recognition engine as a fallback.
func (c *RecognizerChain) AddFallback(name string, r recognition.Recognizer) {
	c.group.AddFallback(name, r)
}

// Transcribe tries each engine in order until one returns a transcript.
func (c *RecognizerChain) Transcribe(ctx context.Context, wav []byte, language string) (string, error) {
	return ExecuteWithResult(c.group, func(r recognition.Recognizer) (string, error) {
		return r.Transcribe(ctx, wav, language)
	})
}

// TranslatorChain implements [translate.Translator] with automatic failover
// across multiple translation engines.
type TranslatorChain struct {
	group *FallbackGroup[translate.Translator]
}

// Compile-time interface assertion.
var _ translate.Translator = (*TranslatorChain)(nil)

// NewTranslatorChain creates a [TranslatorChain] with primary as the
// preferred engine.
func NewTranslatorChain(primary translate.Translator, primaryName string, cfg FallbackConfig) *TranslatorChain {
	return &TranslatorChain{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers an additional translation engine as a fallback.
func (c *TranslatorChain) AddFallback(name string, t translate.Translator) {
	c.group.AddFallback(name, t)
}

// Translate tries each engine in order until one returns a translation.
func (c *TranslatorChain) Translate(ctx context.Context, text, srcLang, dstLang string) (string, error) {
	return ExecuteWithResult(c.group, func(t translate.Translator) (string, error) {
		return t.Translate(ctx, text, srcLang, dstLang)
	})
}

// SynthesizerChain implements [synth.Synthesizer] with automatic failover
// across multiple synthesis engines.
type SynthesizerChain struct {
	group *FallbackGroup[synth.Synthesizer]
}

// Compile-time interface assertion.
var _ synth.Synthesizer = (*SynthesizerChain)(nil)

// NewSynthesizerChain creates a [SynthesizerChain] with primary as the
// preferred engine.
func NewSynthesizerChain(primary synth.Synthesizer, primaryName string, cfg FallbackConfig) *SynthesizerChain {
	return &SynthesizerChain{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers an additional synthesis engine as a fallback.
func (c *SynthesizerChain) AddFallback(name string, s synth.Synthesizer) {
	c.group.AddFallback(name, s)
}

// Synthesize tries each engine in order until one produces audio.
func (c *SynthesizerChain) Synthesize(ctx context.Context, req synth.Request) (synth.Result, error) {
	return ExecuteWithResult(c.group, func(s synth.Synthesizer) (synth.Result, error) {
		return s.Synthesize(ctx, req)
	})
}
