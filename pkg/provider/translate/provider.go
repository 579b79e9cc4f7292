// Package translate defines the Translator interface for text translation
// backends used by the dubbing pipeline.
//
// Translation is an external collaborator: the pipeline hands over one
// segment's recognised text and receives the target-language text to
// synthesise. The resilience package composes several translators into an
// ordered fallback chain.
//
// Implementations must be safe for concurrent use.
package translate

import "context"

// Translator is the abstraction over any translation backend.
type Translator interface {
	// Translate converts text from srcLang to dstLang (BCP-47 tags). An
	// empty srcLang lets the engine auto-detect the source language.
	Translate(ctx context.Context, text, srcLang, dstLang string) (string, error)
}
