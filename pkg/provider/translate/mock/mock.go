// Package mock provides a test double for the translate package.
package mock

import (
	"context"
	"sync"

	"github.com/redubtool/redub/pkg/provider/translate"
)

// TranslateCall records a single invocation of Translator.Translate.
type TranslateCall struct {
	Text    string
	SrcLang string
	DstLang string
}

// Translator is a mock implementation of translate.Translator. By default
// it echoes the input text with a "[dst]" prefix so tests can assert the
// value flowed through.
type Translator struct {
	mu sync.Mutex

	// Translate overrides the default echo behaviour when non-nil.
	TranslateFunc func(text, srcLang, dstLang string) (string, error)

	// Err, if non-nil, is returned by every call.
	Err error

	// Calls records every invocation.
	Calls []TranslateCall
}

// Compile-time interface assertion.
var _ translate.Translator = (*Translator)(nil)

// Translate records the call and returns the scripted translation.
func (t *Translator) Translate(_ context.Context, text, srcLang, dstLang string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Calls = append(t.Calls, TranslateCall{Text: text, SrcLang: srcLang, DstLang: dstLang})
	if t.Err != nil {
		return "", t.Err
	}
	if t.TranslateFunc != nil {
		return t.TranslateFunc(text, srcLang, dstLang)
	}
	return "[" + dstLang + "] " + text, nil
}
