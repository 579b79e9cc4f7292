// Package mock provides a test double for the recognition package.
//
// Use Recognizer to script transcripts per call and inspect what audio the
// pipeline delivered.
package mock

import (
	"context"
	"sync"

	"github.com/redubtool/redub/pkg/provider/recognition"
)

// TranscribeCall records a single invocation of Recognizer.Transcribe.
type TranscribeCall struct {
	// WAVLen is the byte length of the audio passed in. The audio itself is
	// not retained to keep tests light.
	WAVLen int

	// Language is the language hint passed in.
	Language string
}

// Recognizer is a mock implementation of recognition.Recognizer.
type Recognizer struct {
	mu sync.Mutex

	// Transcripts are returned in order, one per call. When exhausted the
	// mock returns Default.
	Transcripts []string

	// Default is returned once Transcripts runs out.
	Default string

	// Err, if non-nil, is returned by every call.
	Err error

	// Calls records every invocation.
	Calls []TranscribeCall

	next int
}

// Compile-time interface assertion.
var _ recognition.Recognizer = (*Recognizer)(nil)

// Transcribe records the call and returns the next scripted transcript.
func (r *Recognizer) Transcribe(_ context.Context, wav []byte, language string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, TranscribeCall{WAVLen: len(wav), Language: language})
	if r.Err != nil {
		return "", r.Err
	}
	if r.next < len(r.Transcripts) {
		t := r.Transcripts[r.next]
		r.next++
		return t, nil
	}
	return r.Default, nil
}
