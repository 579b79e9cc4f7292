// Package recognition defines the Recognizer interface for speech-to-text
// backends used by the dubbing pipeline.
//
// The pipeline treats recognition as an external collaborator: it hands
// over one segment's WAV audio and receives the recognised text. Engines
// (hosted APIs, local Whisper servers) live behind this interface; the
// resilience package composes several of them into an ordered fallback
// chain.
//
// Implementations must be safe for concurrent use; the pipeline may fan
// out per-segment calls.
package recognition

import "context"

// Recognizer is the abstraction over any speech-recognition backend.
type Recognizer interface {
	// Transcribe converts the WAV-encoded audio of one segment into text.
	// language is a BCP-47 hint (e.g., "ru", "en-US"); an empty string lets
	// the engine auto-detect.
	//
	// An empty transcript with a nil error is a valid outcome and means
	// the engine found no speech in the segment.
	Transcribe(ctx context.Context, wav []byte, language string) (string, error)
}
