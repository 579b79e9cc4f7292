// Package synth defines the Synthesizer interface for text-to-speech
// backends used by the dubbing pipeline.
//
// Synthesis is an external collaborator: the pipeline hands over one
// segment's translated text and a voice drawn from the per-gender pool, and
// receives replacement audio together with its measured duration. The
// synthesised audio is almost never the same length as the original
// segment; reconciling that difference is the job of the reconcile
// package, not the synthesiser.
//
// Implementations must be safe for concurrent use; the pipeline may fan
// out per-segment calls.
package synth

import "context"

// Request describes one synthesis call.
type Request struct {
	// Text is the target-language text to speak.
	Text string

	// VoiceID selects the synthesis voice, drawn from the configured
	// per-gender pool.
	VoiceID string

	// Language is the BCP-47 tag of the text.
	Language string
}

// Result is the synthesised replacement audio for one segment.
type Result struct {
	// WAV is the synthesised audio as a WAV container.
	WAV []byte

	// Duration is the measured audio length in seconds.
	Duration float64
}

// Synthesizer is the abstraction over any TTS backend.
type Synthesizer interface {
	// Synthesize speaks req.Text with the requested voice. A failure marks
	// the segment as errored in the timeline; the pipeline substitutes
	// silence of the segment's original duration and continues.
	Synthesize(ctx context.Context, req Request) (Result, error)
}
