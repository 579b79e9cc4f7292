// Package mock provides a test double for the synth package.
//
// The mock synthesises real silence-filled WAV buffers of a controllable
// duration, so pipeline tests can exercise duration reconciliation with
// audio that actually parses.
package mock

import (
	"context"
	"sync"

	"github.com/redubtool/redub/pkg/audio"
	"github.com/redubtool/redub/pkg/provider/synth"
)

// Synthesizer is a mock implementation of synth.Synthesizer.
type Synthesizer struct {
	mu sync.Mutex

	// SampleRate of the produced WAV. Default 16000.
	SampleRate int

	// Durations are used in call order; when exhausted, DurationFunc or
	// DefaultDuration applies.
	Durations []float64

	// DurationFunc derives a duration from the request when set.
	DurationFunc func(req synth.Request) float64

	// DefaultDuration is the fallback duration in seconds. Default 1.0.
	DefaultDuration float64

	// Err, if non-nil, is returned by every call.
	Err error

	// Calls records every request.
	Calls []synth.Request

	next int
}

// Compile-time interface assertion.
var _ synth.Synthesizer = (*Synthesizer)(nil)

// Synthesize records the call and returns a silent WAV of the scripted
// duration.
func (s *Synthesizer) Synthesize(_ context.Context, req synth.Request) (synth.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, req)
	if s.Err != nil {
		return synth.Result{}, s.Err
	}

	d := s.DefaultDuration
	if d == 0 {
		d = 1.0
	}
	if s.next < len(s.Durations) {
		d = s.Durations[s.next]
		s.next++
	} else if s.DurationFunc != nil {
		d = s.DurationFunc(req)
	}

	rate := s.SampleRate
	if rate == 0 {
		rate = 16000
	}
	buf := audio.Silence(d, rate)
	return synth.Result{WAV: audio.EncodeWAV(buf), Duration: buf.Seconds()}, nil
}
