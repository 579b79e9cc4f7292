package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	recognitionmock "github.com/redubtool/redub/pkg/provider/recognition/mock"
	translatemock "github.com/redubtool/redub/pkg/provider/translate/mock"
)

func TestCircuitBreakerOpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "test", MaxFailures: 3, ResetTimeout: time.Hour})
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		if err := cb.Execute(func() error { return boom }); !errors.Is(err, boom) {
			t.Fatalf("call %d: got %v, want boom", i, err)
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open after 3 failures", cb.State())
	}
	if err := cb.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("open breaker executed the call: %v", err)
	}
}

func TestCircuitBreakerSuccessResetsCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "test", MaxFailures: 2, ResetTimeout: time.Hour})
	boom := errors.New("boom")

	_ = cb.Execute(func() error { return boom })
	_ = cb.Execute(func() error { return nil })
	_ = cb.Execute(func() error { return boom })

	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed (success reset the streak)", cb.State())
	}
}

func TestCircuitBreakerHalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:         "test",
		MaxFailures:  1,
		ResetTimeout: 10 * time.Millisecond,
		HalfOpenMax:  1,
	})

	_ = cb.Execute(func() error { return errors.New("boom") })
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	time.Sleep(20 * time.Millisecond)
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe call after reset timeout failed: %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed after successful probe", cb.State())
	}
}

func TestFallbackGroupTriesEntriesInOrder(t *testing.T) {
	primary := &translatemock.Translator{Err: errors.New("primary down")}
	backup := &translatemock.Translator{}

	chain := NewTranslatorChain(primary, "primary", FallbackConfig{})
	chain.AddFallback("backup", backup)

	got, err := chain.Translate(context.Background(), "hello", "en", "de")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "[de] hello" {
		t.Errorf("translation = %q, want backup's output", got)
	}
	if len(primary.Calls) != 1 || len(backup.Calls) != 1 {
		t.Errorf("calls primary=%d backup=%d, want 1/1", len(primary.Calls), len(backup.Calls))
	}
}

func TestFallbackGroupAllFailed(t *testing.T) {
	primary := &translatemock.Translator{Err: errors.New("down")}
	backup := &translatemock.Translator{Err: errors.New("also down")}

	chain := NewTranslatorChain(primary, "primary", FallbackConfig{})
	chain.AddFallback("backup", backup)

	_, err := chain.Translate(context.Background(), "hello", "en", "de")
	if !errors.Is(err, ErrAllFailed) {
		t.Errorf("got %v, want ErrAllFailed", err)
	}
}

func TestFallbackGroupSkipsOpenBreaker(t *testing.T) {
	primary := &translatemock.Translator{Err: errors.New("down")}
	backup := &translatemock.Translator{}

	cfg := FallbackConfig{CircuitBreaker: CircuitBreakerConfig{MaxFailures: 1, ResetTimeout: time.Hour}}
	chain := NewTranslatorChain(primary, "primary", cfg)
	chain.AddFallback("backup", backup)

	// First call trips the primary's breaker; the second must go straight
	// to the backup without touching the primary again.
	for i := 0; i < 2; i++ {
		if _, err := chain.Translate(context.Background(), "hi", "en", "fr"); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if len(primary.Calls) != 1 {
		t.Errorf("primary called %d times, want 1 (breaker open)", len(primary.Calls))
	}
	if len(backup.Calls) != 2 {
		t.Errorf("backup called %d times, want 2", len(backup.Calls))
	}
}

func TestRecognizerChainPassesThroughEmptyTranscript(t *testing.T) {
	// An empty transcript is a valid "no speech" answer, not a failure;
	// the chain must not fail over on it.
	primary := &recognitionmock.Recognizer{}
	backup := &recognitionmock.Recognizer{Default: "should never be used"}

	chain := NewRecognizerChain(primary, "primary", FallbackConfig{})
	chain.AddFallback("backup", backup)

	got, err := chain.Transcribe(context.Background(), []byte{1, 2}, "en")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != "" {
		t.Errorf("transcript = %q, want empty passthrough", got)
	}
	if len(backup.Calls) != 0 {
		t.Errorf("backup called %d times, want 0", len(backup.Calls))
	}
}
