package weather

import (
	"errors"
	"testing"
	"time"
)

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	breaker := NewBreaker(3, time.Hour)
	upstreamErr := errors.New("upstream down")

	for i := 0; i < 3; i++ {
		if err := breaker.Call(func() error { return upstreamErr }); !errors.Is(err, upstreamErr) {
			t.Fatalf("expected upstream error on call %d, got %v", i+1, err)
		}
	}

	if state := breaker.State(); state != "open" {
		t.Fatalf("expected open breaker, got %q", state)
	}

	called := false
	err := breaker.Call(func() error {
		called = true
		return nil
	})

	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable while open, got %v", err)
	}
	if called {
		t.Fatal("expected open breaker to short-circuit the call")
	}
}

func TestBreaker_RecoversThroughHalfOpen(t *testing.T) {
	breaker := NewBreaker(1, 10*time.Millisecond)

	if err := breaker.Call(func() error { return errors.New("boom") }); err == nil {
		t.Fatal("expected failure to propagate")
	}
	if state := breaker.State(); state != "open" {
		t.Fatalf("expected open breaker, got %q", state)
	}

	time.Sleep(15 * time.Millisecond)

	if err := breaker.Call(func() error { return nil }); err != nil {
		t.Fatalf("expected half-open probe to succeed, got %v", err)
	}
	if state := breaker.State(); state != "closed" {
		t.Fatalf("expected closed breaker after recovery, got %q", state)
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	breaker := NewBreaker(2, time.Hour)

	breaker.Call(func() error { return errors.New("boom") })
	breaker.Call(func() error { return nil })
	breaker.Call(func() error { return errors.New("boom") })

	if state := breaker.State(); state != "closed" {
		t.Fatalf("expected closed breaker after interleaved success, got %q", state)
	}
}
