package scanner

import (
	"context"
	"testing"
)

func TestSimulated_AlwaysSucceeds(t *testing.T) {
	s := NewSimulated(1.0, 42)

	for i := 0; i < 20; i++ {
		outcome, err := s.BeginCapture(context.Background())
		if err != nil {
			t.Fatalf("BeginCapture failed: %v", err)
		}
		if !outcome.Success {
			t.Fatal("expected success with rate 1.0")
		}
		if outcome.Quality < 0.5 || outcome.Quality > 1.0 {
			t.Fatalf("quality out of range: %f", outcome.Quality)
		}
	}
}

func TestSimulated_NeverSucceeds(t *testing.T) {
	s := NewSimulated(0, 42)

	for i := 0; i < 20; i++ {
		outcome, err := s.BeginCapture(context.Background())
		if err != nil {
			t.Fatalf("BeginCapture failed: %v", err)
		}
		if outcome.Success {
			t.Fatal("expected failure with rate 0")
		}
	}
}

func TestSimulated_CancelledContext(t *testing.T) {
	s := NewSimulated(1.0, 42)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.BeginCapture(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestStatic(t *testing.T) {
	s := &Static{Outcome: Outcome{Success: true, Quality: 0.9}}

	outcome, err := s.BeginCapture(context.Background())
	if err != nil {
		t.Fatalf("BeginCapture failed: %v", err)
	}
	if !outcome.Success || outcome.Quality != 0.9 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	s = &Static{Err: ErrDeviceUnavailable}
	if _, err := s.BeginCapture(context.Background()); err != ErrDeviceUnavailable {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
}
