package gaze

import (
	"testing"
	"time"
)

func TestLatchedEmpty(t *testing.T) {
	l := NewLatched(0)
	if _, ok := l.TryGet(); ok {
		t.Error("expected no sample before any Store")
	}
}

func TestLatchedFreshness(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	l := NewLatched(0)
	l.now = func() time.Time { return now }

	l.Store(Sample{X: 0.4, Y: 0.6, DistanceMM: 550})

	s, ok := l.TryGet()
	if !ok {
		t.Fatal("expected fresh sample")
	}
	if s.X != 0.4 || s.Y != 0.6 || s.DistanceMM != 550 {
		t.Errorf("unexpected sample: %+v", s)
	}

	// Still fresh just inside the window.
	now = now.Add(DefaultFreshness)
	if _, ok := l.TryGet(); !ok {
		t.Error("expected sample at freshness boundary to be usable")
	}

	// Stale past the window.
	now = now.Add(time.Millisecond)
	if _, ok := l.TryGet(); ok {
		t.Error("expected stale sample to be rejected")
	}
}

func TestLatchedStoreStampsTime(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	l := NewLatched(0)
	l.now = func() time.Time { return now }

	l.Store(Sample{X: 0.1, Y: 0.2})
	s, ok := l.TryGet()
	if !ok {
		t.Fatal("expected sample")
	}
	if !s.At.Equal(now) {
		t.Errorf("expected capture time %v, got %v", now, s.At)
	}
}

func TestLatchedNewerSampleWins(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	l := NewLatched(0)
	l.now = func() time.Time { return now }

	l.Store(Sample{X: 0.1})
	now = now.Add(100 * time.Millisecond)
	l.Store(Sample{X: 0.9})

	s, ok := l.TryGet()
	if !ok || s.X != 0.9 {
		t.Errorf("expected latest sample, got ok=%v %+v", ok, s)
	}
}

func TestLatchedCustomFreshness(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	l := NewLatched(50 * time.Millisecond)
	l.now = func() time.Time { return now }

	l.Store(Sample{})
	now = now.Add(51 * time.Millisecond)
	if _, ok := l.TryGet(); ok {
		t.Error("expected sample stale under custom freshness")
	}
}

func TestStaticAlwaysFresh(t *testing.T) {
	s := &Static{Sample: Sample{X: 0.5, Y: 0.5, DistanceMM: 600}}

	got, ok := s.TryGet()
	if !ok {
		t.Fatal("expected static source to always produce a sample")
	}
	if got.X != 0.5 || got.DistanceMM != 600 {
		t.Errorf("unexpected sample: %+v", got)
	}
	if got.At.IsZero() {
		t.Error("expected static sample to carry a capture time")
	}
}
