// Package gaze models eye tracking input for the foveation pattern. A
// Source produces gaze samples for one window; samples carry a capture time
// and are only trusted while fresh. When no fresh sample exists the caller
// recenters the pattern on the screen.
package gaze

import (
	"sync"
	"time"

	"github.com/mbucchia/vrsinject/gpu"
)

// DefaultFreshness is how long a gaze sample remains usable after capture.
// Trackers report at display rate or better, so anything older means the
// user looked away from the tracker or the stream stalled.
const DefaultFreshness = 600 * time.Millisecond

// Sample is one gaze reading.
type Sample struct {
	// X, Y are the gaze point normalized to the window, in [0, 1] with the
	// origin at the top left.
	X float32
	Y float32

	// DistanceMM is the head distance from the screen in millimeters, or 0
	// when the tracker produced no head pose.
	DistanceMM float32

	// At is the capture time.
	At time.Time
}

// Source produces gaze samples for one window.
//
// Update lets pull-based trackers refresh their state; the injector calls it
// at most once per frame, before reading. Push-based sources may make it a
// no-op. TryGet returns the latest sample and whether it is fresh enough to
// steer the pattern.
type Source interface {
	Update()
	TryGet() (Sample, bool)
	Close() error
}

// Provider creates a gaze source attached to a window. Returning an error
// means no tracker serves that window; the injector then runs the pattern
// centered.
type Provider func(win gpu.WindowID) (Source, error)

// Latched is a push-based Source: a tracker callback stores samples with
// Store and TryGet serves the most recent one while it stays fresh.
type Latched struct {
	mu        sync.Mutex
	sample    Sample
	has       bool
	freshness time.Duration

	// now is the time source, replaceable in tests.
	now func() time.Time
}

// NewLatched creates a Latched source. A non-positive freshness selects
// DefaultFreshness.
func NewLatched(freshness time.Duration) *Latched {
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	return &Latched{freshness: freshness, now: time.Now}
}

// Store records a new sample. A zero At is stamped with the current time.
func (l *Latched) Store(s Sample) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if s.At.IsZero() {
		s.At = l.now()
	}
	l.sample = s
	l.has = true
}

// Update is a no-op; Latched is fed by its tracker callback.
func (l *Latched) Update() {}

// TryGet returns the latest stored sample. ok is false when no sample was
// ever stored or the latest one aged past the freshness window.
func (l *Latched) TryGet() (Sample, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.has || l.now().Sub(l.sample.At) > l.freshness {
		return Sample{}, false
	}
	return l.sample, true
}

// Close implements Source.
func (l *Latched) Close() error { return nil }

// Static is a Source that always reports the same, always fresh sample.
// Useful for demos and for fixing the foveal center during debugging.
type Static struct {
	Sample Sample
}

// Update implements Source.
func (s *Static) Update() {}

// TryGet returns the fixed sample, stamped fresh.
func (s *Static) TryGet() (Sample, bool) {
	out := s.Sample
	out.At = time.Now()
	return out, true
}

// Close implements Source.
func (s *Static) Close() error { return nil }
