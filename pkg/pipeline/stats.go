package pipeline

import (
	"math"
	"sync"
)

// Stats compares published steering values with the reference signal, both
// normalized to [-1, 1].
type Stats struct {
	mu       sync.Mutex
	total    int
	accurate int
	within   int
}

// Add records one frame. Frames without estimate count as a 0 steering.
func (s *Stats) Add(r *Record) {
	diff := math.Abs(float64(r.Steering()) - r.Reference)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	if diff < 1e-15 {
		s.accurate++
	}
	if diff <= math.Abs(r.Reference/2) {
		s.within++
	}
}

func (s *Stats) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Accuracy returns the percentage of frames matching the reference and the
// percentage of frames within 50% of it.
func (s *Stats) Accuracy() (exact, within50 float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.total == 0 {
		return 0., 0.
	}
	return float64(s.accurate) / float64(s.total) * 100., float64(s.within) / float64(s.total) * 100.
}
