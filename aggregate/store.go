package aggregate

import (
	"sync"

	"perfpanel/collector"
)

// Store accumulates every measure observed since the last Clear. It is
// append-only: Merge is the only way in, Clear the only way out.
type Store struct {
	mu        sync.RWMutex
	measures  []collector.Measure
	raw       []collector.RawMeasure
	totalTime float64
	merges    int
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Merge appends a batch, preserving arrival order, and returns the new
// length of the measure sequence.
func (s *Store) Merge(measures []collector.Measure, raw []collector.RawMeasure) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.measures = append(s.measures, measures...)
	s.raw = append(s.raw, raw...)
	for _, m := range measures {
		s.totalTime += m.TotalTimeSpent
	}
	s.merges++
	return len(s.measures)
}

// Clear empties the store and zeroes the running total.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.measures = nil
	s.raw = nil
	s.totalTime = 0
	s.merges = 0
}

// Len is the number of merged measures.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.measures)
}

// Merges counts the batches merged since the last Clear.
func (s *Store) Merges() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.merges
}

// TotalTime is the running sum of TotalTimeSpent over all merged measures.
func (s *Store) TotalTime() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalTime
}

// Measures returns a copy of the merged measures.
func (s *Store) Measures() []collector.Measure {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]collector.Measure{}, s.measures...)
}

// RawMeasures returns a copy of the merged raw measures.
func (s *Store) RawMeasures() []collector.RawMeasure {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]collector.RawMeasure{}, s.raw...)
}
