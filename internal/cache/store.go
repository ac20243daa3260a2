package cache

import (
	"slices"
	"sync"

	"github.com/bassista/go_courses/internal/diversity"
	"github.com/bassista/go_courses/internal/logger"
	"github.com/bassista/go_courses/internal/repository"
)

// Calculator derives a diversity index from a student set.
type Calculator func(students []repository.Student) float64

// Entry is a cached index together with the sorted emails it was computed from.
type Entry struct {
	Index  float64
	Emails []string
}

type slot struct {
	mu    sync.Mutex
	entry *Entry
}

// Store caches the diversity index per course.
//
// An entry is served only when its email snapshot equals the current sorted emails,
// so a missed invalidation costs a recomputation, never a stale answer. Each course
// has its own lock: Get and Invalidate on one course are mutually exclusive, while
// different courses never wait on each other's computation.
type Store struct {
	mu      sync.RWMutex
	slots   map[string]*slot
	calc    Calculator
	metrics *Metrics
}

// NewStore creates an empty cache. A nil calc defaults to diversity.Index; metrics may be nil.
func NewStore(calc Calculator, metrics *Metrics) *Store {
	if calc == nil {
		calc = diversity.Index
	}
	return &Store{slots: map[string]*slot{}, calc: calc, metrics: metrics}
}

// Get returns the diversity index of courseID for the given current membership,
// computing and storing it when there is no entry or the entry's snapshot differs.
func (s *Store) Get(courseID string, students []repository.Student) float64 {
	current := repository.SortedEmails(students)

	sl := s.slotFor(courseID)
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.entry != nil && slices.Equal(sl.entry.Emails, current) {
		s.metrics.hit()
		return sl.entry.Index
	}

	index := s.calc(students)
	if sl.entry != nil {
		logger.WithComponent("diversity-cache").Debugf("course %s: snapshot changed (%d -> %d emails), recomputed", courseID, len(sl.entry.Emails), len(current))
	}
	sl.entry = &Entry{Index: index, Emails: current}
	s.metrics.miss()
	return index
}

// Peek returns a copy of the cached entry for courseID without computing anything.
func (s *Store) Peek(courseID string) (Entry, bool) {
	s.mu.RLock()
	sl, ok := s.slots[courseID]
	s.mu.RUnlock()
	if !ok {
		return Entry{}, false
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.entry == nil {
		return Entry{}, false
	}
	return Entry{Index: sl.entry.Index, Emails: slices.Clone(sl.entry.Emails)}, true
}

// Invalidate drops the entry for courseID. It is idempotent.
func (s *Store) Invalidate(courseID string) {
	s.mu.Lock()
	delete(s.slots, courseID)
	n := len(s.slots)
	s.mu.Unlock()

	s.metrics.invalidated(n)
	logger.WithComponent("diversity-cache").Tracef("course %s invalidated", courseID)
}

// InvalidateAll drops every entry. Meant for full resets, not request handling.
func (s *Store) InvalidateAll() {
	s.mu.Lock()
	s.slots = map[string]*slot{}
	s.mu.Unlock()

	s.metrics.invalidated(0)
	logger.WithComponent("diversity-cache").Debugf("all entries invalidated")
}

// Retain drops entries whose course is not in courseIDs and reports how many were dropped.
func (s *Store) Retain(courseIDs []string) int {
	keep := make(map[string]struct{}, len(courseIDs))
	for _, id := range courseIDs {
		keep[id] = struct{}{}
	}

	s.mu.Lock()
	removed := 0
	for id := range s.slots {
		if _, ok := keep[id]; !ok {
			delete(s.slots, id)
			removed++
		}
	}
	n := len(s.slots)
	s.mu.Unlock()

	if removed > 0 {
		s.metrics.swept(removed, n)
	}
	return removed
}

// Len returns the number of courses currently tracked.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}

func (s *Store) slotFor(courseID string) *slot {
	s.mu.RLock()
	sl, ok := s.slots[courseID]
	s.mu.RUnlock()
	if ok {
		return sl
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sl, ok = s.slots[courseID]; ok {
		return sl
	}
	sl = &slot{}
	s.slots[courseID] = sl
	s.metrics.setEntries(len(s.slots))
	return sl
}
