package cache

import "github.com/bassista/go_courses/internal/repository"

// IndexReader is the minimal cache API for read-only queries.
type IndexReader interface {
	Get(courseID string, students []repository.Student) float64
}

// Invalidator is the cache API needed by mutations.
type Invalidator interface {
	Invalidate(courseID string)
}

// DiversityCache is the cache API needed by the course service.
type DiversityCache interface {
	IndexReader
	Invalidator
}

// SweepableStore is the cache API needed by the sweeper.
type SweepableStore interface {
	Retain(courseIDs []string) int
}

// AppStore is the cache contract the application container exposes.
type AppStore interface {
	DiversityCache
	SweepableStore
	InvalidateAll()
	Len() int
}
