package repository

import "context"

// Store is the set of record operations shared by a plain Repository and a
// transaction-bound view of it.
type Store interface {
	// InsertCourse assigns ID and timestamps to c and persists it.
	InsertCourse(ctx context.Context, c *Course) error
	// FindCourse returns the course with its students. Inside WithinTx the course
	// is locked until the transaction ends.
	FindCourse(ctx context.Context, id string) (Course, error)
	ListCourses(ctx context.Context) ([]Course, error)
	// UpdateCourse writes name, description and max capacity and refreshes UpdatedAt.
	UpdateCourse(ctx context.Context, c *Course) error
	// DeleteCourse removes the course and, by cascade, all of its students.
	DeleteCourse(ctx context.Context, id string) error

	InsertStudent(ctx context.Context, s *Student) error
	FindStudent(ctx context.Context, id string) (Student, error)
	StudentEmailExists(ctx context.Context, courseID, email string) (bool, error)
	DeleteStudent(ctx context.Context, id string) error
	ListStudents(ctx context.Context, courseID string) ([]Student, error)
}

// CourseLister is the minimal API needed by background jobs that only enumerate courses.
type CourseLister interface {
	ListCourseIDs(ctx context.Context) ([]string, error)
}

// Repository is the persistence gateway. PostgresRepository and MemoryRepository
// implement it.
type Repository interface {
	Store
	CourseLister
	// WithinTx runs fn against a transaction-bound Store. fn's writes are committed
	// only if it returns nil.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
	Close()
}
