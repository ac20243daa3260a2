// Package course implements the mutation and read operations of the Course aggregate.
// Every successful mutation invalidates the course's diversity cache entry after
// the underlying write has committed.
package course

import (
	"context"
	"fmt"
	"time"

	"github.com/bassista/go_courses/internal/cache"
	"github.com/bassista/go_courses/internal/diversity"
	"github.com/bassista/go_courses/internal/logger"
	"github.com/bassista/go_courses/internal/repository"
)

// View is a course as returned to callers: counts and diversity instead of the member list.
type View struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	MaxCapacity     int       `json:"maxCapacity"`
	CurrentStudents int       `json:"currentStudents"`
	DiversityIndex  float64   `json:"diversityIndex"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// UpdateInput carries the fields of a partial update. Nil fields are left unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
	MaxCapacity *int
}

type Service struct {
	repo  repository.Repository
	cache cache.DiversityCache
}

func NewService(repo repository.Repository, c cache.DiversityCache) *Service {
	return &Service{repo: repo, cache: c}
}

// CreateCourse persists a new, empty course.
func (s *Service) CreateCourse(ctx context.Context, name, description string, maxCapacity int) (View, error) {
	if maxCapacity < 1 {
		return View{}, ErrInvalidCapacity
	}

	c := repository.Course{Name: name, Description: description, MaxCapacity: maxCapacity}
	if err := s.repo.InsertCourse(ctx, &c); err != nil {
		return View{}, fmt.Errorf("create course: %w", err)
	}
	s.cache.Invalidate(c.ID)

	logger.WithComponent("course-service").Infof("course %s created (capacity %d)", c.ID, c.MaxCapacity)
	return View{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		MaxCapacity: c.MaxCapacity,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}, nil
}

// UpdateCourse applies the non-nil fields of in. Lowering the capacity below the
// current enrollment fails with ErrCapacityBelowEnrollment and changes nothing.
func (s *Service) UpdateCourse(ctx context.Context, id string, in UpdateInput) (View, error) {
	var updated repository.Course
	err := s.repo.WithinTx(ctx, func(tx repository.Store) error {
		c, err := tx.FindCourse(ctx, id)
		if err != nil {
			return err
		}
		if in.MaxCapacity != nil && *in.MaxCapacity < 1 {
			return ErrInvalidCapacity
		}
		if in.MaxCapacity != nil && *in.MaxCapacity < c.Enrolled() {
			logger.WithComponent("course-service").Debugf("course %s: capacity %d rejected, %d enrolled", id, *in.MaxCapacity, c.Enrolled())
			return ErrCapacityBelowEnrollment
		}
		if in.Name != nil {
			c.Name = *in.Name
		}
		if in.Description != nil {
			c.Description = *in.Description
		}
		if in.MaxCapacity != nil {
			c.MaxCapacity = *in.MaxCapacity
		}
		if err := tx.UpdateCourse(ctx, &c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return View{}, fmt.Errorf("update course %s: %w", id, err)
	}
	s.cache.Invalidate(id)

	logger.WithComponent("course-service").Debugf("course %s updated", id)
	return s.view(updated), nil
}

// DeleteCourse removes the course and all of its students.
func (s *Service) DeleteCourse(ctx context.Context, id string) error {
	removed := 0
	err := s.repo.WithinTx(ctx, func(tx repository.Store) error {
		c, err := tx.FindCourse(ctx, id)
		if err != nil {
			return err
		}
		removed = c.Enrolled()
		return tx.DeleteCourse(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete course %s: %w", id, err)
	}
	s.cache.Invalidate(id)

	logger.WithComponent("course-service").Infof("course %s deleted with %d students", id, removed)
	return nil
}

// AddStudent enrolls a student. Checks run in order: course exists, seat available,
// email not already enrolled in this course.
func (s *Service) AddStudent(ctx context.Context, courseID, name, email string) (repository.Student, error) {
	st := repository.Student{Name: name, Email: email, CourseID: courseID}
	err := s.repo.WithinTx(ctx, func(tx repository.Store) error {
		c, err := tx.FindCourse(ctx, courseID)
		if err != nil {
			return err
		}
		if c.Enrolled() >= c.MaxCapacity {
			return ErrCapacityExceeded
		}
		exists, err := tx.StudentEmailExists(ctx, courseID, email)
		if err != nil {
			return err
		}
		if exists {
			return repository.ErrDuplicateStudent
		}
		return tx.InsertStudent(ctx, &st)
	})
	if err != nil {
		return repository.Student{}, fmt.Errorf("add student to course %s: %w", courseID, err)
	}
	s.cache.Invalidate(courseID)

	logger.WithComponent("course-service").Debugf("student %s enrolled in course %s", st.ID, courseID)
	return st, nil
}

// RemoveStudent deletes a student from whichever course owns it.
func (s *Service) RemoveStudent(ctx context.Context, studentID string) error {
	var courseID string
	err := s.repo.WithinTx(ctx, func(tx repository.Store) error {
		st, err := tx.FindStudent(ctx, studentID)
		if err != nil {
			return err
		}
		courseID = st.CourseID
		return tx.DeleteStudent(ctx, studentID)
	})
	if err != nil {
		return fmt.Errorf("remove student %s: %w", studentID, err)
	}
	s.cache.Invalidate(courseID)

	logger.WithComponent("course-service").Debugf("student %s removed from course %s", studentID, courseID)
	return nil
}

func (s *Service) GetCourse(ctx context.Context, id string) (View, error) {
	c, err := s.repo.FindCourse(ctx, id)
	if err != nil {
		return View{}, fmt.Errorf("get course %s: %w", id, err)
	}
	return s.view(c), nil
}

func (s *Service) ListCourses(ctx context.Context) ([]View, error) {
	courses, err := s.repo.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	views := make([]View, len(courses))
	for i, c := range courses {
		views[i] = s.view(c)
	}
	return views, nil
}

func (s *Service) ListStudents(ctx context.Context, courseID string) ([]repository.Student, error) {
	students, err := s.repo.ListStudents(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list students of course %s: %w", courseID, err)
	}
	return students, nil
}

// DiversityDetails returns the per-domain breakdown of a course together with its
// cached diversity index.
func (s *Service) DiversityDetails(ctx context.Context, courseID string) (diversity.Details, error) {
	c, err := s.repo.FindCourse(ctx, courseID)
	if err != nil {
		return diversity.Details{}, fmt.Errorf("diversity of course %s: %w", courseID, err)
	}
	d := diversity.Breakdown(c.Students)
	d.DiversityIndex = s.cache.Get(c.ID, c.Students)
	return d, nil
}

func (s *Service) view(c repository.Course) View {
	return View{
		ID:              c.ID,
		Name:            c.Name,
		Description:     c.Description,
		MaxCapacity:     c.MaxCapacity,
		CurrentStudents: c.Enrolled(),
		DiversityIndex:  s.cache.Get(c.ID, c.Students),
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}
