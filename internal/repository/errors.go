package repository

import (
	"fmt"

	"github.com/containerd/errdefs"
)

// Error kinds returned by every Repository implementation. Each wraps an errdefs
// category so callers can match either the precise error or the category.
var (
	ErrCourseNotFound   = fmt.Errorf("course %w", errdefs.ErrNotFound)
	ErrStudentNotFound  = fmt.Errorf("student %w", errdefs.ErrNotFound)
	ErrDuplicateStudent = fmt.Errorf("student email %w in course", errdefs.ErrAlreadyExists)
	ErrInvalidRecord    = fmt.Errorf("record %w", errdefs.ErrInvalidArgument)
)
