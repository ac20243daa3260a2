package course

import (
	"fmt"

	"github.com/containerd/errdefs"
)

// Aggregate rule violations. Missing records and duplicate emails are reported
// with the repository error kinds.
var (
	ErrCapacityExceeded        = fmt.Errorf("course is at full capacity: %w", errdefs.ErrConflict)
	ErrCapacityBelowEnrollment = fmt.Errorf("max capacity below current enrollment: %w", errdefs.ErrConflict)
	ErrInvalidCapacity         = fmt.Errorf("max capacity must be a positive integer: %w", errdefs.ErrInvalidArgument)
)
