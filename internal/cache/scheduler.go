package cache

import (
	"context"
	"time"

	"github.com/bassista/go_courses/internal/logger"
	"github.com/bassista/go_courses/internal/repository"
)

// StartSweeper runs a goroutine that periodically drops cache entries whose course
// no longer exists in the repository (e.g. deleted by another process).
// Returns a channel that is closed when the sweeper has stopped.
func StartSweeper(
	ctx context.Context,
	store SweepableStore,
	lister repository.CourseLister,
	interval time.Duration,
) <-chan struct{} {
	done := make(chan struct{})
	logger.WithComponent("cache-sweeper").Debugf("starting cache sweeper with interval: %v", interval)
	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.WithComponent("cache-sweeper").Info("cache sweeper stopped")
				return
			case <-ticker.C:
				sweep(ctx, store, lister)
			}
		}
	}()
	return done
}

func sweep(ctx context.Context, store SweepableStore, lister repository.CourseLister) {
	if err := ctx.Err(); err != nil {
		logger.WithComponent("cache-sweeper").Debugf("sweep cancelled: %v", err)
		return
	}

	ids, err := lister.ListCourseIDs(ctx)
	if err != nil {
		logger.WithComponent("cache-sweeper").Errorf("sweep error: failed to list courses: %v", err)
		return
	}

	if removed := store.Retain(ids); removed > 0 {
		logger.WithComponent("cache-sweeper").Infof("dropped %d entries of deleted courses", removed)
		return
	}
	logger.WithComponent("cache-sweeper").Tracef("nothing to sweep")
}
