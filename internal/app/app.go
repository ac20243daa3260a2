package app

import (
	"context"
	"errors"

	"github.com/bassista/go_courses/internal/cache"
	"github.com/bassista/go_courses/internal/config"
	"github.com/bassista/go_courses/internal/course"
	"github.com/bassista/go_courses/internal/logger"
	"github.com/bassista/go_courses/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
)

// App is the application container (immutable dependencies + lifecycle context).
// It is not a request context; handlers should still use gin's request context.
type App struct {
	Config   *config.Config
	Repo     repository.Repository
	Cache    cache.AppStore
	Courses  *course.Service
	Registry *prometheus.Registry

	BaseCtx context.Context
	Cancel  context.CancelFunc

	sweeperDone <-chan struct{}
}

func New(cfg *config.Config, repo repository.Repository, store cache.AppStore, reg *prometheus.Registry) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if repo == nil {
		return nil, errors.New("repo is nil")
	}
	if store == nil {
		return nil, errors.New("cache store is nil")
	}
	if reg == nil {
		return nil, errors.New("metrics registry is nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		Config:   cfg,
		Repo:     repo,
		Cache:    store,
		Courses:  course.NewService(repo, store),
		Registry: reg,
		BaseCtx:  ctx,
		Cancel:   cancel,
	}, nil
}

// Shutdown stops background goroutines and releases the repository.
func (a *App) Shutdown() {
	if a == nil || a.Cancel == nil {
		return
	}
	a.Cancel()
	if a.sweeperDone != nil {
		<-a.sweeperDone
	}
	if a.Repo != nil {
		a.Repo.Close()
	}
}

// StartWatchers starts the config file watcher and the cache sweeper.
func (a *App) StartWatchers() {
	config.Watch(a.applyConfig)
	a.sweeperDone = cache.StartSweeper(a.BaseCtx, a.Cache, a.Repo, a.Config.Cache.SweepInterval)
}

// applyConfig applies the settings that can change at runtime.
func (a *App) applyConfig(cfg *config.Config) {
	if err := logger.ApplyLevel(cfg.Misc.LogLevel); err != nil {
		logger.WithComponent("app").Warnf("config reload: %v", err)
	}
}
