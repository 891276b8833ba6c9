// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package updater

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/MotionLens/pkg/logging"
	"github.com/AleutianAI/MotionLens/services/golden"
)

// Service is the golden review service: watcher, pending index, and
// HTTP API over one golden store.
type Service struct {
	watchRoot string
	store     *golden.Store
	index     *Index
	watcher   *ActualsWatcher
	logger    *logging.Logger
	debounce  time.Duration
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger used by the service.
func WithLogger(logger *logging.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithDebounce overrides the watcher debounce window.
func WithDebounce(d time.Duration) ServiceOption {
	return func(s *Service) { s.debounce = d }
}

// NewService builds a review service watching watchRoot for exports
// targeting store.
func NewService(watchRoot string, store *golden.Store, opts ...ServiceOption) *Service {
	s := &Service{
		watchRoot: watchRoot,
		store:     store,
		index:     NewIndex(),
		debounce:  DefaultDebounce,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Default()
	}
	return s
}

// Start scans existing exports and begins watching for new ones.
func (s *Service) Start(ctx context.Context) error {
	if err := s.scanExisting(); err != nil {
		return err
	}
	watcher, err := NewActualsWatcher(s.watchRoot, s.onChanges, s.debounce)
	if err != nil {
		return err
	}
	s.watcher = watcher
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	s.logger.Info("updater watching", "root", s.watchRoot, "pending", s.index.Len())
	return nil
}

// Stop shuts the watcher down.
func (s *Service) Stop() {
	if s.watcher != nil {
		s.watcher.Stop()
	}
}

// scanExisting indexes exports already present at startup.
func (s *Service) scanExisting() error {
	err := filepath.WalkDir(s.watchRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !isActual(path) {
			return nil
		}
		s.indexActual(path)
		return nil
	})
	if err != nil {
		return err
	}
	pendingUpdates.Set(float64(s.index.Len()))
	return nil
}

// onChanges is the watcher handler.
func (s *Service) onChanges(changes []ActualChange) {
	for _, c := range changes {
		rel, err := filepath.Rel(s.watchRoot, c.Path)
		if err != nil {
			continue
		}
		if c.Removed {
			s.index.RemovePath(rel)
			continue
		}
		s.indexActual(c.Path)
	}
	pendingUpdates.Set(float64(s.index.Len()))
}

func (s *Service) indexActual(path string) {
	rel, err := filepath.Rel(s.watchRoot, path)
	if err != nil {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		updatesDetected.WithLabelValues("invalid").Inc()
		return
	}
	if _, err := golden.Decode(data); err != nil {
		s.logger.Warn("ignoring invalid export", "path", rel, "error", err)
		updatesDetected.WithLabelValues("invalid").Inc()
		return
	}
	u, created := s.index.Upsert(rel, path, time.Now())
	if created {
		updatesDetected.WithLabelValues("new").Inc()
		s.logger.Info("pending update", "id", u.ID, "path", rel)
	} else {
		updatesDetected.WithLabelValues("refreshed").Inc()
	}
}

// Router builds the HTTP API.
func (s *Service) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "pending": s.index.Len()})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	v1.GET("/goldens", s.handleList())
	v1.GET("/goldens/:id/diff", s.handleDiff())
	v1.POST("/goldens/:id/accept", s.handleAccept())
	return router
}

// handleList returns the pending updates.
func (s *Service) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"goldens": s.index.List()})
	}
}

// handleDiff computes the structured diff for one pending update.
func (s *Service) handleDiff() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		u, err := s.index.Get(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		d, err := computeDiff(c.Request.Context(), s.store, u)
		if err != nil {
			diffLatency.WithLabelValues("error").Observe(time.Since(start).Seconds())
			s.logger.Error("diff failed", "id", u.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		status := "ok"
		if d.Status == StatusMissingGolden {
			status = "missing_golden"
		}
		diffLatency.WithLabelValues(status).Observe(time.Since(start).Seconds())
		c.JSON(http.StatusOK, d)
	}
}

// handleAccept copies the exported actual over the golden and drops
// the pending entry.
func (s *Service) handleAccept() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := s.index.Get(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}

		data, err := os.ReadFile(u.ActualPath)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		series, err := golden.Decode(data)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		if err := s.store.Save(c.Request.Context(), u.Class, u.Method, u.Name, series); err != nil {
			if errors.Is(err, os.ErrPermission) {
				c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		s.index.Remove(u.ID)
		pendingUpdates.Set(float64(s.index.Len()))
		updatesAccepted.Inc()
		s.logger.Info("golden updated", "path", u.RelPath)
		c.JSON(http.StatusOK, gin.H{"status": "accepted", "path": u.RelPath})
	}
}
