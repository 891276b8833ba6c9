// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package updater is the golden review service: it watches a
// directory where test runs export their actual time series, indexes
// each export as a pending update against the golden store, and
// serves an HTTP API to inspect diffs and accept updates.
package updater

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ActualChange is one debounced change to an exported actual file.
type ActualChange struct {
	// Path is the absolute path of the changed export.
	Path string

	// Removed is true when the export disappeared.
	Removed bool
}

// ActualsHandler receives debounced change batches.
type ActualsHandler func(changes []ActualChange)

// ActualsWatcher watches the exports directory for golden documents.
//
// # Description
//
// Test runs drop actual JSON documents under the watch root, mirroring
// the golden store layout (<class>/<method>[__<name>].json). Writes are
// debounced so a document being streamed out by a test run triggers
// one index update, not one per write syscall.
//
// # Thread Safety
//
// Safe for concurrent use. The handler runs on a single goroutine.
type ActualsWatcher struct {
	root     string
	watcher  *fsnotify.Watcher
	handler  ActualsHandler
	debounce time.Duration

	changes  chan ActualChange
	done     chan struct{}
	stopOnce sync.Once
}

// DefaultDebounce is how long the watcher waits for more writes
// before reporting a batch.
const DefaultDebounce = 200 * time.Millisecond

// NewActualsWatcher creates a watcher over root. debounce <= 0 uses
// DefaultDebounce.
func NewActualsWatcher(root string, handler ActualsHandler, debounce time.Duration) (*ActualsWatcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &ActualsWatcher{
		root:     root,
		watcher:  fsw,
		handler:  handler,
		debounce: debounce,
		changes:  make(chan ActualChange, 256),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching root and its subdirectories.
func (w *ActualsWatcher) Start(ctx context.Context) error {
	if err := w.addRecursive(w.root); err != nil {
		return err
	}
	go w.processEvents(ctx)
	go w.debounceLoop(ctx)
	return nil
}

// Stop shuts the watcher down. Safe to call more than once.
func (w *ActualsWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()
	})
}

func (w *ActualsWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		return w.watcher.Add(path)
	})
}

// isActual reports whether a path is an exported document.
func isActual(path string) bool {
	return strings.HasSuffix(path, ".json") && !strings.HasSuffix(path, ".tmp")
}

func (w *ActualsWatcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// New class directories appear as tests export into them.
			if event.Has(fsnotify.Create) {
				if ok, err := isDir(event.Name); err == nil && ok {
					w.watcher.Add(event.Name)
					continue
				}
			}
			if !isActual(event.Name) {
				continue
			}
			change := ActualChange{
				Path:    event.Name,
				Removed: event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename),
			}
			select {
			case w.changes <- change:
			default:
				// Buffer full; the debouncer rescans on the next event.
			}
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func isDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

func (w *ActualsWatcher) debounceLoop(ctx context.Context) {
	var batch []ActualChange
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if len(batch) > 0 && w.handler != nil {
			w.handler(dedupe(batch))
			batch = batch[:0]
		}
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-w.done:
			flush()
			return
		case change := <-w.changes:
			batch = append(batch, change)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			flush()
		}
	}
}

// dedupe keeps the latest change per path.
func dedupe(changes []ActualChange) []ActualChange {
	seen := make(map[string]int, len(changes))
	out := make([]ActualChange, 0, len(changes))
	for _, c := range changes {
		if i, ok := seen[c.Path]; ok {
			out[i] = c
			continue
		}
		seen[c.Path] = len(out)
		out = append(out, c)
	}
	return out
}
