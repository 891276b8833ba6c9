// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package updater

import (
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrUpdateNotFound is returned for unknown pending-update ids.
var ErrUpdateNotFound = errors.New("updater: pending update not found")

// PendingUpdate is one exported actual awaiting review. Exports
// mirror the golden store layout, so the relative path identifies the
// golden the update targets.
type PendingUpdate struct {
	// ID is the review id handed to clients.
	ID string `json:"id"`

	// RelPath is the export's path relative to the watch root, equal
	// to the golden's path relative to the store root.
	RelPath string `json:"path"`

	// ActualPath is the absolute export path.
	ActualPath string `json:"-"`

	// Class and Method identify the test; Name is the optional golden
	// qualifier parsed from the file name.
	Class  string `json:"test_class"`
	Method string `json:"test_method"`
	Name   string `json:"golden_name,omitempty"`

	// SeenAt is when the export was last written.
	SeenAt time.Time `json:"seen_at"`
}

// splitIdentity derives class/method/name from an export's relative
// path, <class>/<method>[__<name>].json. Method names may themselves
// contain single underscores, so exporters separate the optional
// golden qualifier with a double underscore.
func splitIdentity(relPath string) (class, method, name string) {
	class = filepath.Dir(relPath)
	if class == "." {
		class = ""
	}
	stem := strings.TrimSuffix(filepath.Base(relPath), ".json")
	if i := strings.Index(stem, "__"); i >= 0 {
		return class, stem[:i], stem[i+2:]
	}
	return class, stem, ""
}

// Index is the thread-safe set of pending updates, keyed both by id
// and by relative path so a re-exported actual replaces its entry
// rather than duplicating it.
type Index struct {
	mu     sync.RWMutex
	byID   map[string]*PendingUpdate
	byPath map[string]*PendingUpdate
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		byID:   map[string]*PendingUpdate{},
		byPath: map[string]*PendingUpdate{},
	}
}

// Upsert records an export, keeping the existing id when the same
// path is re-exported. Returns a copy of the update and whether it
// was new; like all accessors it never hands out memory the index
// still mutates.
func (x *Index) Upsert(relPath, actualPath string, seenAt time.Time) (PendingUpdate, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if existing, ok := x.byPath[relPath]; ok {
		existing.SeenAt = seenAt
		return *existing, false
	}

	class, method, name := splitIdentity(relPath)
	u := &PendingUpdate{
		ID:         uuid.NewString(),
		RelPath:    relPath,
		ActualPath: actualPath,
		Class:      class,
		Method:     method,
		Name:       name,
		SeenAt:     seenAt,
	}
	x.byID[u.ID] = u
	x.byPath[relPath] = u
	return *u, true
}

// Get returns a copy of the pending update with the given id.
func (x *Index) Get(id string) (PendingUpdate, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	u, ok := x.byID[id]
	if !ok {
		return PendingUpdate{}, ErrUpdateNotFound
	}
	return *u, nil
}

// Remove drops the update with the given id.
func (x *Index) Remove(id string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	u, ok := x.byID[id]
	if !ok {
		return ErrUpdateNotFound
	}
	delete(x.byID, id)
	delete(x.byPath, u.RelPath)
	return nil
}

// RemovePath drops the update for a relative path, if indexed.
func (x *Index) RemovePath(relPath string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if u, ok := x.byPath[relPath]; ok {
		delete(x.byID, u.ID)
		delete(x.byPath, relPath)
	}
}

// List returns copies of the pending updates sorted by path.
func (x *Index) List() []PendingUpdate {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]PendingUpdate, 0, len(x.byID))
	for _, u := range x.byID {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RelPath < out[j].RelPath })
	return out
}

// Len returns the number of pending updates.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.byID)
}
