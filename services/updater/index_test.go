// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package updater

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitIdentity(t *testing.T) {
	tests := []struct {
		relPath string
		class   string
		method  string
		name    string
	}{
		{"SlideTest/box_slides.json", "SlideTest", "box_slides", ""},
		{"SlideTest/box_slides__portrait.json", "SlideTest", "box_slides", "portrait"},
		{"FadeTest/alpha_ramps_up__dark_mode.json", "FadeTest", "alpha_ramps_up", "dark_mode"},
		{"orphan.json", "", "orphan", ""},
	}
	for _, tc := range tests {
		class, method, name := splitIdentity(tc.relPath)
		assert.Equal(t, tc.class, class, tc.relPath)
		assert.Equal(t, tc.method, method, tc.relPath)
		assert.Equal(t, tc.name, name, tc.relPath)
	}
}

func TestIndex_UpsertKeepsID(t *testing.T) {
	idx := NewIndex()
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	first, created := idx.Upsert("T/m.json", "/tmp/exports/T/m.json", t0)
	require.True(t, created)
	require.NotEmpty(t, first.ID)
	assert.Equal(t, "T", first.Class)
	assert.Equal(t, "m", first.Method)

	second, created := idx.Upsert("T/m.json", "/tmp/exports/T/m.json", t0.Add(time.Minute))
	require.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, t0.Add(time.Minute), second.SeenAt)
	assert.Equal(t, 1, idx.Len())
}

func TestIndex_AccessorsReturnCopies(t *testing.T) {
	idx := NewIndex()
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	u, _ := idx.Upsert("T/m.json", "/tmp/T/m.json", t0)

	listed := idx.List()
	require.Len(t, listed, 1)
	got, err := idx.Get(u.ID)
	require.NoError(t, err)

	// A re-export must not reach into snapshots handed out earlier;
	// handlers serialize them outside the index lock.
	idx.Upsert("T/m.json", "/tmp/T/m.json", t0.Add(time.Minute))

	assert.Equal(t, t0, listed[0].SeenAt)
	assert.Equal(t, t0, got.SeenAt)

	refreshed, err := idx.Get(u.ID)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(time.Minute), refreshed.SeenAt)
}

func TestIndex_GetRemove(t *testing.T) {
	idx := NewIndex()
	u, _ := idx.Upsert("T/m.json", "/tmp/T/m.json", time.Now())

	got, err := idx.Get(u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = idx.Get("no-such-id")
	assert.ErrorIs(t, err, ErrUpdateNotFound)

	require.NoError(t, idx.Remove(u.ID))
	assert.ErrorIs(t, idx.Remove(u.ID), ErrUpdateNotFound)
	assert.Equal(t, 0, idx.Len())
}

func TestIndex_RemovePath(t *testing.T) {
	idx := NewIndex()
	u, _ := idx.Upsert("T/m.json", "/tmp/T/m.json", time.Now())

	idx.RemovePath("T/m.json")
	_, err := idx.Get(u.ID)
	assert.ErrorIs(t, err, ErrUpdateNotFound)

	// Unknown paths are a no-op.
	idx.RemovePath("T/other.json")
}

func TestIndex_ListSortedByPath(t *testing.T) {
	idx := NewIndex()
	idx.Upsert("B/m.json", "/tmp/B/m.json", time.Now())
	idx.Upsert("A/m.json", "/tmp/A/m.json", time.Now())
	idx.Upsert("A/a.json", "/tmp/A/a.json", time.Now())

	list := idx.List()
	require.Len(t, list, 3)
	assert.Equal(t, "A/a.json", list[0].RelPath)
	assert.Equal(t, "A/m.json", list[1].RelPath)
	assert.Equal(t, "B/m.json", list[2].RelPath)
}
