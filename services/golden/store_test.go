// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package golden

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/MotionLens/services/motion"
)

func sampleSeries(t *testing.T) *motion.TimeSeries {
	t.Helper()
	frames := []motion.FrameID{
		motion.SupplementalFrame(motion.LabelBefore),
		motion.TimestampFrame(0),
		motion.TimestampFrame(500),
	}
	ts, err := motion.NewTimeSeries(frames, []motion.Feature{
		{Name: "x", DataPoints: []motion.DataPoint{
			motion.NotFoundPoint(),
			motion.FloatPoint(0),
			motion.FloatPoint(50),
		}},
		{Name: "visible", DataPoints: []motion.DataPoint{
			motion.NullPoint(),
			motion.BoolPoint(true),
			motion.BoolPoint(true),
		}},
	})
	require.NoError(t, err)
	return ts
}

func TestStore_Path(t *testing.T) {
	store := NewStore("/goldens")
	assert.Equal(t, filepath.Join("/goldens", "FadeTest", "box_slides.json"),
		store.Path("FadeTest", "box_slides", ""))
	assert.Equal(t, filepath.Join("/goldens", "FadeTest", "box_slides__portrait.json"),
		store.Path("FadeTest", "box_slides", "portrait"))
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	ts := sampleSeries(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "FadeTest", "box_slides", "", ts))

	loaded, err := store.Load(ctx, "FadeTest", "box_slides", "")
	require.NoError(t, err)

	result := Compare(ts, loaded)
	assert.True(t, result.Passed, "round-tripped golden should compare equal: %s", result)
	assert.Equal(t, ts.Frames(), loaded.Frames())
}

func TestStore_LoadMissing(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Load(context.Background(), "FadeTest", "never_recorded", "")
	assert.ErrorIs(t, err, ErrGoldenNotFound)
}

func TestStore_SaveIsAtomic(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "C", "m", "", sampleSeries(t)))

	entries, err := os.ReadDir(filepath.Join(dir, "C"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "m.json", entries[0].Name())
}

func TestEncode_DocumentShape(t *testing.T) {
	data, err := Encode(sampleSeries(t))
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "frames")
	assert.Contains(t, doc, "features")

	var frames []json.RawMessage
	require.NoError(t, json.Unmarshal(doc["frames"], &frames))
	assert.Equal(t, `"before"`, string(frames[0]))
	assert.Equal(t, `0`, string(frames[1]))
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode([]byte(`{"frames": [0, 16], "features": {"x": [null]}}`))
	assert.Error(t, err, "length mismatch must fail decode")

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestSubject_VerifyAndRecord(t *testing.T) {
	store := NewStore(t.TempDir())
	subject := NewSubject(store)
	ctx := context.Background()

	recorded := &motion.RecordedMotion{
		TestClass:  "FadeTest",
		TestMethod: "box_slides",
		TimeSeries: sampleSeries(t),
	}

	_, err := subject.Verify(ctx, recorded, "")
	assert.ErrorIs(t, err, ErrGoldenNotFound)

	require.NoError(t, subject.Record(ctx, recorded, ""))

	result, err := subject.Verify(ctx, recorded, "")
	require.NoError(t, err)
	assert.True(t, result.Passed)
}
