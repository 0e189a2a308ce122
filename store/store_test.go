package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordRun(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	iou := 0.5
	clear := &Run{
		Variant:    "clear",
		Model:      "fasterrcnn",
		Backend:    "onnx",
		Device:     "cpu",
		Seed:       1 << 63,
		Images:     2,
		HasMetrics: true,
		Average:    0.75,
		Detections: 7,
		FPS:        3.5,
	}
	id, err := s.RecordRun(ctx, clear, []RunImage{
		{Image: "img_1", SourceID: "aachen_000000_000019", IoU: &iou, Detections: 3},
		{Image: "img_2", SourceID: "bonn_000000_000019", Detections: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, id, clear.ID)
	assert.False(t, clear.CreatedAt.IsZero())

	_, err = s.RecordRun(ctx, &Run{Variant: "foggy", Model: "fasterrcnn", Images: 2}, nil)
	require.NoError(t, err)

	runs, err := s.Runs(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "foggy", runs[0].Variant)
	assert.False(t, runs[0].HasMetrics)

	got := runs[1]
	assert.Equal(t, clear.Variant, got.Variant)
	assert.Equal(t, clear.Seed, got.Seed)
	assert.True(t, got.HasMetrics)
	assert.Equal(t, 0.75, got.Average)
	assert.Equal(t, 7, got.Detections)
	assert.WithinDuration(t, clear.CreatedAt, got.CreatedAt, time.Second)

	images, err := s.Images(ctx, id)
	require.NoError(t, err)
	require.Len(t, images, 2)
	require.NotNil(t, images[0].IoU)
	assert.Equal(t, 0.5, *images[0].IoU)
	assert.Nil(t, images[1].IoU)
	assert.Equal(t, "bonn_000000_000019", images[1].SourceID)
}

func TestRunsFilter(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	for _, v := range []string{"clear", "foggy", "clear", "clear"} {
		_, err := s.RecordRun(ctx, &Run{Variant: v, Model: "m"}, nil)
		require.NoError(t, err)
	}

	runs, err := s.Runs(ctx, Filter{Variant: "clear"})
	require.NoError(t, err)
	assert.Len(t, runs, 3)

	runs, err = s.Runs(ctx, Filter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, runs, 2)
	assert.Greater(t, runs[0].ID, runs[1].ID)
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.RecordRun(ctx, &Run{Variant: "clear", Model: "m"}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	runs, err := s.Runs(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
