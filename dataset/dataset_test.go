package dataset

import (
	"image"
	"image/color"
	"image/png"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-eval/images"
	"github.com/nvr-ai/go-eval/models"
)

func TestSampleIndices(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for _, tc := range []struct{ size, n int }{{500, 50}, {50, 50}, {1, 1}, {10000, 3}} {
		got, err := SampleIndices(rng, tc.size, tc.n)
		require.NoError(t, err)
		require.Len(t, got, tc.n)

		seen := make(map[int]bool, tc.n)
		for _, idx := range got {
			assert.GreaterOrEqual(t, idx, 0)
			assert.Less(t, idx, tc.size)
			assert.False(t, seen[idx], "duplicate index %d", idx)
			seen[idx] = true
		}
	}
}

func TestSampleIndicesErrors(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	_, err := SampleIndices(rng, 10, 11)
	assert.True(t, errors.Is(err, ErrSampleTooLarge))

	_, err = SampleIndices(rng, 10, 0)
	assert.True(t, errors.Is(err, ErrInvalidSampleSize))

	_, err = SampleIndices(rng, 10, -1)
	assert.True(t, errors.Is(err, ErrInvalidSampleSize))
}

func TestSampleIndicesUniform(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	counts := make([]int, 10)
	const trials = 20000
	for i := 0; i < trials; i++ {
		got, err := SampleIndices(rng, 10, 3)
		require.NoError(t, err)
		for _, idx := range got {
			counts[idx]++
		}
	}
	// Each index is expected trials*3/10 = 6000 times.
	for idx, c := range counts {
		assert.InDelta(t, 6000, c, 400, "index %d", idx)
	}
}

func TestSampler(t *testing.T) {
	a, err := NewSampler(42).Sample(1000, 50)
	require.NoError(t, err)
	b, err := NewSampler(42).Sample(1000, 50)
	require.NoError(t, err)
	c, err := NewSampler(43).Sample(1000, 50)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	assert.Equal(t, uint64(42), NewSampler(42).Seed())
	assert.NotZero(t, NewSampler(0).Seed())
}

func TestMemory(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	ds := NewMemory("clear", true, []Sample{{ID: "a", Image: img}, {ID: "b", Image: img}})

	assert.Equal(t, "clear", ds.Name())
	assert.Equal(t, 2, ds.Len())
	assert.True(t, ds.Annotated())

	s, err := ds.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Index)
	assert.Equal(t, "b", s.ID)

	_, err = ds.Get(2)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	_, err = ds.Get(-1)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestAnnotationRects(t *testing.T) {
	var nilAnn *Annotation
	assert.Nil(t, nilAnn.Rects())

	ann := &Annotation{Boxes: []GroundTruth{
		{Label: 1, Box: images.Rect{X1: 1, Y1: 2, X2: 3, Y2: 4}},
	}}
	assert.Equal(t, []images.Rect{{X1: 1, Y1: 2, X2: 3, Y2: 4}}, ann.Rects())
}

const polygonJSON = `{
  "imgHeight": 100,
  "imgWidth": 200,
  "objects": [
    {"label": "car", "polygon": [[10, 20], [50, 20], [50, 60], [10, 60]]},
    {"label": "road", "polygon": [[0, 0], [199, 0], [199, 99]]},
    {"label": "persongroup", "polygon": [[150, 10], [250, 40], [160, 30]]},
    {"label": "bicycle", "deleted": 1, "polygon": [[1, 1], [5, 5]]},
    {"label": "rider", "polygon": [[5, 5], [5, 9]]}
  ]
}`

func TestParsePolygons(t *testing.T) {
	classes, err := models.NewCityscapesClassSet(models.DefaultCityscapesTargets)
	require.NoError(t, err)

	ann, err := ParsePolygons([]byte(polygonJSON), classes)
	require.NoError(t, err)
	require.Len(t, ann.Boxes, 2)

	car, _ := classes.FromSource(26)
	assert.Equal(t, car, ann.Boxes[0].Label)
	assert.Equal(t, images.Rect{X1: 10, Y1: 20, X2: 50, Y2: 60}, ann.Boxes[0].Box)

	person, _ := classes.FromSource(24)
	assert.Equal(t, person, ann.Boxes[1].Label)
	assert.Equal(t, images.Rect{X1: 150, Y1: 10, X2: 200, Y2: 40}, ann.Boxes[1].Box)

	_, err = ParsePolygons([]byte("{"), classes)
	assert.Error(t, err)
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestCityscapes(t *testing.T) {
	root := t.TempDir()
	stems := []string{"aachen_000000_000019", "aachen_000001_000019", "bonn_000000_000019"}
	for _, stem := range stems {
		city := stem[:len(stem)-len("_000000_000019")]
		writePNG(t, filepath.Join(root, "leftImg8bit", "val", city, stem+"_leftImg8bit.png"))
		writePNG(t, filepath.Join(root, "leftImg8bit_foggy", "val", city, stem+"_leftImg8bit_foggy_beta_0.02.png"))
		writePNG(t, filepath.Join(root, "leftImg8bit_foggy", "val", city, stem+"_leftImg8bit_foggy_beta_0.01.png"))
		gt := filepath.Join(root, "gtFine", "val", city, stem+"_gtFine_polygons.json")
		require.NoError(t, os.MkdirAll(filepath.Dir(gt), 0o755))
		require.NoError(t, os.WriteFile(gt, []byte(polygonJSON), 0o644))
	}

	classes, err := models.NewCityscapesClassSet(models.DefaultCityscapesTargets)
	require.NoError(t, err)

	t.Run("clear", func(t *testing.T) {
		ds, err := NewCityscapes(CityscapesConfig{Root: root, Classes: classes})
		require.NoError(t, err)
		assert.Equal(t, "clear", ds.Name())
		assert.True(t, ds.Annotated())
		assert.Equal(t, 3, ds.Len())

		s, err := ds.Get(2)
		require.NoError(t, err)
		assert.Equal(t, "bonn_000000_000019", s.ID)
		assert.Equal(t, 8, s.Image.Bounds().Dx())
		require.NotNil(t, s.Annotation)
		assert.Len(t, s.Annotation.Boxes, 2)

		_, err = ds.Get(3)
		assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	})

	t.Run("foggy", func(t *testing.T) {
		ds, err := NewCityscapes(CityscapesConfig{Root: root, Foggy: true})
		require.NoError(t, err)
		assert.Equal(t, "foggy", ds.Name())
		assert.False(t, ds.Annotated())
		assert.Equal(t, 3, ds.Len())

		s, err := ds.Get(0)
		require.NoError(t, err)
		assert.Equal(t, "aachen_000000_000019", s.ID)
		assert.Nil(t, s.Annotation)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := NewCityscapes(CityscapesConfig{Root: root, Split: "test", Classes: classes})
		assert.Error(t, err)

		_, err = NewCityscapes(CityscapesConfig{Root: root})
		assert.Error(t, err)
	})
}
