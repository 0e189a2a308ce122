package ssd

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-eval/images"
	"github.com/nvr-ai/go-eval/models/model"
	"github.com/nvr-ai/go-eval/models/postprocess"
)

func TestPostProcess(t *testing.T) {
	m, err := NewModel(model.NewModelArgs{Path: "ssd.pb"})
	require.NoError(t, err)
	assert.Equal(t, model.ModelNameSSD, m.Options().Name)
	assert.Equal(t, 7, m.RowSize())

	output := []float32{
		0, 3, 0.8, 0.1, 0.2, 0.5, 0.6,
		0, 0, 0.9, 0.0, 0.0, 1.0, 1.0, // background
		0, 2, 0.2, 0.0, 0.0, 0.5, 0.5,
		0, 1, 0.7, 0.9, 0.9, 1.2, 1.2, // clamped to the frame
		-1, 0, 0, 0, 0, 0, 0, // padding
		0, 1, 0.9, 0.1, 0.1, 0.2, 0.2,
	}
	cfg := &postprocess.Config{MinScore: 0.3, Frame: image.Point{X: 200, Y: 100}}

	results := m.PostProcess(output, cfg)
	require.Len(t, results, 2)

	assert.Equal(t, 3, results[0].Class)
	assert.InDelta(t, 0.8, results[0].Score, 1e-6)
	assertRect(t, images.Rect{X1: 20, Y1: 20, X2: 100, Y2: 60}, results[0].Box)

	assertRect(t, images.Rect{X1: 180, Y1: 90, X2: 200, Y2: 100}, results[1].Box)

	assert.Nil(t, m.PostProcess(output[:5], cfg))
	assert.Nil(t, m.PostProcess(output, nil))
}

func assertRect(t *testing.T, expected, actual images.Rect) {
	t.Helper()
	assert.InDelta(t, expected.X1, actual.X1, 1e-3)
	assert.InDelta(t, expected.Y1, actual.Y1, 1e-3)
	assert.InDelta(t, expected.X2, actual.X2, 1e-3)
	assert.InDelta(t, expected.Y2, actual.Y2, 1e-3)
}
