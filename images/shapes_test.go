package images

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIoU_Correctness validates the IoU implementation against known test cases
func TestIoU_Correctness(t *testing.T) {
	tests := []struct {
		name     string
		r1       Rect
		r2       Rect
		expected float32
	}{
		{"Identical rectangles", Rect{0, 0, 100, 100}, Rect{0, 0, 100, 100}, 1.0},
		{"No overlap", Rect{0, 0, 100, 100}, Rect{200, 200, 300, 300}, 0.0},
		{"Touching edges", Rect{0, 0, 100, 100}, Rect{100, 0, 200, 100}, 0.0},
		// intersection=2500, union=17500
		{"Half overlap", Rect{0, 0, 100, 100}, Rect{50, 50, 150, 150}, 0.142857},
		// intersection=100, union=19900
		{"Small overlap", Rect{0, 0, 100, 100}, Rect{90, 90, 190, 190}, 0.005025},
		{"One inside other", Rect{0, 0, 100, 100}, Rect{25, 25, 75, 75}, 0.25},
		{"Sub-pixel boxes", Rect{0.5, 0.5, 10.5, 10.5}, Rect{0.5, 0.5, 10.5, 5.5}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateIoU(tt.r1, tt.r2)
			assert.InDelta(t, tt.expected, result, 0.001)

			// IoU(A, B) == IoU(B, A)
			assert.InDelta(t, result, CalculateIoU(tt.r2, tt.r1), 0.0001)
		})
	}
}

// TestIoU_vs_ImageRectangle compares our implementation against image.Rectangle
func TestIoU_vs_ImageRectangle(t *testing.T) {
	testCases := []struct {
		name string
		r1   image.Rectangle
		r2   image.Rectangle
	}{
		{"No overlap", image.Rect(0, 0, 100, 100), image.Rect(200, 200, 300, 300)},
		{"Partial overlap", image.Rect(0, 0, 100, 100), image.Rect(50, 50, 150, 150)},
		{"Full overlap", image.Rect(50, 50, 150, 150), image.Rect(50, 50, 150, 150)},
		{"One inside other", image.Rect(0, 0, 100, 100), image.Rect(25, 25, 75, 75)},
		{"Large boxes", image.Rect(0, 0, 1920, 1080), image.Rect(960, 540, 1920, 1080)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			custom := CalculateIoU(RectFromRectangle(tc.r1), RectFromRectangle(tc.r2))
			assert.InDelta(t, imageRectangleIoU(tc.r1, tc.r2), custom, 0.0001)
		})
	}
}

func imageRectangleIoU(r1, r2 image.Rectangle) float32 {
	intersect := r1.Intersect(r2)
	if intersect.Empty() {
		return 0.0
	}

	intersectArea := intersect.Dx() * intersect.Dy()
	union := r1.Dx()*r1.Dy() + r2.Dx()*r2.Dy() - intersectArea

	return float32(intersectArea) / float32(union)
}

// TestIoU_EdgeCases tests edge cases and boundary conditions
func TestIoU_EdgeCases(t *testing.T) {
	tests := []struct {
		name string
		r1   Rect
		r2   Rect
	}{
		{"Zero area rectangle 1", Rect{0, 0, 0, 0}, Rect{0, 0, 100, 100}},
		{"Zero area rectangle 2", Rect{0, 0, 100, 100}, Rect{50, 50, 50, 50}},
		{"Both zero area", Rect{0, 0, 0, 0}, Rect{10, 10, 10, 10}},
		{"Inverted box", Rect{100, 100, 0, 0}, Rect{0, 0, 100, 100}},
		{"Negative coordinates", Rect{-100, -100, 0, 0}, Rect{-50, -50, 50, 50}},
		{"Single pixel", Rect{0, 0, 1, 1}, Rect{0, 0, 1, 1}},
		{"Very large coordinates", Rect{0, 0, 99999, 99999}, Rect{50000, 50000, 99999, 99999}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateIoU(tt.r1, tt.r2)
			assert.GreaterOrEqual(t, result, float32(0))
			assert.LessOrEqual(t, result, float32(1))

			reverse := CalculateIoU(tt.r2, tt.r1)
			assert.GreaterOrEqual(t, reverse, float32(0))
			assert.LessOrEqual(t, reverse, float32(1))
		})
	}
}

func TestRect_Geometry(t *testing.T) {
	r := Rect{X1: 10, Y1: 20, X2: 40, Y2: 80}
	assert.Equal(t, float32(30), r.Width())
	assert.Equal(t, float32(60), r.Height())
	assert.Equal(t, float32(1800), r.Area())
	assert.False(t, r.Empty())

	assert.Equal(t, Rect{X1: 20, Y1: 10, X2: 80, Y2: 40}, r.Scale(2, 0.5))
	assert.Equal(t, Rect{X1: 10, Y1: 20, X2: 32, Y2: 32}, r.Clamp(32, 32))
	assert.Equal(t, image.Rect(10, 20, 40, 80), r.Rectangle())

	inverted := Rect{X1: 5, Y1: 5, X2: 1, Y2: 1}
	assert.True(t, inverted.Empty())
	assert.Equal(t, float32(0), inverted.Area())
}

func TestPairwiseIoU(t *testing.T) {
	gt := []Rect{{0, 0, 10, 10}, {20, 20, 30, 30}}
	pred := []Rect{{0, 0, 10, 10}, {0, 0, 10, 5}, {100, 100, 110, 110}}

	m := PairwiseIoU(gt, pred)
	require.NotNil(t, m)
	assert.Equal(t, []int{2, 3}, []int(m.Shape()))

	at := func(i, j int) float32 {
		v, err := m.At(i, j)
		require.NoError(t, err)
		return v.(float32)
	}
	assert.InDelta(t, 1.0, at(0, 0), 1e-6)
	assert.InDelta(t, 0.5, at(0, 1), 1e-6)
	assert.InDelta(t, 0.0, at(0, 2), 1e-6)
	assert.InDelta(t, 0.0, at(1, 0), 1e-6)

	assert.Nil(t, PairwiseIoU(nil, pred))
	assert.Nil(t, PairwiseIoU(gt, nil))
}
