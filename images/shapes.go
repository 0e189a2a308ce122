// Package images - Image and bounding box utilities.
package images

import (
	"image"

	"github.com/chewxy/math32"
	"gorgonia.org/tensor"
)

// Rect is a lightweight axis-aligned bounding box in pixel coordinates.
type Rect struct {
	// X2,Y2 are exclusive (like image.Rectangle).
	X1, Y1, X2, Y2 float32
}

// Width returns the width of the box, or 0 for a degenerate box.
func (r Rect) Width() float32 {
	return math32.Max(r.X2-r.X1, 0)
}

// Height returns the height of the box, or 0 for a degenerate box.
func (r Rect) Height() float32 {
	return math32.Max(r.Y2-r.Y1, 0)
}

// Area returns the area covered by the box.
func (r Rect) Area() float32 {
	return r.Width() * r.Height()
}

// Empty reports whether the box covers no area.
func (r Rect) Empty() bool {
	return r.X2 <= r.X1 || r.Y2 <= r.Y1
}

// Scale multiplies the x coordinates by sx and the y coordinates by sy.
//
// Arguments:
//   - sx: The horizontal scale factor.
//   - sy: The vertical scale factor.
//
// Returns:
//   - The scaled box.
func (r Rect) Scale(sx, sy float32) Rect {
	return Rect{X1: r.X1 * sx, Y1: r.Y1 * sy, X2: r.X2 * sx, Y2: r.Y2 * sy}
}

// Clamp restricts the box to the bounds [0,w) x [0,h).
func (r Rect) Clamp(w, h float32) Rect {
	return Rect{
		X1: math32.Min(math32.Max(r.X1, 0), w),
		Y1: math32.Min(math32.Max(r.Y1, 0), h),
		X2: math32.Min(math32.Max(r.X2, 0), w),
		Y2: math32.Min(math32.Max(r.Y2, 0), h),
	}
}

// Rectangle converts the box to an image.Rectangle, rounding to the nearest pixel.
func (r Rect) Rectangle() image.Rectangle {
	return image.Rect(
		int(math32.Round(r.X1)),
		int(math32.Round(r.Y1)),
		int(math32.Round(r.X2)),
		int(math32.Round(r.Y2)),
	)
}

// RectFromRectangle converts an image.Rectangle to a Rect.
func RectFromRectangle(r image.Rectangle) Rect {
	return Rect{X1: float32(r.Min.X), Y1: float32(r.Min.Y), X2: float32(r.Max.X), Y2: float32(r.Max.Y)}
}

// CalculateIoU computes the Intersection over Union of two boxes:
//
//	IoU = Area of Intersection / Area of Union
//
// A value of 1.0 means the boxes are identical and 0.0 means they do not
// overlap. Touching edges do not count as overlap.
//
// Arguments:
//   - r: The first box.
//   - o: The other box to compare against.
//
// Returns:
//   - float32: A value between 0.0 and 1.0 representing the IoU score.
//
// Example Usage:
// ```go
//
//	rect1 := Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}
//	rect2 := Rect{X1: 5, Y1: 5, X2: 15, Y2: 15}
//
//	iou := CalculateIoU(rect1, rect2) // 25 / 175 = 0.142857
//
// ```
func CalculateIoU(r, o Rect) float32 {
	interW := math32.Min(r.X2, o.X2) - math32.Max(r.X1, o.X1)
	interH := math32.Min(r.Y2, o.Y2) - math32.Max(r.Y1, o.Y1)
	if interW <= 0 || interH <= 0 {
		return 0.0
	}
	interArea := interW * interH

	// Union(A, B) = Area(A) + Area(B) - Intersection(A, B)
	unionArea := r.Area() + o.Area() - interArea
	if unionArea <= 0 {
		return 0.0
	}

	return interArea / unionArea
}

// PairwiseIoU builds the [len(a), len(b)] matrix of IoU scores between every
// box of a and every box of b. Element (i, j) holds CalculateIoU(a[i], b[j]).
//
// Arguments:
//   - a: The row boxes (typically ground truth).
//   - b: The column boxes (typically predictions).
//
// Returns:
//   - *tensor.Dense: The float32 IoU matrix, or nil when either input is empty.
func PairwiseIoU(a, b []Rect) *tensor.Dense {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}

	backing := make([]float32, len(a)*len(b))
	for i := range a {
		row := backing[i*len(b) : (i+1)*len(b)]
		for j := range b {
			row[j] = CalculateIoU(a[i], b[j])
		}
	}

	return tensor.New(
		tensor.WithShape(len(a), len(b)),
		tensor.WithBacking(backing),
	)
}
