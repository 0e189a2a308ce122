package detectors

import (
	"image"

	"github.com/nfnt/resize"

	"github.com/nvr-ai/go-eval/images"
)

// Input is an image converted to a planar float32 tensor.
type Input struct {
	// Data holds the R, G and B planes, each Size.X*Size.Y values in [0,1].
	Data []float32
	// Size is the width and height fed to the model.
	Size image.Point
	// ScaleX and ScaleY map model coordinates back to the source image.
	ScaleX, ScaleY float32
}

// PrepareInput converts img to a CHW float32 tensor in [0,1], resizing it to
// shape first when shape is non-zero and differs from the image size.
//
// Arguments:
//   - img: The image to prepare.
//   - shape: The model input width and height, or the zero point for native size.
//
// Returns:
//   - Input: The tensor data and the scale back to the source image.
func PrepareInput(img image.Image, shape image.Point) Input {
	bounds := img.Bounds()
	size := bounds.Size()

	src := img
	if shape.X > 0 && shape.Y > 0 && shape != size {
		src = resize.Resize(uint(shape.X), uint(shape.Y), img, resize.Bilinear)
		size = shape
	}

	rgba := images.ToRGBA(src)
	origin := rgba.Rect.Min
	channelSize := size.X * size.Y
	data := make([]float32, channelSize*3)
	red := data[0:channelSize]
	green := data[channelSize : channelSize*2]
	blue := data[channelSize*2 : channelSize*3]

	i := 0
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			off := rgba.PixOffset(origin.X+x, origin.Y+y)
			red[i] = float32(rgba.Pix[off]) / 255.0
			green[i] = float32(rgba.Pix[off+1]) / 255.0
			blue[i] = float32(rgba.Pix[off+2]) / 255.0
			i++
		}
	}

	return Input{
		Data:   data,
		Size:   size,
		ScaleX: float32(bounds.Dx()) / float32(size.X),
		ScaleY: float32(bounds.Dy()) / float32(size.Y),
	}
}
