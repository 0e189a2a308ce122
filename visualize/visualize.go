// Package visualize - Draws detections onto images.
package visualize

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/nvr-ai/go-eval/models"
	"github.com/nvr-ai/go-eval/models/postprocess"
)

var font *truetype.Font

func init() {
	var err error
	font, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// Options controls how detections are drawn.
type Options struct {
	// ScoreThreshold drops detections whose score is not strictly above it.
	ScoreThreshold float32
	// Color of the box outlines and labels.
	Color color.Color
	// LineWidth of the box outlines, in pixels.
	LineWidth float64
	// FontSize of the labels, in points.
	FontSize float64
	// Classes names the labels. When nil, or for an unknown class, the numeric
	// class id is drawn.
	Classes *models.OutputClassSet
}

// DefaultOptions returns red 1px outlines with 10pt labels.
func DefaultOptions() Options {
	return Options{
		ScoreThreshold: 0.5,
		Color:          color.RGBA{R: 255, A: 255},
		LineWidth:      1,
		FontSize:       10,
	}
}

// Render draws the accepted detections onto a copy of img. img is not modified.
//
// Arguments:
//   - img: The source image.
//   - dets: The detections, in img pixel coordinates.
//   - opts: The drawing options.
//
// Returns:
//   - image.Image: The annotated copy, same size as img with a zero origin.
func Render(img image.Image, dets []postprocess.Result, opts Options) image.Image {
	if opts.Color == nil {
		opts.Color = color.RGBA{R: 255, A: 255}
	}
	if opts.LineWidth <= 0 {
		opts.LineWidth = 1
	}
	if opts.FontSize <= 0 {
		opts.FontSize = 10
	}

	// Context coordinates start at 0 whatever the source bounds are.
	origin := img.Bounds().Min
	canvas := image.NewRGBA(image.Rectangle{Max: img.Bounds().Size()})
	draw.Draw(canvas, canvas.Bounds(), img, origin, draw.Src)

	dc := gg.NewContextForRGBA(canvas)
	dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: opts.FontSize}))
	dc.SetColor(opts.Color)
	dc.SetLineWidth(opts.LineWidth)

	for _, det := range postprocess.FilterByScore(dets, opts.ScoreThreshold) {
		r := det.Box.Rectangle().Sub(origin)
		if r.Empty() {
			continue
		}
		dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
		dc.Stroke()
		dc.DrawStringAnchored(opts.Classes.Label(det.Class), float64(r.Min.X)+2, float64(r.Min.Y)+1, 0, 1)
	}

	return dc.Image()
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(err, "encode png")
	}
	return buf.Bytes(), nil
}

// Save writes img to {dir}/{name}.png, creating dir if it does not exist.
//
// Arguments:
//   - dir: The output directory.
//   - name: The file name without extension.
//   - img: The image to write.
//
// Returns:
//   - string: The path written.
//   - error: Error if encoding or writing fails.
func Save(dir, name string, img image.Image) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create %s", dir)
	}
	data, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name+".png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "write %s", path)
	}
	return path, nil
}
