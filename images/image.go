// Package images - Image loading for processing utilities.
package images

import (
	"bytes"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ImageFormat represents supported image formats
type ImageFormat string

// ImageFormat constants
const (
	// FormatJPEG is the JPEG image format.
	FormatJPEG ImageFormat = "jpeg"
	// FormatPNG is the PNG image format.
	FormatPNG ImageFormat = "png"
)

// FormatFromPath returns the image format implied by the file extension.
//
// Arguments:
//   - path: The path of the image file.
//
// Returns:
//   - The image format and true, or "" and false for unsupported extensions.
func FormatFromPath(path string) (ImageFormat, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG, true
	case ".jpg", ".jpeg":
		return FormatJPEG, true
	default:
		return "", false
	}
}

// Decode decodes an encoded image in the given format.
func Decode(data []byte, format ImageFormat) (image.Image, error) {
	var (
		img image.Image
		err error
	)
	switch format {
	case FormatPNG:
		img, err = png.Decode(bytes.NewReader(data))
	case FormatJPEG:
		img, err = jpeg.Decode(bytes.NewReader(data))
	default:
		return nil, errors.Errorf("unsupported image format %q", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s image", format)
	}
	return img, nil
}

// Load reads and decodes the image at path.
//
// Arguments:
//   - path: The path of a PNG or JPEG file.
//
// Returns:
//   - The decoded image.
//   - An error if the file cannot be read or decoded.
func Load(path string) (image.Image, error) {
	format, ok := FormatFromPath(path)
	if !ok {
		return nil, errors.Errorf("unsupported image extension: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read image %s", path)
	}
	img, err := Decode(data, format)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return img, nil
}

// ToRGBA returns img as an *image.RGBA, copying only when necessary.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}
