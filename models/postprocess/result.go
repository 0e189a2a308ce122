// Package postprocess - Postprocessing utilities for models.
package postprocess

import (
	"image"

	"github.com/nvr-ai/go-eval/images"
)

// Result represents a single detection result.
type Result struct {
	// The bounding box of the result in source image pixels.
	Box images.Rect
	// The confidence score of the result.
	Score float32
	// The predicted class index of the result.
	Class int
}

// Config controls how raw model outputs are decoded.
type Config struct {
	// Detections scoring at or below MinScore are dropped during decoding.
	MinScore float32 `json:"min_score" yaml:"min_score"`
	// NMS is applied after decoding when set.
	NMS *NMSConfig `json:"nms" yaml:"nms"`
	// Frame is the size of the source image; normalised outputs are scaled to it.
	Frame image.Point `json:"-" yaml:"-"`
	// ScaleX and ScaleY map model input coordinates back to the source image.
	ScaleX float32 `json:"-" yaml:"-"`
	ScaleY float32 `json:"-" yaml:"-"`
}

// Scale returns the effective x and y scale factors, treating zero as 1.
func (c *Config) Scale() (float32, float32) {
	sx, sy := c.ScaleX, c.ScaleY
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	return sx, sy
}
