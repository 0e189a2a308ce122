// Package model - Definitions shared by the detection models.
package model

import (
	"image"

	"github.com/nvr-ai/go-eval/models/postprocess"
)

// Family is the family of models, i.e. the label space they were trained on.
type Family string

const (
	// ModelFamilyCityscapes is the Cityscapes instance label space.
	ModelFamilyCityscapes Family = "cityscapes"
)

// Name is the unique identifier of a model.
type Name string

const (
	// ModelNameFasterRCNN is a torchvision-style Faster R-CNN export.
	ModelNameFasterRCNN Name = "fasterrcnn"
	// ModelNameSSD is a network ending in a DetectionOutput layer ([1,1,N,7]).
	ModelNameSSD Name = "ssd"
)

// Options describes how a model is loaded and fed.
type Options struct {
	Name    Name     `json:"name" yaml:"name"`
	Family  Family   `json:"family" yaml:"family"`
	Path    string   `json:"path" yaml:"path"`
	Inputs  []string `json:"inputs" yaml:"inputs"`
	Outputs []string `json:"outputs" yaml:"outputs"`
	// InputShape is the width/height the image is resized to before inference.
	// A zero value feeds the image at its native resolution.
	InputShape image.Point `json:"input_shape" yaml:"input_shape"`
}

// Model decodes raw network outputs into detections.
type Model interface {
	Options() Options
	// RowSize is the number of float32 values per detection in the packed output.
	RowSize() int
	PostProcess(output []float32, config *postprocess.Config) []postprocess.Result
}

// NewModelArgs is the arguments for creating a new model.
type NewModelArgs struct {
	Name       Name        `json:"name" yaml:"name"`
	Path       string      `json:"path" yaml:"path"`
	Family     Family      `json:"family" yaml:"family"`
	Inputs     []string    `json:"inputs" yaml:"inputs"`
	Outputs    []string    `json:"outputs" yaml:"outputs"`
	InputShape image.Point `json:"input_shape" yaml:"input_shape"`
}

// Finalize applies the NMS configuration, if any, to decoded results.
func Finalize(results []postprocess.Result, config *postprocess.Config) []postprocess.Result {
	if config == nil || config.NMS == nil || config.NMS.IoUThreshold <= 0 {
		return results
	}
	return postprocess.ApplyGreedyNMS(results, config.NMS)
}
