// Package ssd - networks ending in a DetectionOutput layer, as produced by
// OpenCV DNN for SSD and TensorFlow Object Detection API exports.
//
// The network output is a [1,1,N,7] blob whose rows are
// [image_id, label, score, x1, y1, x2, y2] with coordinates normalised to [0,1].
package ssd

import (
	"github.com/nvr-ai/go-eval/models/model"
)

// SSD is the instance of a detection-output model.
type SSD struct {
	options model.Options
}

// Options returns the options for the model.
func (m *SSD) Options() model.Options {
	return m.options
}

// NewModel creates a new model.
//
// Arguments:
//   - args: The arguments for creating a new model.
//
// Returns:
//   - The model.
func NewModel(args model.NewModelArgs) (*SSD, error) {
	family := args.Family
	if family == "" {
		family = model.ModelFamilyCityscapes
	}
	return &SSD{
		options: model.Options{
			Name:       model.ModelNameSSD,
			Family:     family,
			Path:       args.Path,
			Inputs:     args.Inputs,
			Outputs:    args.Outputs,
			InputShape: args.InputShape,
		},
	}, nil
}
