// Package fasterrcnn - Faster R-CNN exported from torchvision to ONNX.
//
// The export takes a single float32 image tensor [3,H,W] with values in [0,1]
// and returns three tensors: boxes [N,4] (x1,y1,x2,y2 in input pixels),
// labels [N] (int64) and scores [N]. The detector packs them into rows of
// [x1, y1, x2, y2, score, label] before calling PostProcess.
package fasterrcnn

import (
	"github.com/nvr-ai/go-eval/models/model"
)

const (
	// InputImages is the input name of the torchvision export.
	InputImages = "images"
	// OutputBoxes is the output holding the boxes.
	OutputBoxes = "boxes"
	// OutputLabels is the output holding the int64 labels.
	OutputLabels = "labels"
	// OutputScores is the output holding the scores.
	OutputScores = "scores"
)

// FasterRCNN is the instance of the Faster R-CNN model.
type FasterRCNN struct {
	options model.Options
}

// Options returns the options for the Faster R-CNN model.
func (m *FasterRCNN) Options() model.Options {
	return m.options
}

// NewModel creates a new model, filling in the torchvision tensor names when
// the arguments leave them empty.
//
// Arguments:
//   - args: The arguments for creating a new model.
//
// Returns:
//   - The model.
func NewModel(args model.NewModelArgs) (*FasterRCNN, error) {
	opts := model.Options{
		Name:       model.ModelNameFasterRCNN,
		Family:     args.Family,
		Path:       args.Path,
		Inputs:     args.Inputs,
		Outputs:    args.Outputs,
		InputShape: args.InputShape,
	}
	if opts.Family == "" {
		opts.Family = model.ModelFamilyCityscapes
	}
	if len(opts.Inputs) == 0 {
		opts.Inputs = []string{InputImages}
	}
	if len(opts.Outputs) == 0 {
		opts.Outputs = []string{OutputBoxes, OutputLabels, OutputScores}
	}
	return &FasterRCNN{options: opts}, nil
}
