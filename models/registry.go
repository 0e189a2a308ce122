package models

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-eval/models/fasterrcnn"
	"github.com/nvr-ai/go-eval/models/model"
	"github.com/nvr-ai/go-eval/models/ssd"
)

// ErrUnsupportedModel is returned for model names without a decoder.
var ErrUnsupportedModel = errors.New("unsupported model")

// NewModel creates a new detection model instance based on the specified model name.
//
// Arguments:
//   - args: Configuration parameters specifying the model type and location.
//
// Returns:
//   - model.Model: A configured model implementing the Model interface.
//   - error: An error if the model name is unsupported.
//
// Example:
//
// ```go
//
//	m, err := NewModel(model.NewModelArgs{
//	    Name: model.ModelNameFasterRCNN,
//	    Path: "experiments/faster_rcnn_cityscapes.onnx",
//	})
//
// ```
func NewModel(args model.NewModelArgs) (model.Model, error) {
	switch args.Name {
	case model.ModelNameFasterRCNN, "":
		return fasterrcnn.NewModel(args)
	case model.ModelNameSSD:
		return ssd.NewModel(args)
	default:
		return nil, errors.Wrapf(ErrUnsupportedModel, "%q", args.Name)
	}
}
