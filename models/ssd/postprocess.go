package ssd

import (
	"github.com/nvr-ai/go-eval/images"
	"github.com/nvr-ai/go-eval/models/model"
	"github.com/nvr-ai/go-eval/models/postprocess"
)

const rowSize = 7

// RowSize returns the number of values per detection row.
func (m *SSD) RowSize() int {
	return rowSize
}

// PostProcess decodes detection-output rows into detections in source image
// pixels. Rows with a negative image id terminate the list, as OpenCV pads
// the blob that way.
//
// Arguments:
//   - output: The flattened [1,1,N,7] blob.
//   - config: The decoding configuration. Frame must hold the source image size.
//
// Returns:
//   - A slice of postprocessed results, nil if the output is malformed.
func (m *SSD) PostProcess(output []float32, config *postprocess.Config) []postprocess.Result {
	if len(output)%rowSize != 0 || config == nil {
		return nil
	}

	w, h := float32(config.Frame.X), float32(config.Frame.Y)
	numRows := len(output) / rowSize
	results := make([]postprocess.Result, 0, numRows)

	for i := 0; i < numRows; i++ {
		row := output[i*rowSize : (i+1)*rowSize]
		if row[0] < 0 {
			break
		}
		class, score := int(row[1]), row[2]
		if score <= config.MinScore || class <= 0 {
			continue
		}
		box := images.Rect{X1: row[3] * w, Y1: row[4] * h, X2: row[5] * w, Y2: row[6] * h}.Clamp(w, h)
		if box.Empty() {
			continue
		}
		results = append(results, postprocess.Result{Box: box, Score: score, Class: class})
	}

	return model.Finalize(results, config)
}
