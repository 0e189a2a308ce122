package fasterrcnn

import (
	"github.com/nvr-ai/go-eval/images"
	"github.com/nvr-ai/go-eval/models/model"
	"github.com/nvr-ai/go-eval/models/postprocess"
)

const rowSize = 6

// RowSize returns the number of values per packed detection.
func (m *FasterRCNN) RowSize() int {
	return rowSize
}

// Pack interleaves the three torchvision outputs into rows of
// [x1, y1, x2, y2, score, label]. Extra values in any slice are ignored.
func Pack(boxes []float32, labels []int64, scores []float32) []float32 {
	n := min(len(boxes)/4, len(labels), len(scores))
	out := make([]float32, 0, n*rowSize)
	for i := 0; i < n; i++ {
		out = append(out, boxes[i*4:i*4+4]...)
		out = append(out, scores[i], float32(labels[i]))
	}
	return out
}

// PostProcess transforms packed Faster R-CNN rows into detections by:
//   - Dropping rows scoring at or below MinScore and rows with the background label.
//   - Scaling boxes from the model input back to the source frame.
//   - Applying greedy NMS when configured.
//
// Arguments:
//   - output: The packed output (see Pack).
//   - config: The decoding configuration.
//
// Returns:
//   - A slice of postprocessed results, nil if the output is malformed.
func (m *FasterRCNN) PostProcess(output []float32, config *postprocess.Config) []postprocess.Result {
	if len(output)%rowSize != 0 {
		return nil
	}
	if config == nil {
		config = &postprocess.Config{}
	}

	sx, sy := config.Scale()
	numRows := len(output) / rowSize
	results := make([]postprocess.Result, 0, numRows)

	for i := 0; i < numRows; i++ {
		row := output[i*rowSize : (i+1)*rowSize]
		score, class := row[4], int(row[5])
		if score <= config.MinScore || class <= 0 {
			continue
		}
		box := images.Rect{X1: row[0], Y1: row[1], X2: row[2], Y2: row[3]}.Scale(sx, sy)
		if config.Frame.X > 0 && config.Frame.Y > 0 {
			box = box.Clamp(float32(config.Frame.X), float32(config.Frame.Y))
		}
		results = append(results, postprocess.Result{Box: box, Score: score, Class: class})
	}

	return model.Finalize(results, config)
}
