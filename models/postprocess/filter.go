package postprocess

import (
	"github.com/samber/lo"

	"github.com/nvr-ai/go-eval/images"
)

// FilterByScore keeps the detections whose score strictly exceeds threshold.
// A detection scoring exactly threshold is rejected.
func FilterByScore(detections []Result, threshold float32) []Result {
	return lo.Filter(detections, func(r Result, _ int) bool {
		return r.Score > threshold
	})
}

// Boxes returns the bounding boxes of the detections in order.
func Boxes(detections []Result) []images.Rect {
	return lo.Map(detections, func(r Result, _ int) images.Rect {
		return r.Box
	})
}
