package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nvr-ai/go-eval/images"
)

func TestMatchRatio(t *testing.T) {
	a := images.Rect{X1: 0, Y1: 0, X2: 100, Y2: 100}
	b := images.Rect{X1: 200, Y1: 200, X2: 300, Y2: 300}
	nearA := images.Rect{X1: 0, Y1: 0, X2: 100, Y2: 90}      // IoU 0.9
	nearB := images.Rect{X1: 210, Y1: 200, X2: 300, Y2: 300} // IoU 0.9
	farA := images.Rect{X1: 50, Y1: 50, X2: 150, Y2: 150}    // IoU 1/7

	tests := []struct {
		name string
		gt   []images.Rect
		pred []images.Rect
		want float64
	}{
		{name: "no ground truth", gt: nil, pred: []images.Rect{a}, want: 0},
		{name: "no predictions", gt: []images.Rect{a}, pred: nil, want: 0},
		{name: "both matched", gt: []images.Rect{a, b}, pred: []images.Rect{nearB, nearA}, want: 1},
		{name: "no overlap above threshold", gt: []images.Rect{a, b}, pred: []images.Rect{farA}, want: 0},
		{name: "half matched", gt: []images.Rect{a, b}, pred: []images.Rect{nearA}, want: 0.5},
		{name: "double counted", gt: []images.Rect{a}, pred: []images.Rect{a, nearA}, want: 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MatchRatio(tc.gt, tc.pred, 0.5))
		})
	}
}

func TestMatchRatioStrictThreshold(t *testing.T) {
	gt := []images.Rect{{X1: 0, Y1: 0, X2: 10, Y2: 10}}
	pred := []images.Rect{{X1: 0, Y1: 0, X2: 10, Y2: 5}} // IoU exactly 0.5

	assert.Equal(t, 0.0, MatchRatio(gt, pred, 0.5))
	assert.Equal(t, 1.0, MatchRatio(gt, pred, 0.4))
}

func TestAggregator(t *testing.T) {
	var agg Aggregator
	assert.Equal(t, 0.0, agg.Average())

	agg.Add(Record{Image: "img_1", IoU: 1})
	agg.Add(Record{Image: "img_2", IoU: 0})
	agg.Add(Record{Image: "img_3", IoU: 0.5})

	assert.Equal(t, 3, agg.Len())
	assert.InDelta(t, 0.5, agg.Average(), 1e-12)

	rep := agg.Report("clear")
	assert.Equal(t, "clear", rep.Variant)
	assert.Equal(t, agg.Average(), rep.Average)
	assert.Equal(t, "img_2", rep.Records[1].Image)
}
