// Package evaluation - Detector evaluation over dataset variants.
package evaluation

import (
	"github.com/montanaflynn/stats"

	"github.com/nvr-ai/go-eval/images"
	"github.com/nvr-ai/go-eval/report"
)

// Record is the metric of one evaluated image.
type Record = report.Record

// MatchRatio scores one image by counting every (ground truth, prediction)
// pair whose IoU is strictly above iouThreshold and dividing by the number of
// ground-truth boxes.
//
// Pairs are counted over the full IoU matrix, so one ground-truth box matched
// by several predictions counts several times and the ratio can exceed 1.
//
// Arguments:
//   - gt: The ground-truth boxes.
//   - pred: The accepted predicted boxes.
//   - iouThreshold: The strict IoU threshold of a match.
//
// Returns:
//   - float64: The ratio, or 0 when either set is empty.
//
// @example
// MatchRatio(gt, pred, 0.5) // 2 gt, 2 overlapping predictions -> 1.0
func MatchRatio(gt, pred []images.Rect, iouThreshold float32) float64 {
	if len(gt) == 0 || len(pred) == 0 {
		return 0
	}

	ious := images.PairwiseIoU(gt, pred)
	matches := 0
	for _, v := range ious.Data().([]float32) {
		if v > iouThreshold {
			matches++
		}
	}

	return float64(matches) / float64(max(len(gt), 1))
}

// Aggregator accumulates per-image records in evaluation order.
type Aggregator struct {
	records []Record
}

// Add appends a record.
func (a *Aggregator) Add(r Record) {
	a.records = append(a.records, r)
}

// Records returns the records in the order they were added.
func (a *Aggregator) Records() []Record {
	return a.records
}

// Len returns the number of records.
func (a *Aggregator) Len() int {
	return len(a.records)
}

// Average returns the mean IoU of the records, or 0 when there are none.
func (a *Aggregator) Average() float64 {
	if len(a.records) == 0 {
		return 0
	}
	data := make(stats.Float64Data, len(a.records))
	for i, r := range a.records {
		data[i] = r.IoU
	}
	mean, err := stats.Mean(data)
	if err != nil {
		return 0
	}
	return mean
}

// Report builds the report of a variant from the accumulated records.
func (a *Aggregator) Report(variant string) *report.Report {
	return &report.Report{
		Variant: variant,
		Records: append([]Record(nil), a.records...),
		Average: a.Average(),
	}
}
