// Package report - Per-image IoU reports: CSV tables and bar charts.
package report

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Record is the metric of one evaluated image.
type Record struct {
	// Image is the evaluation-order id, "img_1", "img_2", ...
	Image string  `json:"image"`
	IoU   float64 `json:"iou"`
}

// Report is the ordered per-image records of one dataset variant and their mean.
type Report struct {
	Variant string   `json:"variant"`
	Records []Record `json:"records"`
	Average float64  `json:"average"`
}

// Title capitalises the first letter of a variant name for display, so
// "clear" becomes "Clear".
func Title(variant string) string {
	if variant == "" {
		return variant
	}
	return strings.ToUpper(variant[:1]) + variant[1:]
}

// Rows lays the report out as a table: an "Image,IoU" header, one row per
// record and a trailing "Average" row.
//
// Arguments:
//   - r: The report.
//
// Returns:
//   - [][]string: The table rows.
func Rows(r *Report) [][]string {
	rows := make([][]string, 0, len(r.Records)+2)
	rows = append(rows, []string{"Image", "IoU"})
	for _, rec := range r.Records {
		rows = append(rows, []string{rec.Image, FormatFloat(rec.IoU)})
	}
	rows = append(rows, []string{"Average", FormatFloat(r.Average)})
	return rows
}

// EncodeCSV writes the report rows as CSV.
func EncodeCSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(Rows(r)); err != nil {
		return errors.Wrap(err, "encode csv")
	}
	return nil
}

// FormatFloat renders v with the shortest exact representation, keeping a
// trailing ".0" on integral values (1 is written as "1.0").
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if math.IsInf(v, 0) || math.IsNaN(v) || strings.Contains(s, ".") {
		return s
	}
	return s + ".0"
}

// CSVName returns the report file name of a variant.
func CSVName(variant string) string {
	return variant + "_iou_report.csv"
}

// ChartName returns the chart file name of a variant.
func ChartName(variant string) string {
	return variant + "_iou_chart.png"
}

// Save writes {variant}_iou_report.csv and {variant}_iou_chart.png into dir,
// creating dir if needed.
//
// Arguments:
//   - dir: The output directory.
//   - r: The report.
//
// Returns:
//   - []string: The paths written.
//   - error: Error if rendering or writing fails.
func Save(dir string, r *Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %s", dir)
	}

	var sb strings.Builder
	if err := EncodeCSV(&sb, r); err != nil {
		return nil, err
	}
	csvPath := filepath.Join(dir, CSVName(r.Variant))
	if err := os.WriteFile(csvPath, []byte(sb.String()), 0o644); err != nil {
		return nil, errors.Wrapf(err, "write %s", csvPath)
	}

	chart, err := RenderChart(r, DefaultChartWidth, DefaultChartHeight)
	if err != nil {
		return nil, err
	}
	chartPath := filepath.Join(dir, ChartName(r.Variant))
	if err := os.WriteFile(chartPath, chart, 0o644); err != nil {
		return nil, errors.Wrapf(err, "write %s", chartPath)
	}

	return []string{csvPath, chartPath}, nil
}
