package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport(n int) *Report {
	r := &Report{Variant: "clear"}
	var sum float64
	for i := 1; i <= n; i++ {
		v := float64(i%4) / 4
		r.Records = append(r.Records, Record{Image: fmt.Sprintf("img_%d", i), IoU: v})
		sum += v
	}
	if n > 0 {
		r.Average = sum / float64(n)
	}
	return r
}

func TestFormatFloat(t *testing.T) {
	for _, tc := range []struct {
		in   float64
		want string
	}{
		{1, "1.0"},
		{0, "0.0"},
		{0.5, "0.5"},
		{0.125, "0.125"},
		{2.0 / 3, "0.6666666666666666"},
	} {
		assert.Equal(t, tc.want, FormatFloat(tc.in))
	}
}

func TestRows(t *testing.T) {
	r := &Report{
		Variant: "clear",
		Records: []Record{{Image: "img_1", IoU: 1}, {Image: "img_2", IoU: 0.5}},
		Average: 0.75,
	}

	assert.Equal(t, [][]string{
		{"Image", "IoU"},
		{"img_1", "1.0"},
		{"img_2", "0.5"},
		{"Average", "0.75"},
	}, Rows(r))
}

func TestEncodeCSV(t *testing.T) {
	r := sampleReport(50)

	var buf bytes.Buffer
	require.NoError(t, EncodeCSV(&buf, r))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 52)
	assert.Equal(t, "Image,IoU", lines[0])
	assert.Equal(t, "img_1,0.25", lines[1])

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	var sum float64
	for _, row := range rows[1:51] {
		v, err := strconv.ParseFloat(row[1], 64)
		require.NoError(t, err)
		sum += v
	}
	last := rows[51]
	assert.Equal(t, "Average", last[0])
	avg, err := strconv.ParseFloat(last[1], 64)
	require.NoError(t, err)
	assert.InDelta(t, sum/50, avg, 1e-12)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Clear", Title("clear"))
	assert.Equal(t, "Foggy", Title("foggy"))
	assert.Equal(t, "", Title(""))
}

func TestChart(t *testing.T) {
	r := sampleReport(50)

	fig, err := Chart(r)
	require.NoError(t, err)
	assert.Len(t, fig.Bars.Values, 50)
	require.NotNil(t, fig.Average)
	assert.Equal(t, r.Average, fig.Average.F(10))
	assert.NotEmpty(t, fig.Average.Dashes)
	assert.Equal(t, "Clear Image-wise IoU", fig.Plot.Title.Text)
	assert.Equal(t, "Image", fig.Plot.X.Label.Text)
	assert.Equal(t, "IoU", fig.Plot.Y.Label.Text)

	_, err = Chart(&Report{Variant: "clear"})
	assert.Error(t, err)
}

func TestRenderChart(t *testing.T) {
	data, err := RenderChart(sampleReport(5), DefaultChartWidth, DefaultChartHeight)
	require.NoError(t, err)

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Greater(t, cfg.Width, cfg.Height)
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "clear")

	paths, err := Save(dir, sampleReport(3))
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, "clear_iou_report.csv"), paths[0])
	assert.Equal(t, filepath.Join(dir, "clear_iou_chart.png"), paths[1])

	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.NotZero(t, info.Size())
	}
}
