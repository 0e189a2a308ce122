package models

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-eval/models/model"
)

func TestNewCityscapesClassSet(t *testing.T) {
	set, err := NewCityscapesClassSet(DefaultCityscapesTargets)
	require.NoError(t, err)
	assert.Equal(t, 9, set.Len())

	name, ok := set.Name(1)
	assert.True(t, ok)
	assert.Equal(t, "person", name)
	assert.Equal(t, "bicycle", set.Label(8))
	assert.Equal(t, "__background__", set.Label(0))
	assert.Equal(t, "42", set.Label(42))

	idx, ok := set.FromSource(26)
	assert.True(t, ok)
	assert.Equal(t, 3, idx)

	_, ok = set.FromSource(29)
	assert.False(t, ok, "caravan is not a target class")
	_, ok = set.FromSource(0)
	assert.False(t, ok, "background never maps from a source label")

	idx, ok = set.Index("train")
	assert.True(t, ok)
	assert.Equal(t, 6, idx)

	_, err = NewCityscapesClassSet([]int{24, 99})
	assert.Error(t, err)
	_, err = NewCityscapesClassSet([]int{24, 24})
	assert.Error(t, err)
}

func TestCityscapesLabelID(t *testing.T) {
	tests := []struct {
		name string
		id   int
		ok   bool
	}{
		{"car", 26, true},
		{"cargroup", 26, true},
		{"persongroup", 24, true},
		{"license plate", -1, true},
		{"polegroup", 18, true},
		{"spaceship", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := CityscapesLabelID(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestNilClassSetLabel(t *testing.T) {
	var set *OutputClassSet
	assert.Equal(t, "3", set.Label(3))
}

func TestNewModel(t *testing.T) {
	m, err := NewModel(model.NewModelArgs{Name: model.ModelNameFasterRCNN, Path: "a.onnx"})
	require.NoError(t, err)
	assert.Equal(t, model.ModelNameFasterRCNN, m.Options().Name)
	assert.Equal(t, "a.onnx", m.Options().Path)

	m, err = NewModel(model.NewModelArgs{Name: model.ModelNameSSD})
	require.NoError(t, err)
	assert.Equal(t, 7, m.RowSize())

	_, err = NewModel(model.NewModelArgs{Name: "yolov9"})
	assert.True(t, errors.Is(err, ErrUnsupportedModel))
}
