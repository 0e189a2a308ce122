// Package dataset - Evaluation datasets and sampling.
package dataset

import (
	"image"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-eval/images"
)

// ErrIndexOutOfRange is returned by Get for an index outside [0, Len()).
var ErrIndexOutOfRange = errors.New("index out of range")

// GroundTruth is one annotated object.
type GroundTruth struct {
	// Label is the model class index of the object.
	Label int
	// Box is the tight box around the object polygon, in pixels.
	Box images.Rect
}

// Annotation holds the ground truth of one image.
type Annotation struct {
	Boxes []GroundTruth
}

// Rects returns the ground-truth boxes in order.
func (a *Annotation) Rects() []images.Rect {
	if a == nil {
		return nil
	}
	rects := make([]images.Rect, len(a.Boxes))
	for i, gt := range a.Boxes {
		rects[i] = gt.Box
	}
	return rects
}

// Sample is one image of a dataset.
type Sample struct {
	// Index is the position of the sample in its dataset.
	Index int
	// ID identifies the source image, e.g. the Cityscapes file stem.
	ID    string
	Image image.Image
	// Annotation is nil for unannotated datasets.
	Annotation *Annotation
}

// Dataset is an indexable collection of samples.
type Dataset interface {
	// Name is the variant name, used for output paths ("clear", "foggy").
	Name() string
	Len() int
	// Annotated reports whether samples carry ground truth.
	Annotated() bool
	Get(index int) (Sample, error)
}

// Memory is a Dataset over samples held in memory.
type Memory struct {
	name      string
	annotated bool
	samples   []Sample
}

// NewMemory creates an in-memory dataset.
func NewMemory(name string, annotated bool, samples []Sample) *Memory {
	return &Memory{name: name, annotated: annotated, samples: samples}
}

// Name returns the variant name.
func (m *Memory) Name() string { return m.name }

// Len returns the number of samples.
func (m *Memory) Len() int { return len(m.samples) }

// Annotated reports whether samples carry ground truth.
func (m *Memory) Annotated() bool { return m.annotated }

// Get returns the sample at index.
func (m *Memory) Get(index int) (Sample, error) {
	if index < 0 || index >= len(m.samples) {
		return Sample{}, errors.Wrapf(ErrIndexOutOfRange, "%d not in [0,%d)", index, len(m.samples))
	}
	s := m.samples[index]
	s.Index = index
	return s, nil
}
