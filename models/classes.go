// Package models - Detection models and the label spaces they predict.
package models

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-eval/models/model"
)

// OutputClass represents one detection label.
type OutputClass struct {
	// The integer index returned by the model.
	Index int
	// The human-readable label.
	Name string
	// The id of the label in the dataset annotations.
	SourceID int
}

// OutputClassSet ties a model family to its contiguous list of labels.
// Index 0 is always the background class.
type OutputClassSet struct {
	// Class set identifier.
	Style model.Family
	// Classes that are supported and mappable.
	Classes []OutputClass

	nameToIdx   map[string]int
	sourceToIdx map[int]int
}

// BuildIndexMaps builds or rebuilds the name->index and source->index maps.
func (s *OutputClassSet) BuildIndexMaps() {
	s.nameToIdx = make(map[string]int, len(s.Classes))
	s.sourceToIdx = make(map[int]int, len(s.Classes))
	for _, c := range s.Classes {
		s.nameToIdx[c.Name] = c.Index
		if c.Index > 0 {
			s.sourceToIdx[c.SourceID] = c.Index
		}
	}
}

// Name returns the class name for a model index.
func (s *OutputClassSet) Name(idx int) (string, bool) {
	if idx < 0 || idx >= len(s.Classes) {
		return "", false
	}
	return s.Classes[idx].Name, true
}

// Label returns the class name for a model index, or the index itself when
// the index is unknown to the set.
func (s *OutputClassSet) Label(idx int) string {
	if s != nil {
		if name, ok := s.Name(idx); ok {
			return name
		}
	}
	return strconv.Itoa(idx)
}

// Index returns the model index for a class name.
func (s *OutputClassSet) Index(name string) (int, bool) {
	idx, ok := s.nameToIdx[name]
	return idx, ok
}

// FromSource maps a dataset label id to the model index.
// Ids outside the set (including background) report false.
func (s *OutputClassSet) FromSource(id int) (int, bool) {
	idx, ok := s.sourceToIdx[id]
	return idx, ok
}

// Len returns the number of classes including background.
func (s *OutputClassSet) Len() int {
	return len(s.Classes)
}

// CityscapesLabels maps the Cityscapes label ids to their names.
var CityscapesLabels = map[int]string{
	0:  "unlabeled",
	1:  "ego vehicle",
	2:  "rectification border",
	3:  "out of roi",
	4:  "static",
	5:  "dynamic",
	6:  "ground",
	7:  "road",
	8:  "sidewalk",
	9:  "parking",
	10: "rail track",
	11: "building",
	12: "wall",
	13: "fence",
	14: "guard rail",
	15: "bridge",
	16: "tunnel",
	17: "pole",
	18: "polegroup",
	19: "traffic light",
	20: "traffic sign",
	21: "vegetation",
	22: "terrain",
	23: "sky",
	24: "person",
	25: "rider",
	26: "car",
	27: "truck",
	28: "bus",
	29: "caravan",
	30: "trailer",
	31: "train",
	32: "motorcycle",
	33: "bicycle",
	-1: "license plate",
}

// DefaultCityscapesTargets are the instance classes the detector is trained on:
// person, rider, car, truck, bus, train, motorcycle and bicycle.
var DefaultCityscapesTargets = []int{24, 25, 26, 27, 28, 31, 32, 33}

var cityscapesNameToID = func() map[string]int {
	m := make(map[string]int, len(CityscapesLabels))
	for id, name := range CityscapesLabels {
		m[name] = id
	}
	return m
}()

// CityscapesLabelID resolves a polygon label name to its Cityscapes id.
// Group annotations ("cargroup", "persongroup") resolve to their base class.
func CityscapesLabelID(name string) (int, bool) {
	if id, ok := cityscapesNameToID[name]; ok {
		return id, true
	}
	if base, ok := strings.CutSuffix(name, "group"); ok {
		id, ok := cityscapesNameToID[base]
		return id, ok
	}
	return 0, false
}

// NewCityscapesClassSet builds the contiguous label space of a detector trained
// on the given Cityscapes ids: model index k+1 corresponds to targets[k].
//
// Arguments:
//   - targets: The Cityscapes label ids, in model index order.
//
// Returns:
//   - The class set.
//   - An error if an id is unknown or repeated.
func NewCityscapesClassSet(targets []int) (*OutputClassSet, error) {
	set := &OutputClassSet{
		Style:   model.ModelFamilyCityscapes,
		Classes: []OutputClass{{Index: 0, Name: "__background__", SourceID: 0}},
	}
	seen := make(map[int]bool, len(targets))
	for i, id := range targets {
		name, ok := CityscapesLabels[id]
		if !ok {
			return nil, errors.Errorf("unknown cityscapes label id %d", id)
		}
		if seen[id] {
			return nil, errors.Errorf("duplicate cityscapes label id %d", id)
		}
		seen[id] = true
		set.Classes = append(set.Classes, OutputClass{Index: i + 1, Name: name, SourceID: id})
	}
	set.BuildIndexMaps()
	return set, nil
}
