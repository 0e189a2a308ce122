package dataset

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-eval/images"
	"github.com/nvr-ai/go-eval/models"
	"github.com/nvr-ai/go-eval/util"
)

const (
	clearDir     = "leftImg8bit"
	foggyDir     = "leftImg8bit_foggy"
	gtDir        = "gtFine"
	clearSuffix  = "_leftImg8bit.png"
	gtJSONSuffix = "_gtFine_polygons.json"
)

// CityscapesConfig selects a Cityscapes split and variant.
type CityscapesConfig struct {
	// Root is the dataset root holding leftImg8bit/, gtFine/ and leftImg8bit_foggy/.
	Root string `json:"root" yaml:"root"`
	// Split is the split directory name, e.g. "val".
	Split string `json:"split" yaml:"split"`
	// Foggy selects the Foggy Cityscapes images, which carry no annotations.
	Foggy bool `json:"foggy" yaml:"foggy"`
	// FogBeta is the fog density suffix of the foggy images, e.g. "0.02".
	FogBeta string `json:"fog_beta" yaml:"fog_beta"`
	// Classes maps Cityscapes label ids to model class indices. Objects of
	// other labels are dropped from the annotations.
	Classes *models.OutputClassSet `json:"-" yaml:"-"`
}

// Cityscapes reads images and polygon annotations laid out as in the
// Cityscapes distribution:
//
//	leftImg8bit/{split}/{city}/{stem}_leftImg8bit.png
//	gtFine/{split}/{city}/{stem}_gtFine_polygons.json
//	leftImg8bit_foggy/{split}/{city}/{stem}_leftImg8bit_foggy_beta_{beta}.png
type Cityscapes struct {
	config CityscapesConfig
	files  []util.ImageFile
}

// NewCityscapes indexes the images of the configured split.
//
// Arguments:
//   - config: The split and variant to read.
//
// Returns:
//   - *Cityscapes: The dataset.
//   - error: Error if the image directory cannot be scanned or is empty.
func NewCityscapes(config CityscapesConfig) (*Cityscapes, error) {
	if config.Split == "" {
		config.Split = "val"
	}
	if config.FogBeta == "" {
		config.FogBeta = "0.02"
	}
	if !config.Foggy && config.Classes == nil {
		return nil, errors.New("cityscapes: annotated variant requires a class set")
	}

	dir, suffix := clearDir, clearSuffix
	if config.Foggy {
		dir, suffix = foggyDir, foggyImageSuffix(config.FogBeta)
	}

	files, err := util.FindFiles(filepath.Join(config.Root, dir, config.Split), suffix)
	if err != nil {
		return nil, errors.Wrap(err, "cityscapes")
	}
	if len(files) == 0 {
		return nil, errors.Errorf("cityscapes: no %s images under %s", suffix, filepath.Join(config.Root, dir, config.Split))
	}

	return &Cityscapes{config: config, files: files}, nil
}

func foggyImageSuffix(beta string) string {
	return "_leftImg8bit_foggy_beta_" + beta + ".png"
}

// Name returns "foggy" or "clear".
func (c *Cityscapes) Name() string {
	if c.config.Foggy {
		return "foggy"
	}
	return "clear"
}

// Len returns the number of images in the split.
func (c *Cityscapes) Len() int {
	return len(c.files)
}

// Annotated reports whether the variant has ground truth.
func (c *Cityscapes) Annotated() bool {
	return !c.config.Foggy
}

// Get loads the image at index and, for the clear variant, its annotation.
func (c *Cityscapes) Get(index int) (Sample, error) {
	if index < 0 || index >= len(c.files) {
		return Sample{}, errors.Wrapf(ErrIndexOutOfRange, "%d not in [0,%d)", index, len(c.files))
	}
	file := c.files[index]

	img, err := images.Load(file.Path)
	if err != nil {
		return Sample{}, errors.Wrapf(err, "cityscapes: sample %d", index)
	}

	sample := Sample{Index: index, ID: file.Stem, Image: img}
	if c.config.Foggy {
		return sample, nil
	}

	gtPath := filepath.Join(c.config.Root, gtDir, c.config.Split, file.Dir, file.Stem+gtJSONSuffix)
	ann, err := LoadPolygons(gtPath, c.config.Classes)
	if err != nil {
		return Sample{}, errors.Wrapf(err, "cityscapes: sample %d", index)
	}
	sample.Annotation = ann

	return sample, nil
}

type polygonFile struct {
	ImgHeight int             `json:"imgHeight"`
	ImgWidth  int             `json:"imgWidth"`
	Objects   []polygonObject `json:"objects"`
}

type polygonObject struct {
	Label   string       `json:"label"`
	Deleted int          `json:"deleted"`
	Polygon [][2]float32 `json:"polygon"`
}

// LoadPolygons reads a gtFine polygon file and converts it into an annotation.
func LoadPolygons(path string, classes *models.OutputClassSet) (*Annotation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read annotation")
	}
	return ParsePolygons(data, classes)
}

// ParsePolygons converts gtFine polygon JSON into an annotation. Every object
// whose label maps to a class of the set becomes the tight box around its
// polygon; other labels, deleted objects and degenerate polygons are dropped.
//
// Arguments:
//   - data: The polygon JSON document.
//   - classes: The label space of the model.
//
// Returns:
//   - *Annotation: The boxes, possibly empty.
//   - error: Error if the document is not valid JSON.
func ParsePolygons(data []byte, classes *models.OutputClassSet) (*Annotation, error) {
	var doc polygonFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parse annotation")
	}

	ann := &Annotation{}
	for _, obj := range doc.Objects {
		if obj.Deleted != 0 || len(obj.Polygon) == 0 {
			continue
		}
		id, ok := models.CityscapesLabelID(obj.Label)
		if !ok {
			continue
		}
		label, ok := classes.FromSource(id)
		if !ok {
			continue
		}
		box := polygonBounds(obj.Polygon)
		if doc.ImgWidth > 0 && doc.ImgHeight > 0 {
			box = box.Clamp(float32(doc.ImgWidth), float32(doc.ImgHeight))
		}
		if box.Empty() {
			continue
		}
		ann.Boxes = append(ann.Boxes, GroundTruth{Label: label, Box: box})
	}

	return ann, nil
}

func polygonBounds(points [][2]float32) images.Rect {
	r := images.Rect{X1: points[0][0], Y1: points[0][1], X2: points[0][0], Y2: points[0][1]}
	for _, p := range points[1:] {
		r.X1 = math32.Min(r.X1, p[0])
		r.Y1 = math32.Min(r.Y1, p[1])
		r.X2 = math32.Max(r.X2, p[0])
		r.Y2 = math32.Max(r.Y2, p[1])
	}
	return r
}
