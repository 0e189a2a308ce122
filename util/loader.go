package util

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ImageFile represents an image file found under a dataset directory.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Dir is the path of the file's directory relative to the search root.
	Dir string
	// Stem is the file name without the matched suffix.
	Stem string
}

// FindFiles walks root recursively and returns every regular file whose name
// ends with suffix, sorted by path so the order is stable across runs.
//
// Arguments:
//   - root: Directory to search.
//   - suffix: Required file name suffix, e.g. "_leftImg8bit.png".
//
// Returns:
//   - []ImageFile: The matching files.
//   - error: Error if the directory cannot be walked.
func FindFiles(root, suffix string) ([]ImageFile, error) {
	var files []ImageFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), suffix) {
			return nil
		}
		rel, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil {
			return err
		}
		files = append(files, ImageFile{
			Path: path,
			Dir:  rel,
			Stem: strings.TrimSuffix(d.Name(), suffix),
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", root)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	return files, nil
}
