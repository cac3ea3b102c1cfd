// Package export writes rendered surfaces to disk and submits them to the
// persistence endpoint.
package export

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/menta2k/image-annotator/internal/utils"
	"github.com/menta2k/image-annotator/pkg/processing"
)

// FileName is the fixed base name of the downloaded image
const FileName = "annotated_image"

// LocalOptions controls the encoding of the saved file
type LocalOptions struct {
	Dir      string
	Format   string
	Quality  int
	Lossless bool
}

// DefaultLocalOptions saves a PNG into the working directory
func DefaultLocalOptions() LocalOptions {
	return LocalOptions{Dir: ".", Format: "png", Quality: 92}
}

// LocalPath returns where SaveLocal writes for the given options
func LocalPath(opts LocalOptions) string {
	return filepath.Join(opts.Dir, FileName+"."+processing.NormalizeFormat(opts.Format))
}

// SaveLocal encodes the surface and writes it under the fixed file name.
// It overwrites any previous export in the same directory.
func SaveLocal(p *processing.Processor, surface image.Image, opts LocalOptions) (string, error) {
	if err := utils.EnsureDir(opts.Dir); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := LocalPath(opts)
	if err := p.SaveImage(surface, path, opts.Format, opts.Quality, opts.Lossless); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", path, err)
	}
	return path, nil
}
