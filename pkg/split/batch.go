package split

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/PhantomInTheWire/tiff-tiler/pkg/monitoring"
)

// Result is the outcome of slicing one input file.
type Result struct {
	Input string
	Tiles []string
	Err   error
}

// Report collects the results of a Folder run in discovery order.
type Report struct {
	Results []Result
}

// Tiles returns every tile written during the run.
func (r Report) Tiles() []string {
	var out []string
	for _, res := range r.Results {
		out = append(out, res.Tiles...)
	}
	return out
}

// Failed returns the results that ended in an error.
func (r Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Summary is a one-line human readable account of the run.
func (r Report) Summary() string {
	failed := len(r.Failed())
	return fmt.Sprintf("%d files, %d tiled, %d failed, %d tiles written",
		len(r.Results), len(r.Results)-failed, failed, len(r.Tiles()))
}

// Discover lists the *.tif and *.tiff files directly under dir.
func Discover(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.tif", "*.tiff"} {
		m, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, m...)
	}
	return files, nil
}

// Folder slices every TIFF under inDir into outDir. Files that cannot be
// decoded or are smaller than size are recorded in the report and skipped. An
// unwritable output aborts the run; the partial report is returned with the
// error.
func Folder(ctx context.Context, inDir, outDir string, size int, opts Options) (Report, error) {
	var report Report
	if size <= 0 {
		return report, fmt.Errorf("%w: %d must be positive", ErrInvalidSize, size)
	}

	files, err := Discover(inDir)
	if err != nil {
		return report, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return report, fmt.Errorf("%w: %v", ErrWrite, err)
	}

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		tiles, err := Image(ctx, file, outDir, size, opts)
		report.Results = append(report.Results, Result{Input: file, Tiles: tiles, Err: err})
		if err != nil {
			if errors.Is(err, ErrWrite) || ctx.Err() != nil {
				return report, err
			}
			monitoring.Logf("skipping %s: %v", file, err)
		}
		if opts.OnFile != nil {
			opts.OnFile(file, i+1, len(files))
		}
	}
	return report, nil
}
