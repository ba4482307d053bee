package split

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/tiff"
)

// JPEGQuality is the quality every tile is encoded at.
const JPEGQuality = 75

// Options controls optional behaviour of Image and Folder.
type Options struct {
	// OnTile is called after each tile is written.
	OnTile func(path string, done, total int)
	// OnFile is called by Folder after each input has been processed.
	OnFile func(path string, done, total int)
}

// Image slices the image at inPath into size×size JPEG tiles in outDir and
// returns the tile paths in the order they were written. outDir is created if
// it does not exist.
func Image(ctx context.Context, inPath, outDir string, size int, opts Options) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%s: %w: %d must be positive", inPath, ErrInvalidSize, size)
	}

	img, err := decodeFile(inPath, size)
	if err != nil {
		return nil, err
	}
	if hasAlpha(img) {
		img = flatten(img)
	}
	b := img.Bounds()
	grid, err := NewGrid(b.Dx(), b.Dy(), size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", inPath, err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}

	stem := Stem(inPath)
	tiles := make([]string, 0, grid.Count())
	for x := 0; x < grid.Cols; x++ {
		for y := 0; y < grid.Rows; y++ {
			if err := ctx.Err(); err != nil {
				return tiles, err
			}
			rect := grid.Tile(x, y).Add(b.Min)
			outFile := filepath.Join(outDir, TileName(stem, x, y))
			if err := writeTile(outFile, imaging.Crop(img, rect)); err != nil {
				return tiles, err
			}
			tiles = append(tiles, outFile)
			if opts.OnTile != nil {
				opts.OnTile(outFile, len(tiles), grid.Count())
			}
		}
	}
	return tiles, nil
}

// Stem returns the base name of path up to its first dot.
func Stem(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		return base[:i]
	}
	return base
}

// TileName is the file name of tile (x, y) cut from an image with the given stem.
func TileName(stem string, x, y int) string {
	return fmt.Sprintf("slice_%s_%d_%d.jpg", stem, x, y)
}

// decodeFile reads the header first so an oversized slice is rejected before
// the pixel data is decoded. The file is closed on every path.
func decodeFile(path string, size int) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	if _, err := NewGrid(cfg.Width, cfg.Height, size); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	img, err := imaging.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return img, nil
}

func writeTile(path string, tile image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := imaging.Encode(f, tile, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		f.Close()
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	return nil
}

func hasAlpha(img image.Image) bool {
	switch img.ColorModel() {
	case color.RGBAModel, color.RGBA64Model, color.NRGBAModel, color.NRGBA64Model:
	default:
		return false
	}
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return true
}

// flatten drops the alpha channel, keeping the straight colour values. The JPEG
// encoder would otherwise premultiply and turn transparent pixels black.
func flatten(img image.Image) image.Image {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}
