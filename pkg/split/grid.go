package split

import (
	"fmt"
	"image"
)

// Grid is the tiling of a W×H image into square cells of side Size.
type Grid struct {
	Width, Height int
	Size          int
	Cols, Rows    int
}

// NewGrid computes the grid for an image of the given dimensions. Size must be
// positive and fit inside the image, otherwise the clamped last tile would
// start at a negative origin.
func NewGrid(width, height, size int) (Grid, error) {
	if size <= 0 {
		return Grid{}, fmt.Errorf("%w: %d must be positive", ErrInvalidSize, size)
	}
	if size > width || size > height {
		return Grid{}, fmt.Errorf("%w: %d exceeds image %dx%d", ErrInvalidSize, size, width, height)
	}
	return Grid{
		Width:  width,
		Height: height,
		Size:   size,
		Cols:   (width + size - 1) / size,
		Rows:   (height + size - 1) / size,
	}, nil
}

// Count returns the number of tiles in the grid.
func (g Grid) Count() int {
	return g.Cols * g.Rows
}

// Tile returns the rectangle of cell (x, y). Every tile is Size×Size: when a
// dimension is not a multiple of Size the last column (row) is shifted back so
// its far edge sits on the image edge, which makes it overlap its neighbour.
func (g Grid) Tile(x, y int) image.Rectangle {
	left := clampOrigin(x, g.Cols, g.Width, g.Size)
	upper := clampOrigin(y, g.Rows, g.Height, g.Size)
	return image.Rect(left, upper, left+g.Size, upper+g.Size)
}

func clampOrigin(i, n, extent, size int) int {
	if i == n-1 && extent%size != 0 {
		return extent - size
	}
	return i * size
}
