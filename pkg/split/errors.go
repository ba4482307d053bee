package split

import "errors"

var (
	// ErrDecode is returned when an input cannot be opened or decoded.
	ErrDecode = errors.New("decode image")
	// ErrWrite is returned when the output directory or a tile cannot be written.
	ErrWrite = errors.New("write tile")
	// ErrInvalidSize is returned for a slice size that is not positive or does
	// not fit inside the image.
	ErrInvalidSize = errors.New("invalid slice size")
)
