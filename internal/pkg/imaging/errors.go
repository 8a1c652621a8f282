package imaging

import "errors"

var (
	ErrTooLarge    = errors.New("image exceeds maximum size")
	ErrUnsupported = errors.New("unsupported image format")
)
