package domain

import (
	"context"
	"fmt"
)

type Codec int

const (
	CodecP7Z Codec = iota
	CodecBZ2
	CodecGZ
)

// ParseCodec maps a compression_type value to a codec. Empty selects 7z.
func ParseCodec(s string) (Codec, error) {
	switch s {
	case "", "7z":
		return CodecP7Z, nil
	case "bz2":
		return CodecBZ2, nil
	case "gz":
		return CodecGZ, nil
	}
	return 0, fmt.Errorf("unknown compression type %q", s)
}

func (c Codec) Extension() string {
	switch c {
	case CodecBZ2:
		return "bz2"
	case CodecGZ:
		return "gz"
	}
	return "7z"
}

func (c Codec) String() string {
	return c.Extension()
}

type Compressor interface {
	// Compress replaces filePath with a compressed artifact and returns its path.
	Compress(ctx context.Context, filePath string) (string, error)
	Verify(ctx context.Context, filePath string) error
}
