// Package texture resolves map texture names to materials by probing texture
// files and reading their dimensions.
package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
)

// TGA header errors.
var (
	ErrTGATruncated   = errors.New("TGA data too short")
	ErrTGAColorMapped = errors.New("color-mapped TGA not supported")
	ErrTGAType        = errors.New("unsupported TGA type")
	ErrTGADepth       = errors.New("unsupported TGA bit depth")
)

const tgaHeaderSize = 18

// DecodeTGAConfig reads the dimensions of an uncompressed (type 2) or RLE
// (type 10) true-color TGA without decoding pixels.
func DecodeTGAConfig(r io.Reader) (image.Config, error) {
	var h [tgaHeaderSize]byte
	if _, err := io.ReadFull(r, h[:]); err != nil {
		return image.Config{}, ErrTGATruncated
	}

	colorMapType := h[1]
	imageType := h[2]
	width := int(h[12]) | int(h[13])<<8
	height := int(h[14]) | int(h[15])<<8
	bpp := int(h[16])

	if colorMapType != 0 {
		return image.Config{}, ErrTGAColorMapped
	}
	if imageType != 2 && imageType != 10 {
		return image.Config{}, fmt.Errorf("%w %d (only uncompressed/RLE true-color)", ErrTGAType, imageType)
	}
	if bpp != 24 && bpp != 32 {
		return image.Config{}, fmt.Errorf("%w %d (only 24/32)", ErrTGADepth, bpp)
	}

	return image.Config{
		ColorModel: color.RGBAModel,
		Width:      width,
		Height:     height,
	}, nil
}
