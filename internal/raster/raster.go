// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package raster holds decoded pixel data between a decode step and an
// encode step. Decoding relies on format sniffing over the registered
// decoders (png, jpeg, gif, bmp, tiff, webp, avif, heic).
package raster

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"io"
	"os"

	"github.com/disintegration/imaging"
	_ "github.com/gen2brain/avif"
	"github.com/gen2brain/heic"
	_ "github.com/gen2brain/webp"
	_ "golang.org/x/image/bmp"

	"github.com/pdiddy/ugc/pkg/types"
)

// Image is an open, not yet encoded raster.
type Image struct {
	img image.Image

	// Format is the decoder that produced the pixels ("png", "heic", "pdf", ...).
	Format string
}

// New wraps an already decoded image.
func New(img image.Image, format string) *Image {
	return &Image{img: img, Format: format}
}

// Pixels returns the underlying image.
func (i *Image) Pixels() image.Image { return i.img }

// Width returns the pixel width.
func (i *Image) Width() int { return i.img.Bounds().Dx() }

// Height returns the pixel height.
func (i *Image) Height() int { return i.img.Bounds().Dy() }

// Decode sniffs the format of r and decodes it, applying EXIF orientation.
func Decode(r io.Reader) (*Image, error) {
	var buf bytes.Buffer
	tee := io.TeeReader(r, &buf)

	_, format, err := image.DecodeConfig(tee)
	if err != nil {
		return nil, types.DecodeError("unrecognized image data", err)
	}

	img, err := imaging.Decode(io.MultiReader(&buf, r), imaging.AutoOrientation(true))
	if err != nil {
		return nil, types.DecodeError(fmt.Sprintf("decoding %s image", format), err)
	}
	return &Image{img: img, Format: format}, nil
}

// DecodeBytes decodes an in-memory image.
func DecodeBytes(data []byte) (*Image, error) {
	return Decode(bytes.NewReader(data))
}

// DecodeFile opens and decodes the image at path.
func DecodeFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, types.IOError(fmt.Sprintf("opening %s", path), err)
	}
	defer f.Close()
	return Decode(f)
}

// HEICDecoder decodes a HEIC container to pixels.
type HEICDecoder func(r io.Reader) (image.Image, error)

// DefaultHEICDecoder is the libheif-backed decoder.
var DefaultHEICDecoder HEICDecoder = heic.Decode

// DecodeHEIC decodes HEIC bytes with dec and materializes the result into a
// full NRGBA buffer, so no lazy decoder state survives into the encode step.
func DecodeHEIC(data []byte, dec HEICDecoder) (*Image, error) {
	if dec == nil {
		dec = DefaultHEICDecoder
	}
	img, err := dec(bytes.NewReader(data))
	if err != nil {
		return nil, types.DecodeError("decoding HEIC image", err)
	}
	return Materialize(img, "heic"), nil
}

// Materialize copies img into a fresh NRGBA buffer.
func Materialize(img image.Image, format string) *Image {
	return &Image{img: imaging.Clone(img), Format: format}
}
