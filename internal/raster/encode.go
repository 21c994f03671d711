// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package raster

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/avif"
	"github.com/gen2brain/webp"

	"github.com/pdiddy/ugc/pkg/types"
)

// EncodeOptions tunes the lossy encoders. Zero values fall back to defaults.
type EncodeOptions struct {
	JPEGQuality int
	WebPQuality int
	AVIFQuality int
}

const (
	defaultJPEGQuality = 90
	defaultWebPQuality = 80
	defaultAVIFQuality = 60
	avifSpeed          = 8
)

// OptionsFromConfig maps the convert settings onto encoder options.
func OptionsFromConfig(cfg types.ConvertConfig) EncodeOptions {
	return EncodeOptions{
		JPEGQuality: cfg.JPEGQuality,
		WebPQuality: cfg.WebPQuality,
		AVIFQuality: cfg.AVIFQuality,
	}
}

func quality(q, def int) int {
	if q < 1 || q > 100 {
		return def
	}
	return q
}

// Encode writes img to w in the given raster format. PDF is not a raster
// format; callers route it to the pdfdoc package.
func Encode(w io.Writer, img *Image, format types.TargetFormat, opts EncodeOptions) error {
	if img == nil || img.Width() == 0 || img.Height() == 0 {
		return types.EncodeError("image has no dimensions", nil)
	}

	var err error
	switch {
	case format == types.FormatPNG:
		err = imaging.Encode(w, img.img, imaging.PNG, imaging.PNGCompressionLevel(png.DefaultCompression))
	case format.IsJPEG():
		err = EncodeJPEG(w, img, opts.JPEGQuality)
	case format == types.FormatWebP:
		err = webp.Encode(w, img.img, webp.Options{Quality: quality(opts.WebPQuality, defaultWebPQuality)})
	case format == types.FormatAVIF:
		q := quality(opts.AVIFQuality, defaultAVIFQuality)
		err = avif.Encode(w, img.img, avif.Options{Quality: q, QualityAlpha: q, Speed: avifSpeed})
	case format == types.FormatTIFF:
		err = imaging.Encode(w, img.img, imaging.TIFF)
	default:
		return types.UnsupportedFormatError(fmt.Sprintf("%q is not a raster output format", format), nil)
	}
	if err != nil {
		return types.EncodeError(fmt.Sprintf("encoding %s", format), err)
	}
	return nil
}

// EncodeJPEG flattens transparency onto white and writes a baseline JPEG.
func EncodeJPEG(w io.Writer, img *Image, q int) error {
	flat := flatten(img.img)
	return imaging.Encode(w, flat, imaging.JPEG, imaging.JPEGQuality(quality(q, defaultJPEGQuality)))
}

func flatten(img image.Image) image.Image {
	if opaque, ok := img.(interface{ Opaque() bool }); ok && opaque.Opaque() {
		return img
	}
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

// EncodeFile writes img to path. A partially written file is removed on error.
func EncodeFile(path string, img *Image, format types.TargetFormat, opts EncodeOptions) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return types.IOError(fmt.Sprintf("creating %s", path), err)
	}
	defer func() {
		if err != nil {
			os.Remove(path)
		}
	}()

	bw := bufio.NewWriter(f)
	if err = Encode(bw, img, format, opts); err != nil {
		f.Close()
		return err
	}
	if err = bw.Flush(); err != nil {
		f.Close()
		return types.IOError(fmt.Sprintf("writing %s", path), err)
	}
	if err = f.Close(); err != nil {
		return types.IOError(fmt.Sprintf("closing %s", path), err)
	}
	return nil
}
