// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package raster

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ugc/pkg/types"
)

// testImage returns a w×h gradient with a translucent corner.
func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	img.Set(0, 0, color.NRGBA{A: 0})
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecode_SniffsPNG(t *testing.T) {
	img, err := DecodeBytes(pngBytes(t, testImage(40, 20)))
	require.NoError(t, err)
	assert.Equal(t, "png", img.Format)
	assert.Equal(t, 40, img.Width())
	assert.Equal(t, 20, img.Height())
}

func TestDecode_Corrupt(t *testing.T) {
	_, err := DecodeBytes([]byte("definitely not an image"))
	require.Error(t, err)
	assert.Equal(t, types.KindDecodeFailure, types.KindOf(err))

	// Valid header, truncated body.
	data := pngBytes(t, testImage(40, 20))
	_, err = DecodeBytes(data[:len(data)/2])
	require.Error(t, err)
	assert.Equal(t, types.KindDecodeFailure, types.KindOf(err))
}

func TestDecodeFile_Missing(t *testing.T) {
	_, err := DecodeFile(filepath.Join(t.TempDir(), "nope.png"))
	require.Error(t, err)
	assert.Equal(t, types.KindIOFailure, types.KindOf(err))
}

func TestDecodeHEIC(t *testing.T) {
	embedded := testImage(16, 12)
	fake := func(r io.Reader) (image.Image, error) {
		return png.Decode(r)
	}

	img, err := DecodeHEIC(pngBytes(t, embedded), fake)
	require.NoError(t, err)
	assert.Equal(t, "heic", img.Format)
	assert.IsType(t, &image.NRGBA{}, img.Pixels())
	assert.Equal(t, 16, img.Width())
	assert.Equal(t, 12, img.Height())

	failing := func(io.Reader) (image.Image, error) { return nil, errors.New("no primary image") }
	_, err = DecodeHEIC([]byte("x"), failing)
	require.Error(t, err)
	assert.Equal(t, types.KindDecodeFailure, types.KindOf(err))
}

func TestEncode_RoundTrip(t *testing.T) {
	src := New(testImage(32, 24), "png")

	tests := []struct {
		format     types.TargetFormat
		wantFormat string
	}{
		{format: types.FormatPNG, wantFormat: "png"},
		{format: types.FormatJPG, wantFormat: "jpeg"},
		{format: types.FormatJPEG, wantFormat: "jpeg"},
		{format: types.FormatTIFF, wantFormat: "tiff"},
		{format: types.FormatWebP, wantFormat: "webp"},
		{format: types.FormatAVIF, wantFormat: "avif"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, src, tt.format, EncodeOptions{}))
			require.NotZero(t, buf.Len())

			back, err := DecodeBytes(buf.Bytes())
			require.NoError(t, err)
			assert.Equal(t, tt.wantFormat, back.Format)
			assert.Equal(t, 32, back.Width())
			assert.Equal(t, 24, back.Height())
		})
	}
}

func TestEncode_RejectsPDFAndEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, New(testImage(4, 4), "png"), types.FormatPDF, EncodeOptions{})
	assert.Equal(t, types.KindUnsupportedFormat, types.KindOf(err))

	err = Encode(&buf, New(image.NewNRGBA(image.Rect(0, 0, 0, 0)), "png"), types.FormatPNG, EncodeOptions{})
	assert.Equal(t, types.KindEncodeFailure, types.KindOf(err))
}

func TestEncodeJPEG_FlattensOntoWhite(t *testing.T) {
	var buf bytes.Buffer
	transparent := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	require.NoError(t, EncodeJPEG(&buf, New(transparent, "png"), 100))

	out, err := jpeg.Decode(&buf)
	require.NoError(t, err)
	r, g, b, _ := out.At(8, 8).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestEncodeFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.png")

	require.NoError(t, EncodeFile(out, New(testImage(10, 10), "png"), types.FormatPNG, EncodeOptions{}))
	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())

	bad := filepath.Join(dir, "bad.pdf")
	err = EncodeFile(bad, New(testImage(10, 10), "png"), types.FormatPDF, EncodeOptions{})
	require.Error(t, err)
	_, statErr := os.Stat(bad)
	assert.True(t, os.IsNotExist(statErr), "partial output should be removed")

	err = EncodeFile(filepath.Join(dir, "missing", "x.png"), New(testImage(2, 2), "png"), types.FormatPNG, EncodeOptions{})
	assert.Equal(t, types.KindIOFailure, types.KindOf(err))
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := types.DefaultConfig().Convert
	opts := OptionsFromConfig(cfg)
	assert.Equal(t, 90, opts.JPEGQuality)
	assert.Equal(t, 80, opts.WebPQuality)
	assert.Equal(t, 60, opts.AVIFQuality)
	assert.Equal(t, 75, quality(75, 10))
	assert.Equal(t, 10, quality(0, 10))
	assert.Equal(t, 10, quality(101, 10))
}
