// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ugc/internal/catalog"
	"github.com/pdiddy/ugc/internal/ghostscript"
	"github.com/pdiddy/ugc/internal/pdfdoc"
	"github.com/pdiddy/ugc/internal/raster"
	"github.com/pdiddy/ugc/pkg/types"
)

// fakeGS writes a small image for the requested device, as Ghostscript would.
type fakeGS struct {
	err     error
	devices []string
}

func (f *fakeGS) RenderFirstPage(_ context.Context, _, out, device string) error {
	f.devices = append(f.devices, device)
	if f.err != nil {
		return f.err
	}
	img := image.NewRGBA(image.Rect(0, 0, 30, 40))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	var buf bytes.Buffer
	var err error
	if device == ghostscript.DeviceJPEG {
		err = jpeg.Encode(&buf, img, nil)
	} else {
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(out, buf.Bytes(), 0o644)
}

type fakeCatalog struct {
	entries []catalog.Entry
	err     error
}

func (f *fakeCatalog) Record(_ context.Context, e catalog.Entry) error {
	f.entries = append(f.entries, e)
	return f.err
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

type env struct {
	uploads   string
	downloads string
	gs        *fakeGS
	catalog   *fakeCatalog
	svc       *Service
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	e := &env{
		uploads:   filepath.Join(dir, "uploads"),
		downloads: filepath.Join(dir, "downloads"),
		gs:        &fakeGS{},
		catalog:   &fakeCatalog{},
	}
	require.NoError(t, os.MkdirAll(e.uploads, 0o755))
	e.svc = New(Options{
		Rasterizer:  e.gs,
		Catalog:     e.catalog,
		DownloadDir: e.downloads,
		DecodeHEIC:  func(r io.Reader) (image.Image, error) { return png.Decode(r) },
		Logger:      zerolog.Nop(),
	})
	return e
}

func (e *env) upload(t *testing.T, name string, write func(path string)) Upload {
	t.Helper()
	path := filepath.Join(e.uploads, "1700000000000-"+name)
	write(path)
	return Upload{Name: name, Path: path}
}

func TestConvertUploads_MixedBatch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	ups := []Upload{
		e.upload(t, "photo.png", func(p string) { writePNG(t, p, 10, 10) }),
		e.upload(t, "broken.png", func(p string) { require.NoError(t, os.WriteFile(p, []byte("junk"), 0o644)) }),
		e.upload(t, "doc.pdf", func(p string) { require.NoError(t, os.WriteFile(p, []byte("%PDF-1.4"), 0o644)) }),
	}

	outputs, results, summary, err := e.svc.ConvertUploads(ctx, ups, types.FormatJPG)
	require.NoError(t, err)

	assert.Equal(t, types.Summary{
		Total: 3, Completed: 2, Errors: 1,
		ErrorLog: []string{results[1].ErrorMessage},
	}, summary)
	assert.Contains(t, results[1].ErrorMessage, "Failed to convert broken.png: ")

	assert.Equal(t, []Output{
		{Name: "photo.jpg", URL: "/api/download/photo.jpg"},
		{Name: "doc.jpg", URL: "/api/download/doc.jpg"},
	}, outputs)
	assert.FileExists(t, filepath.Join(e.downloads, "photo.jpg"))
	assert.FileExists(t, filepath.Join(e.downloads, "doc.jpg"))
	assert.Equal(t, []string{ghostscript.DeviceJPEG}, e.gs.devices)

	for _, up := range ups {
		assert.NoFileExists(t, up.Path)
	}

	require.Len(t, e.catalog.entries, 2)
	assert.Equal(t, "photo.jpg", e.catalog.entries[0].Name)
	assert.Equal(t, "jpg", e.catalog.entries[0].Format)
}

func TestConvertUploads_InvalidFormat(t *testing.T) {
	e := newEnv(t)
	up := e.upload(t, "a.png", func(p string) { writePNG(t, p, 2, 2) })

	_, _, _, err := e.svc.ConvertUploads(context.Background(), []Upload{up}, types.TargetFormat("bmp"))
	require.Error(t, err)
	assert.Equal(t, types.KindUnsupportedFormat, types.KindOf(err))
	assert.NoFileExists(t, up.Path)
}

func TestConvertUploads_CatalogFailureKeepsResult(t *testing.T) {
	e := newEnv(t)
	e.catalog.err = errors.New("disk full")
	up := e.upload(t, "a.png", func(p string) { writePNG(t, p, 2, 2) })

	outputs, _, summary, err := e.svc.ConvertUploads(context.Background(), []Upload{up}, types.FormatPNG)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Completed)
	assert.Len(t, outputs, 1)
}

func TestConvertFile_PDF(t *testing.T) {
	tests := []struct {
		format     types.TargetFormat
		wantDevice string
		wantKind   types.ErrorKind
	}{
		{types.FormatPNG, ghostscript.DevicePNG, ""},
		{types.FormatJPEG, ghostscript.DeviceJPEG, ""},
		{types.FormatWebP, ghostscript.DevicePNG, ""},
		{types.FormatAVIF, "", types.KindUnsupportedFormat},
		{types.FormatTIFF, "", types.KindUnsupportedFormat},
		{types.FormatPDF, "", types.KindUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			e := newEnv(t)
			in := filepath.Join(e.uploads, "doc.pdf")
			require.NoError(t, os.WriteFile(in, []byte("%PDF-1.4"), 0o644))
			out := filepath.Join(e.downloads, "doc."+string(tt.format))

			err := e.svc.ConvertFile(context.Background(), in, out, tt.format)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, types.KindOf(err))
				assert.Empty(t, e.gs.devices)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{tt.wantDevice}, e.gs.devices)

			img, err := raster.DecodeFile(out)
			require.NoError(t, err)
			assert.Equal(t, 30, img.Width())
			assert.Equal(t, 40, img.Height())

			// The intermediate PNG for webp is cleaned up.
			entries, err := os.ReadDir(e.downloads)
			require.NoError(t, err)
			assert.Len(t, entries, 1)
		})
	}
}

func TestConvertFile_PDFRasterizerFails(t *testing.T) {
	e := newEnv(t)
	e.gs.err = types.RenderError("ghostscript failed: bad file", nil)
	in := filepath.Join(e.uploads, "doc.pdf")
	require.NoError(t, os.WriteFile(in, []byte("x"), 0o644))

	err := e.svc.ConvertFile(context.Background(), in, filepath.Join(e.downloads, "doc.webp"), types.FormatWebP)
	assert.Equal(t, types.KindRenderFailure, types.KindOf(err))
}

func TestConvertFile_HEIC(t *testing.T) {
	e := newEnv(t)
	in := filepath.Join(e.uploads, "IMG_0001.HEIC")
	writePNG(t, in, 8, 6)

	out := filepath.Join(e.downloads, "IMG_0001.png")
	require.NoError(t, e.svc.ConvertFile(context.Background(), in, out, types.FormatPNG))

	img, err := raster.DecodeFile(out)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Width())
	assert.Equal(t, "png", img.Format)
}

func TestConvertFile_ImageToPDF(t *testing.T) {
	e := newEnv(t)
	in := filepath.Join(e.uploads, "scan.png")
	writePNG(t, in, 120, 80)

	out := filepath.Join(e.downloads, "scan.pdf")
	require.NoError(t, e.svc.ConvertFile(context.Background(), in, out, types.FormatPDF))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	info, err := pdfdoc.Inspect(data)
	require.NoError(t, err)
	assert.InDelta(t, 120, info.Width, 0.01)
	assert.InDelta(t, 80, info.Height, 0.01)
}

func TestDownloadURL(t *testing.T) {
	assert.Equal(t, "/api/download/a.png", DownloadURL("a.png"))
}
