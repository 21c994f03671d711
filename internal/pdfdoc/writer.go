// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfdoc packages a raster into a single-page PDF and inspects
// existing PDFs.
package pdfdoc

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/go-pdf/fpdf"

	"github.com/pdiddy/ugc/internal/raster"
	"github.com/pdiddy/ugc/pkg/types"
)

const pageImageName = "page"

// WriteImagePage writes a one-page PDF whose page is exactly the image's
// pixel size in points, with the image JPEG-encoded and placed at the origin.
func WriteImagePage(w io.Writer, img *raster.Image, jpegQuality int) error {
	if img == nil || img.Width() == 0 || img.Height() == 0 {
		return types.EncodeError("image has no dimensions", nil)
	}

	var jpg bytes.Buffer
	if err := raster.EncodeJPEG(&jpg, img, jpegQuality); err != nil {
		return types.EncodeError("encoding embedded JPEG", err)
	}

	size := fpdf.SizeType{Wd: float64(img.Width()), Ht: float64(img.Height())}
	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           size,
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPageFormat("P", size)

	opts := fpdf.ImageOptions{ImageType: "JPG"}
	doc.RegisterImageOptionsReader(pageImageName, opts, &jpg)
	doc.ImageOptions(pageImageName, 0, 0, size.Wd, size.Ht, false, opts, 0, "")

	if err := doc.Output(w); err != nil {
		return types.EncodeError("finalizing PDF", err)
	}
	return nil
}

// WriteImagePageFile writes the PDF to path and returns only once the data
// is flushed, synced and the file closed. A partial file is removed on error.
func WriteImagePageFile(path string, img *raster.Image, jpegQuality int) (err error) {
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
	if err = WriteImagePage(bw, img, jpegQuality); err != nil {
		f.Close()
		return err
	}
	if err = bw.Flush(); err != nil {
		f.Close()
		return types.IOError(fmt.Sprintf("writing %s", path), err)
	}
	if err = f.Sync(); err != nil {
		f.Close()
		return types.IOError(fmt.Sprintf("syncing %s", path), err)
	}
	if err = f.Close(); err != nil {
		return types.IOError(fmt.Sprintf("closing %s", path), err)
	}
	return nil
}
