// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/rsc/pdf"
)

// Info describes a PDF without rendering it.
type Info struct {
	Pages int

	// Width and Height are the first page's MediaBox size in points.
	Width  float64
	Height float64
}

// Inspect reads the page count and first-page size of an in-memory PDF.
func Inspect(data []byte) (info Info, err error) {
	// rsc/pdf panics on some malformed inputs instead of returning errors.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parsing PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Info{}, fmt.Errorf("parsing PDF: %w", err)
	}

	info.Pages = r.NumPage()
	if info.Pages == 0 {
		return info, errors.New("PDF has no pages")
	}

	box := mediaBox(r.Page(1).V)
	if box.Kind() != pdf.Array || box.Len() != 4 {
		return info, errors.New("first page has no MediaBox")
	}
	info.Width = box.Index(2).Float64() - box.Index(0).Float64()
	info.Height = box.Index(3).Float64() - box.Index(1).Float64()
	return info, nil
}

// mediaBox looks up MediaBox on the page or, since it is inheritable, on
// its ancestors in the page tree.
func mediaBox(v pdf.Value) pdf.Value {
	for depth := 0; depth < 32 && v.Kind() == pdf.Dict; depth++ {
		if box := v.Key("MediaBox"); box.Kind() == pdf.Array {
			return box
		}
		v = v.Key("Parent")
	}
	return pdf.Value{}
}
