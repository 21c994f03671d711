// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog"
)

// DefaultScale is the upscale factor applied to a page's 72 DPI size.
const DefaultScale = 2.0

const baseDPI = 72.0

// PageRenderer answers broker requests by rendering page 1 with MuPDF.
type PageRenderer struct {
	scale  float64
	logger zerolog.Logger
}

// NewPageRenderer creates a renderer. A scale <= 0 uses DefaultScale.
func NewPageRenderer(scale float64, logger zerolog.Logger) *PageRenderer {
	if scale <= 0 {
		scale = DefaultScale
	}
	return &PageRenderer{scale: scale, logger: logger}
}

// Serve consumes b's requests until ctx ends.
func (p *PageRenderer) Serve(ctx context.Context, b *Broker) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-b.Requests():
			b.Deliver(p.Handle(req))
		}
	}
}

// Handle renders one request into a response.
func (p *PageRenderer) Handle(req Request) Response {
	data, err := p.RenderPNG(req.Raw)
	if err != nil {
		p.logger.Error().Err(err).Str("request_id", req.ID).Msg("PDF render error")
		return Response{ID: req.ID, Error: err.Error()}
	}
	p.logger.Debug().Str("request_id", req.ID).Int("bytes", len(data)).Msg("PDF rendered")
	return Response{ID: req.ID, DataURL: EncodeDataURL(data)}
}

// RenderPNG renders the first page of a PDF to PNG bytes.
func (p *PageRenderer) RenderPNG(raw []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(raw)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, errors.New("PDF has no pages")
	}

	img, err := doc.ImageDPI(0, baseDPI*p.scale)
	if err != nil {
		return nil, fmt.Errorf("rendering page 1: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding rendered page: %w", err)
	}
	return buf.Bytes(), nil
}
