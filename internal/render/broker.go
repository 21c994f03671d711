// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render hands PDF page rendering to a collaborator that owns a PDF
// renderer. The Broker publishes a request keyed by a fresh ID and waits for
// the matching response; a PageRenderer is one such collaborator.
package render

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/ugc/internal/raster"
	"github.com/pdiddy/ugc/pkg/types"
)

// DefaultTimeout bounds one render request, publish and wait included.
const DefaultTimeout = 30 * time.Second

// Request asks the collaborator to render page 1 of Raw.
type Request struct {
	ID  string
	Raw []byte
}

// Response answers a Request. An empty DataURL with no Error means the
// renderer produced nothing.
type Response struct {
	ID      string
	DataURL string
	Error   string
}

// Broker owns the pending-request table. Every entry is removed exactly
// once: on response, on timeout, or when the caller's context ends.
type Broker struct {
	mu       sync.Mutex
	pending  map[string]chan Response
	requests chan Request
	timeout  time.Duration
	logger   zerolog.Logger
	newID    func() string
}

// NewBroker creates a broker. A timeout <= 0 uses DefaultTimeout.
func NewBroker(timeout time.Duration, logger zerolog.Logger) *Broker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Broker{
		pending:  make(map[string]chan Response),
		requests: make(chan Request),
		timeout:  timeout,
		logger:   logger,
		newID:    uuid.NewString,
	}
}

// Requests is the stream a collaborator consumes.
func (b *Broker) Requests() <-chan Request {
	return b.requests
}

// Timeout returns the per-request bound.
func (b *Broker) Timeout() time.Duration {
	return b.timeout
}

// Pending returns the number of requests awaiting a response.
func (b *Broker) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Deliver routes a response to its waiting request. It reports false when
// no request with that ID is pending, e.g. one that already timed out.
func (b *Broker) Deliver(resp Response) bool {
	ch, ok := b.take(resp.ID)
	if !ok {
		b.logger.Debug().Str("request_id", resp.ID).Msg("dropping render response for unknown request")
		return false
	}
	ch <- resp
	return true
}

// take removes and returns the pending entry for id.
func (b *Broker) take(id string) (chan Response, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.pending[id]
	if ok {
		delete(b.pending, id)
	}
	return ch, ok
}

// Render publishes raw to the collaborator and waits for the data URL.
func (b *Broker) Render(ctx context.Context, raw []byte) (string, error) {
	id := b.newID()
	ch := make(chan Response, 1)

	b.mu.Lock()
	b.pending[id] = ch
	b.mu.Unlock()

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	b.logger.Debug().Str("request_id", id).Int("bytes", len(raw)).Msg("requesting PDF render")

	select {
	case b.requests <- Request{ID: id, Raw: raw}:
	case <-timer.C:
		b.take(id)
		return "", types.RenderTimeoutError("PDF render timeout", nil)
	case <-ctx.Done():
		b.take(id)
		return "", types.RenderError("PDF render cancelled", ctx.Err())
	}

	select {
	case resp := <-ch:
		return b.finish(resp)
	case <-timer.C:
		if _, ok := b.take(id); !ok {
			// Deliver won the race; its response is already buffered.
			return b.finish(<-ch)
		}
		return "", types.RenderTimeoutError("PDF render timeout", nil)
	case <-ctx.Done():
		if _, ok := b.take(id); !ok {
			return b.finish(<-ch)
		}
		return "", types.RenderError("PDF render cancelled", ctx.Err())
	}
}

func (b *Broker) finish(resp Response) (string, error) {
	if resp.Error != "" {
		return "", types.RenderError("PDF renderer reported an error", errors.New(resp.Error))
	}
	if resp.DataURL == "" {
		return "", types.RenderError("PDF render returned no data", nil)
	}
	return resp.DataURL, nil
}

// RenderFirstPage renders page 1 of the PDF bytes and decodes the returned
// image.
func (b *Broker) RenderFirstPage(ctx context.Context, raw []byte) (*raster.Image, error) {
	dataURL, err := b.Render(ctx, raw)
	if err != nil {
		return nil, err
	}
	data, err := DecodeDataURL(dataURL)
	if err != nil {
		return nil, types.RenderError("PDF render returned an unreadable image", err)
	}
	img, err := raster.DecodeBytes(data)
	if err != nil {
		return nil, err
	}
	img.Format = "pdf"
	return img, nil
}
