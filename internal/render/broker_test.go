// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ugc/pkg/types"
)

func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return EncodeDataURL(buf.Bytes())
}

// answer runs a collaborator that replies to every request with respond.
func answer(ctx context.Context, b *Broker, respond func(Request) Response) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case req := <-b.Requests():
				b.Deliver(respond(req))
			}
		}
	}()
}

func TestNewBroker_DefaultTimeout(t *testing.T) {
	b := NewBroker(0, zerolog.Nop())
	assert.Equal(t, 30*time.Second, b.Timeout())
	assert.Equal(t, DefaultTimeout, b.Timeout())
}

func TestRenderFirstPage_RoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewBroker(time.Second, zerolog.Nop())
	url := pngDataURL(t, 30, 20)
	var got Request
	answer(ctx, b, func(req Request) Response {
		got = req
		return Response{ID: req.ID, DataURL: url}
	})

	img, err := b.RenderFirstPage(ctx, []byte("%PDF-raw"))
	require.NoError(t, err)
	assert.Equal(t, 30, img.Width())
	assert.Equal(t, 20, img.Height())
	assert.Equal(t, "pdf", img.Format)
	assert.Equal(t, []byte("%PDF-raw"), got.Raw)
	assert.NotEmpty(t, got.ID)
	assert.Zero(t, b.Pending())
}

func TestRender_TimeoutWithoutCollaborator(t *testing.T) {
	b := NewBroker(30*time.Millisecond, zerolog.Nop())

	_, err := b.Render(context.Background(), []byte("pdf"))
	require.Error(t, err)
	assert.Equal(t, types.KindRenderTimeout, types.KindOf(err))
	assert.Contains(t, err.Error(), "PDF render timeout")
	assert.Zero(t, b.Pending())
}

func TestRender_TimeoutWithSilentCollaborator(t *testing.T) {
	b := NewBroker(30*time.Millisecond, zerolog.Nop())

	received := make(chan Request, 1)
	go func() { received <- <-b.Requests() }()

	_, err := b.Render(context.Background(), []byte("pdf"))
	require.Error(t, err)
	assert.Equal(t, types.KindRenderTimeout, types.KindOf(err))
	assert.Zero(t, b.Pending(), "timed-out request must leave the pending table")

	req := <-received
	assert.False(t, b.Deliver(Response{ID: req.ID, DataURL: "data:image/png;base64,AAAA"}),
		"late responses are dropped")
	assert.Zero(t, b.Pending())
}

func TestRender_ErrorPayloads(t *testing.T) {
	tests := []struct {
		name    string
		resp    func(Request) Response
		wantMsg string
	}{
		{
			name:    "renderer error",
			resp:    func(r Request) Response { return Response{ID: r.ID, Error: "Invalid PDF structure"} },
			wantMsg: "Invalid PDF structure",
		},
		{
			name:    "no data",
			resp:    func(r Request) Response { return Response{ID: r.ID} },
			wantMsg: "PDF render returned no data",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			b := NewBroker(time.Second, zerolog.Nop())
			answer(ctx, b, tt.resp)

			_, err := b.Render(ctx, []byte("pdf"))
			require.Error(t, err)
			assert.Equal(t, types.KindRenderFailure, types.KindOf(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Zero(t, b.Pending())
		})
	}
}

func TestRenderFirstPage_BadDataURL(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewBroker(time.Second, zerolog.Nop())
	answer(ctx, b, func(r Request) Response { return Response{ID: r.ID, DataURL: "blob:nope"} })

	_, err := b.RenderFirstPage(ctx, []byte("pdf"))
	require.Error(t, err)
	assert.Equal(t, types.KindRenderFailure, types.KindOf(err))
	assert.Zero(t, b.Pending())
}

func TestRender_ContextCancelled(t *testing.T) {
	b := NewBroker(time.Minute, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := b.Render(ctx, []byte("pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, b.Pending())
}

func TestRender_CorrelatesOutOfOrderResponses(t *testing.T) {
	b := NewBroker(5*time.Second, zerolog.Nop())
	const n = 4

	// Collect all requests, then answer them in reverse order, echoing each
	// request's payload back as its data URL.
	go func() {
		reqs := make([]Request, 0, n)
		for len(reqs) < n {
			reqs = append(reqs, <-b.Requests())
		}
		for i := len(reqs) - 1; i >= 0; i-- {
			b.Deliver(Response{ID: reqs[i].ID, DataURL: "data:image/png;base64," + string(reqs[i].Raw)})
		}
	}()

	var wg sync.WaitGroup
	got := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], errs[i] = b.Render(context.Background(), []byte(fmt.Sprintf("payload%d", i)))
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, fmt.Sprintf("data:image/png;base64,payload%d", i), got[i])
	}
	assert.Zero(t, b.Pending())
}

func TestRender_UniqueIDs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewBroker(time.Second, zerolog.Nop())
	url := pngDataURL(t, 1, 1)
	seen := map[string]bool{}
	var mu sync.Mutex
	answer(ctx, b, func(r Request) Response {
		mu.Lock()
		seen[r.ID] = true
		mu.Unlock()
		return Response{ID: r.ID, DataURL: url}
	})

	for i := 0; i < 5; i++ {
		_, err := b.Render(ctx, nil)
		require.NoError(t, err)
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 5)
}

func TestDataURL(t *testing.T) {
	data, err := DecodeDataURL(EncodeDataURL([]byte{1, 2, 3}))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)

	data, err = DecodeDataURL("data:image/jpeg;base64,AQI=")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, data)

	_, err = DecodeDataURL("data:text/plain,hello")
	assert.Error(t, err)
}
