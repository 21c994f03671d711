// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package client talks to a running ugc service: it uploads files for
// conversion and downloads the results.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/ugc/internal/httputil"
	"github.com/pdiddy/ugc/internal/server"
	"github.com/pdiddy/ugc/internal/service"
	"github.com/pdiddy/ugc/pkg/types"
)

const defaultTimeout = 10 * time.Minute

// Client is an HTTP client for the conversion service.
type Client struct {
	baseURL    *url.URL
	token      string
	http       *http.Client
	maxRetries int
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithToken sends token as a bearer token on every request.
func WithToken(token string) Option {
	return func(cl *Client) { cl.token = token }
}

// WithMaxRetries sets how often a rate-limited request is retried.
func WithMaxRetries(n int) Option {
	return func(cl *Client) { cl.maxRetries = n }
}

// New creates a Client for the service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing server URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server URL %q must start with http:// or https://", baseURL)
	}

	c := &Client{baseURL: u, http: &http.Client{Timeout: defaultTimeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Convert uploads files in one request and returns the service's response.
func (c *Client) Convert(ctx context.Context, files []string, format types.TargetFormat) (server.ConvertResponse, error) {
	var resp server.ConvertResponse
	if len(files) == 0 {
		return resp, types.ErrEmptyJob
	}

	body, contentType, err := multipartBody(files, format)
	if err != nil {
		return resp, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/convert"), bytes.NewReader(body))
	if err != nil {
		return resp, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	httpResp, err := c.do(ctx, req)
	if err != nil {
		return resp, err
	}
	defer httpResp.Body.Close()

	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return resp, fmt.Errorf("decoding convert response: %w", err)
	}
	return resp, nil
}

// Download fetches one converted file into dir and returns its path.
func (c *Client) Download(ctx context.Context, file service.Output, dir string) (string, error) {
	name := server.SafeName(file.Name)
	if name == "" {
		return "", fmt.Errorf("invalid download name %q", file.Name)
	}

	ref := file.URL
	if ref == "" {
		ref = "/api/download/" + url.PathEscape(name)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(ref), nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	resp, err := c.do(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(dir, name)
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(path)
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// ConvertAndDownload uploads files, then downloads every converted file
// into dir one after another. Download failures are reported per file and
// do not stop the remaining downloads.
func (c *Client) ConvertAndDownload(ctx context.Context, files []string, format types.TargetFormat, dir string) ([]string, server.ConvertResponse, []error) {
	resp, err := c.Convert(ctx, files, format)
	if err != nil {
		return nil, resp, []error{err}
	}

	var paths []string
	var errs []error
	for _, f := range resp.Files {
		p, err := c.Download(ctx, f, dir)
		if err != nil {
			errs = append(errs, fmt.Errorf("downloading %s: %w", f.Name, err))
			continue
		}
		paths = append(paths, p)
	}
	return paths, resp, errs
}

// Health reports whether the service answers its health check.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/health"), nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// do sends req with retries and turns non-2xx answers into errors.
func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	var e server.ErrorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &e) != nil || e.Error == "" {
		e.Error = strings.TrimSpace(string(data))
	}
	return nil, &StatusError{Code: resp.StatusCode, Message: e.Error}
}

func (c *Client) endpoint(ref string) string {
	r, err := url.Parse(ref)
	if err != nil {
		return c.baseURL.String() + ref
	}
	return c.baseURL.ResolveReference(r).String()
}

// StatusError is a non-2xx answer from the service.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

// multipartBody encodes files and format as the service's upload form.
// The body is buffered so retries can resend it.
func multipartBody(files []string, format types.TargetFormat) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, path := range files {
		if err := addFile(mw, path); err != nil {
			return nil, "", err
		}
	}
	if err := mw.WriteField("format", string(format)); err != nil {
		return nil, "", fmt.Errorf("writing form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("writing form: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

func addFile(mw *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return types.IOError(fmt.Sprintf("opening %s", path), err)
	}
	defer f.Close()

	w, err := mw.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("writing form: %w", err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return types.IOError(fmt.Sprintf("reading %s", path), err)
	}
	return nil
}
