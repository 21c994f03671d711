// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package service converts uploaded files for the HTTP service. It differs
// from the desktop dispatcher in three ways: outputs use plain
// {base}.{format} names in the downloads directory, PDFs are rasterized by
// Ghostscript, and uploaded files are deleted once processed.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/ugc/internal/catalog"
	"github.com/pdiddy/ugc/internal/convert"
	"github.com/pdiddy/ugc/internal/ghostscript"
	"github.com/pdiddy/ugc/internal/pdfdoc"
	"github.com/pdiddy/ugc/internal/raster"
	"github.com/pdiddy/ugc/pkg/types"
)

// Rasterizer renders page 1 of a PDF file to an image file.
type Rasterizer interface {
	RenderFirstPage(ctx context.Context, in, out, device string) error
}

// Recorder keeps track of converted downloads.
type Recorder interface {
	Record(ctx context.Context, e catalog.Entry) error
}

// Upload is a received file waiting in the uploads directory.
type Upload struct {
	// Name is the client's original file name.
	Name string
	// Path is where the upload was stored.
	Path string
}

// Output is a converted file available for download.
type Output struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Options configures a Service.
type Options struct {
	Rasterizer  Rasterizer
	Catalog     Recorder
	DownloadDir string
	Encode      raster.EncodeOptions
	DecodeHEIC  raster.HEICDecoder
	Logger      zerolog.Logger
}

// Service performs service-variant conversions.
type Service struct {
	gs          Rasterizer
	catalog     Recorder
	downloadDir string
	encode      raster.EncodeOptions
	decodeHEIC  raster.HEICDecoder
	logger      zerolog.Logger
}

// New creates a Service.
func New(opts Options) *Service {
	return &Service{
		gs:          opts.Rasterizer,
		catalog:     opts.Catalog,
		downloadDir: opts.DownloadDir,
		encode:      opts.Encode,
		decodeHEIC:  opts.DecodeHEIC,
		logger:      opts.Logger,
	}
}

// DownloadURL is the path a converted file is served from.
func DownloadURL(name string) string {
	return "/api/download/" + name
}

// ConvertUploads converts each upload in order into the downloads
// directory. Every upload file is removed afterwards whatever the outcome.
// The error is non-nil only when the batch could not start.
func (s *Service) ConvertUploads(ctx context.Context, uploads []Upload, format types.TargetFormat) ([]Output, []types.Result, types.Summary, error) {
	if !format.Valid() {
		removeUploads(uploads)
		return nil, nil, types.Summary{}, types.UnsupportedFormatError(fmt.Sprintf("unknown target format %q", format), nil)
	}
	if err := os.MkdirAll(s.downloadDir, 0o755); err != nil {
		removeUploads(uploads)
		return nil, nil, types.Summary{}, fmt.Errorf("creating downloads directory: %w", err)
	}

	s.logger.Info().Int("files", len(uploads)).Str("format", string(format)).Msg("received files for conversion")

	var outputs []Output
	results := make([]types.Result, 0, len(uploads))
	for _, up := range uploads {
		r := s.convertUpload(ctx, up, format)
		results = append(results, r)
		if r.Succeeded {
			name := filepath.Base(r.OutputPath)
			outputs = append(outputs, Output{Name: name, URL: DownloadURL(name)})
		}
	}
	return outputs, results, types.Fold(results), nil
}

func (s *Service) convertUpload(ctx context.Context, up Upload, format types.TargetFormat) types.Result {
	defer func() {
		if err := os.Remove(up.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn().Err(err).Str("upload", up.Path).Msg("could not remove upload")
		}
	}()

	out := convert.OutputPath(up.Name, format, s.downloadDir, convert.NamingPlain)
	log := s.logger.With().Str("upload", up.Path).Str("output", out).Logger()
	log.Info().Msg("converting")

	if err := s.ConvertFile(ctx, up.Path, out, format); err != nil {
		log.Error().Err(err).Msg("conversion failed")
		return types.Fail(up.Name, err)
	}

	if s.catalog != nil {
		entry := catalog.Entry{Name: filepath.Base(out), Path: out, Format: string(format)}
		if err := s.catalog.Record(ctx, entry); err != nil {
			log.Warn().Err(err).Msg("could not record download")
		}
	}
	return types.Succeed(up.Name, out)
}

// ConvertFile converts the file at in to format, writing out.
func (s *Service) ConvertFile(ctx context.Context, in, out string, format types.TargetFormat) error {
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return types.IOError("creating output directory", err)
	}

	switch convert.RouteFor(in) {
	case convert.RoutePDF:
		return s.convertPDF(ctx, in, out, format)
	case convert.RouteHEIC:
		data, err := os.ReadFile(in)
		if err != nil {
			return types.IOError(fmt.Sprintf("reading %s", in), err)
		}
		img, err := raster.DecodeHEIC(data, s.decodeHEIC)
		if err != nil {
			return err
		}
		return s.write(img, out, format)
	default:
		img, err := raster.DecodeFile(in)
		if err != nil {
			return err
		}
		return s.write(img, out, format)
	}
}

func (s *Service) write(img *raster.Image, out string, format types.TargetFormat) error {
	if format == types.FormatPDF {
		return pdfdoc.WriteImagePageFile(out, img, s.encode.JPEGQuality)
	}
	return raster.EncodeFile(out, img, format, s.encode)
}

// convertPDF rasterizes page 1 with Ghostscript. WebP goes through a
// temporary PNG that is re-encoded.
func (s *Service) convertPDF(ctx context.Context, in, out string, format types.TargetFormat) error {
	device, err := ghostscript.Device(format)
	if err != nil {
		return err
	}
	if s.gs == nil {
		return types.RenderError("no PDF rasterizer is available", nil)
	}

	if format != types.FormatWebP {
		return s.gs.RenderFirstPage(ctx, in, out, device)
	}

	tmp, err := os.CreateTemp(filepath.Dir(out), "."+strings.TrimSuffix(filepath.Base(out), filepath.Ext(out))+"-*.png")
	if err != nil {
		return types.IOError("creating temporary file", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := s.gs.RenderFirstPage(ctx, in, tmpPath, device); err != nil {
		return err
	}
	img, err := raster.DecodeFile(tmpPath)
	if err != nil {
		return err
	}
	return raster.EncodeFile(out, img, format, s.encode)
}

func removeUploads(uploads []Upload) {
	for _, up := range uploads {
		os.Remove(up.Path)
	}
}
