// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert dispatches each file of a job to a decode path chosen by
// its extension, re-encodes it to the target format, and reports progress,
// per-file failures and a final summary. Files are processed one at a time
// in job order; a failing file never stops the batch.
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/pdiddy/ugc/internal/pdfdoc"
	"github.com/pdiddy/ugc/internal/raster"
	"github.com/pdiddy/ugc/pkg/types"
)

// Renderer turns PDF bytes into the pixels of page 1.
type Renderer interface {
	RenderFirstPage(ctx context.Context, raw []byte) (*raster.Image, error)
}

// Options configures a Dispatcher. Only Renderer is needed for PDF sources;
// everything else has a usable zero value.
type Options struct {
	Renderer   Renderer
	Sink       Sink
	Logger     zerolog.Logger
	Naming     Naming
	Encode     raster.EncodeOptions
	DecodeHEIC raster.HEICDecoder
}

// Dispatcher runs conversion jobs.
type Dispatcher struct {
	renderer   Renderer
	sink       Sink
	logger     zerolog.Logger
	naming     Naming
	encode     raster.EncodeOptions
	decodeHEIC raster.HEICDecoder
}

// New creates a Dispatcher.
func New(opts Options) *Dispatcher {
	sink := opts.Sink
	if sink == nil {
		sink = NopSink{}
	}
	dec := opts.DecodeHEIC
	if dec == nil {
		dec = raster.DefaultHEICDecoder
	}
	return &Dispatcher{
		renderer:   opts.Renderer,
		sink:       sink,
		logger:     opts.Logger,
		naming:     opts.Naming,
		encode:     opts.Encode,
		decodeHEIC: dec,
	}
}

// Run converts every item of job in order. Before file i of n it reports
// floor(i*100/n) percent; after the last it reports 100 with DoneMarker and
// then the summary, once. The error is non-nil only when the job could not
// be started, in which case no events were emitted.
func (d *Dispatcher) Run(ctx context.Context, job types.ConversionJob) (types.Summary, []types.Result, error) {
	if err := job.Validate(); err != nil {
		return types.Summary{}, nil, fmt.Errorf("starting conversion: %w", err)
	}

	n := len(job)
	d.logger.Info().Int("files", n).Msg("starting conversion")

	results := make([]types.Result, 0, n)
	for i, item := range job {
		d.sink.Progress(types.ProgressEvent{Percent: i * 100 / n, CurrentFile: item.SourcePath})

		r := d.ConvertFile(ctx, item)
		if !r.Succeeded {
			d.sink.Error(r.ErrorMessage)
		}
		results = append(results, r)
	}

	d.sink.Progress(types.ProgressEvent{Percent: 100, CurrentFile: types.DoneMarker})

	summary := types.Fold(results)
	d.logger.Info().
		Int("total", summary.Total).
		Int("completed", summary.Completed).
		Int("errors", summary.Errors).
		Msg("conversion finished")
	d.sink.Complete(summary)
	return summary, results, nil
}

// RunPaths builds a job from raw paths and runs it.
func (d *Dispatcher) RunPaths(ctx context.Context, paths []string, format types.TargetFormat, outputDir string) (types.Summary, []types.Result, error) {
	return d.Run(ctx, types.NewJob(paths, format, outputDir))
}

// ConvertFile converts a single item. Failures come back as a failed Result.
func (d *Dispatcher) ConvertFile(ctx context.Context, item types.JobItem) types.Result {
	out := OutputPath(item.SourcePath, item.TargetFormat, item.OutputDir, d.naming)
	log := d.logger.With().Str("source", item.SourcePath).Str("output", out).Logger()
	log.Info().Str("route", RouteFor(item.SourcePath).String()).Msg("converting")

	img, err := d.open(ctx, item.SourcePath)
	if err == nil {
		err = d.write(img, out, item.TargetFormat)
	}
	if err != nil {
		log.Error().Err(err).Str("kind", string(types.KindOf(err))).Msg("conversion failed")
		return types.Fail(item.SourcePath, err)
	}
	return types.Succeed(item.SourcePath, out)
}

// open produces the raster for path along the route its extension selects.
func (d *Dispatcher) open(ctx context.Context, path string) (*raster.Image, error) {
	switch RouteFor(path) {
	case RouteHEIC:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, types.IOError(fmt.Sprintf("reading %s", path), err)
		}
		return raster.DecodeHEIC(data, d.decodeHEIC)

	case RoutePDF:
		if d.renderer == nil {
			return nil, types.RenderError("no PDF renderer is available", nil)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, types.IOError(fmt.Sprintf("reading %s", path), err)
		}
		d.notePages(path, data)
		return d.renderer.RenderFirstPage(ctx, data)

	default:
		return raster.DecodeFile(path)
	}
}

// notePages warns when pages beyond the first will be ignored.
func (d *Dispatcher) notePages(path string, data []byte) {
	info, err := pdfdoc.Inspect(data)
	if err != nil {
		d.logger.Debug().Err(err).Str("source", path).Msg("could not inspect PDF")
		return
	}
	if info.Pages > 1 {
		d.logger.Warn().Str("source", path).Int("pages", info.Pages).Msg("only page 1 of the PDF is converted")
	}
}

func (d *Dispatcher) write(img *raster.Image, out string, format types.TargetFormat) error {
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return types.IOError(fmt.Sprintf("creating output directory %s", filepath.Dir(out)), err)
	}
	if format == types.FormatPDF {
		return pdfdoc.WriteImagePageFile(out, img, d.encode.JPEGQuality)
	}
	return raster.EncodeFile(out, img, format, d.encode)
}
