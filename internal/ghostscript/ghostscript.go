// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ghostscript runs the Ghostscript raster tool to render page 1 of
// a PDF into a JPEG or PNG file.
package ghostscript

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/ugc/pkg/types"
)

const (
	// DefaultBinary is looked up on PATH when no binary is configured.
	DefaultBinary = "gs"
	// DefaultDPI is the render resolution for page 1.
	DefaultDPI = 150

	DeviceJPEG = "jpeg"
	DevicePNG  = "png16m"
)

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

var defaultExec = &osExecutor{}

// Tool invokes a Ghostscript binary.
type Tool struct {
	bin    string
	dpi    int
	exec   executor
	logger zerolog.Logger
}

// New creates a Tool from configuration. Empty or zero fields fall back to
// DefaultBinary and DefaultDPI.
func New(cfg types.GhostscriptConfig, logger zerolog.Logger) *Tool {
	return newTool(cfg, logger, defaultExec)
}

func newTool(cfg types.GhostscriptConfig, logger zerolog.Logger, exec executor) *Tool {
	bin := cfg.Binary
	if bin == "" {
		bin = DefaultBinary
	}
	dpi := cfg.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Tool{bin: bin, dpi: dpi, exec: exec, logger: logger}
}

// Name returns the configured binary.
func (t *Tool) Name() string { return t.bin }

// DPI returns the render resolution.
func (t *Tool) DPI() int { return t.dpi }

// Available reports whether the binary is on PATH and answers --version.
func (t *Tool) Available(ctx context.Context) bool {
	_, err := t.Version(ctx)
	return err == nil
}

// Version returns the first line of `gs --version`.
func (t *Tool) Version(ctx context.Context) (string, error) {
	if _, err := t.exec.LookPath(t.bin); err != nil {
		return "", fmt.Errorf("%s not found on PATH: %w", t.bin, err)
	}
	out, err := t.exec.CombinedOutput(ctx, t.bin, "--version")
	if err != nil {
		return "", fmt.Errorf("running %s --version: %w", t.bin, err)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return line, nil
}

// Device maps a target format to the Ghostscript output device. WebP is
// rendered as PNG and re-encoded by the caller.
func Device(format types.TargetFormat) (string, error) {
	switch format {
	case types.FormatJPG, types.FormatJPEG:
		return DeviceJPEG, nil
	case types.FormatPNG, types.FormatWebP:
		return DevicePNG, nil
	default:
		return "", types.UnsupportedFormatError(
			fmt.Sprintf("PDF sources can only be converted to jpg, jpeg, png or webp, not %s", format), nil)
	}
}

// Args builds the argument list for rendering page 1 of in to out.
func (t *Tool) Args(in, out, device string) []string {
	return []string{
		"-dQUIET",
		"-dSAFER",
		"-dBATCH",
		"-dNOPAUSE",
		"-dNOPROMPT",
		"-sDEVICE=" + device,
		"-o", out,
		"-dFirstPage=1",
		"-dLastPage=1",
		fmt.Sprintf("-r%d", t.dpi),
		in,
	}
}

// RenderFirstPage renders page 1 of the PDF at in to out using device.
// A failed run or a missing output file is a render failure carrying the
// tool's output.
func (t *Tool) RenderFirstPage(ctx context.Context, in, out, device string) error {
	args := t.Args(in, out, device)
	t.logger.Debug().Str("bin", t.bin).Strs("args", args).Msg("running ghostscript")

	output, err := t.exec.CombinedOutput(ctx, t.bin, args...)
	if err != nil {
		os.Remove(out)
		if ctx.Err() != nil {
			return types.RenderTimeoutError("ghostscript did not finish", ctx.Err())
		}
		return types.RenderError(fmt.Sprintf("ghostscript failed: %s", tail(output)), err)
	}
	if st, err := os.Stat(out); err != nil || st.Size() == 0 {
		os.Remove(out)
		return types.RenderError(fmt.Sprintf("ghostscript produced no output: %s", tail(output)), err)
	}
	return nil
}

// tail trims tool output to something that fits in an error message.
func tail(out []byte) string {
	s := strings.TrimSpace(string(out))
	if s == "" {
		return "no output"
	}
	const max = 200
	if len(s) > max {
		s = "..." + s[len(s)-max:]
	}
	return s
}
