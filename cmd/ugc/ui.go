// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/pdiddy/ugc/pkg/types"
)

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
	warnColor = color.New(color.FgYellow)
	infoColor = color.New(color.FgCyan)
)

func success(w io.Writer, format string, args ...any) {
	okColor.Fprintf(w, "✓ %s\n", fmt.Sprintf(format, args...))
}

func failure(w io.Writer, format string, args ...any) {
	failColor.Fprintf(w, "✗ %s\n", fmt.Sprintf(format, args...))
}

func warning(w io.Writer, format string, args ...any) {
	warnColor.Fprintf(w, "⚠ %s\n", fmt.Sprintf(format, args...))
}

func info(w io.Writer, format string, args ...any) {
	infoColor.Fprintf(w, "ℹ %s\n", fmt.Sprintf(format, args...))
}

// barSink shows a job's progress as a percentage bar on errOut and prints
// failures and the summary as colored lines.
type barSink struct {
	bar    *progressbar.ProgressBar
	out    io.Writer
	errOut io.Writer
}

func newBarSink(out, errOut io.Writer, visible bool) *barSink {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(errOut),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("starting"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionSetVisibility(visible),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(errOut, "\n")
		}),
	)
	return &barSink{bar: bar, out: out, errOut: errOut}
}

func (s *barSink) Progress(e types.ProgressEvent) {
	if e.CurrentFile == types.DoneMarker {
		s.bar.Describe(types.DoneMarker)
		_ = s.bar.Finish()
		return
	}
	s.bar.Describe(filepath.Base(e.CurrentFile))
	_ = s.bar.Set(e.Percent)
}

func (s *barSink) Error(message string) {
	_ = s.bar.Clear()
	failure(s.errOut, "%s", message)
}

func (s *barSink) Complete(sum types.Summary) {
	printSummary(s.out, sum)
}

func printSummary(w io.Writer, sum types.Summary) {
	line := fmt.Sprintf("Batch summary: %d converted, %d failed (total: %d)", sum.Completed, sum.Errors, sum.Total)
	fmt.Fprintln(w)
	if sum.HasFailures() {
		warning(w, "%s", line)
		return
	}
	success(w, "%s", line)
}
