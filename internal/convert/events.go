// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"io"

	"github.com/pdiddy/ugc/pkg/types"
)

// Sink receives a job's event stream: progress before each file and once
// at the end, one error message per failed file, and the summary once.
type Sink interface {
	Progress(types.ProgressEvent)
	Error(message string)
	Complete(types.Summary)
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) Progress(types.ProgressEvent) {}
func (NopSink) Error(string)                 {}
func (NopSink) Complete(types.Summary)       {}

// WriterSink prints events as plain status lines.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Progress(e types.ProgressEvent) {
	fmt.Fprintf(s.W, "[%3d%%] %s\n", e.Percent, e.CurrentFile)
}

func (s WriterSink) Error(message string) {
	fmt.Fprintf(s.W, "failed:  %s\n", message)
}

func (s WriterSink) Complete(sum types.Summary) {
	fmt.Fprintf(s.W, "\nBatch summary: %d converted, %d failed (total: %d)\n",
		sum.Completed, sum.Errors, sum.Total)
}

// MultiSink fans events out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) Progress(e types.ProgressEvent) {
	for _, s := range m {
		s.Progress(e)
	}
}

func (m MultiSink) Error(message string) {
	for _, s := range m {
		s.Error(message)
	}
}

func (m MultiSink) Complete(sum types.Summary) {
	for _, s := range m {
		s.Complete(sum)
	}
}
