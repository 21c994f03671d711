// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// TargetFormat is the output encoding selected for a job item.
type TargetFormat string

const (
	FormatPNG  TargetFormat = "png"
	FormatJPG  TargetFormat = "jpg"
	FormatJPEG TargetFormat = "jpeg"
	FormatWebP TargetFormat = "webp"
	FormatAVIF TargetFormat = "avif"
	FormatTIFF TargetFormat = "tiff"
	FormatPDF  TargetFormat = "pdf"
)

var supportedFormats = []TargetFormat{
	FormatPNG, FormatJPG, FormatJPEG, FormatWebP, FormatAVIF, FormatTIFF, FormatPDF,
}

// SupportedFormats returns the enumerated target formats in display order.
func SupportedFormats() []TargetFormat {
	out := make([]TargetFormat, len(supportedFormats))
	copy(out, supportedFormats)
	return out
}

// ParseTargetFormat normalizes s ("PNG", ".jpg") and checks it against the
// enumerated set.
func ParseTargetFormat(s string) (TargetFormat, error) {
	f := TargetFormat(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "."))
	if f.Valid() {
		return f, nil
	}
	return "", UnsupportedFormatError(fmt.Sprintf("target format %q is not one of %s", s, formatList()), nil)
}

// Valid reports whether f is in the enumerated set.
func (f TargetFormat) Valid() bool {
	for _, s := range supportedFormats {
		if f == s {
			return true
		}
	}
	return false
}

// IsJPEG reports whether f selects a JPEG encoding ("jpg" or "jpeg").
func (f TargetFormat) IsJPEG() bool {
	return f == FormatJPG || f == FormatJPEG
}

func (f TargetFormat) String() string { return string(f) }

func formatList() string {
	names := make([]string, len(supportedFormats))
	for i, f := range supportedFormats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// JobItem is one file of a conversion job.
type JobItem struct {
	SourcePath   string       `json:"source_path" yaml:"source_path"`
	TargetFormat TargetFormat `json:"target_format" yaml:"target_format"`

	// OutputDir is optional; empty means next to the source.
	OutputDir string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
}

// ConversionJob is the ordered list of files to convert. Callers own it; the
// dispatcher only reads it.
type ConversionJob []JobItem

// ErrEmptyJob is returned when a job has no items.
var ErrEmptyJob = errors.New("conversion job has no files")

// NewJob builds a job converting every source to the same format and
// output directory.
func NewJob(sources []string, format TargetFormat, outputDir string) ConversionJob {
	job := make(ConversionJob, len(sources))
	for i, src := range sources {
		job[i] = JobItem{SourcePath: src, TargetFormat: format, OutputDir: outputDir}
	}
	return job
}

// Validate checks the job can be started at all.
func (j ConversionJob) Validate() error {
	if len(j) == 0 {
		return ErrEmptyJob
	}
	for i, item := range j {
		if strings.TrimSpace(item.SourcePath) == "" {
			return fmt.Errorf("job item %d: source path is empty", i)
		}
		if !item.TargetFormat.Valid() {
			return fmt.Errorf("job item %d: %w", i,
				UnsupportedFormatError(fmt.Sprintf("target format %q is not one of %s", item.TargetFormat, formatList()), nil))
		}
	}
	return nil
}

// Result is the outcome of converting one file. It lives only as long as
// the request that produced it.
type Result struct {
	SourcePath   string `json:"source_path" yaml:"source_path"`
	OutputPath   string `json:"output_path,omitempty" yaml:"output_path,omitempty"`
	Succeeded    bool   `json:"succeeded" yaml:"succeeded"`
	ErrorMessage string `json:"error_message,omitempty" yaml:"error_message,omitempty"`

	Err error `json:"-" yaml:"-"`
}

// Succeed builds a successful Result.
func Succeed(source, output string) Result {
	return Result{SourcePath: source, OutputPath: output, Succeeded: true}
}

// Fail builds a failed Result whose message is the error-log line for source.
func Fail(source string, err error) Result {
	return Result{SourcePath: source, ErrorMessage: FailureMessage(source, err), Err: err}
}

// FailureMessage formats the error-log line for a failed file.
func FailureMessage(source string, err error) string {
	return fmt.Sprintf("Failed to convert %s: %v", filepath.Base(source), err)
}

// Summary aggregates a job's results.
type Summary struct {
	Total     int      `json:"total" yaml:"total"`
	Completed int      `json:"completed" yaml:"completed"`
	Errors    int      `json:"errors" yaml:"errors"`
	ErrorLog  []string `json:"error_log" yaml:"error_log"`
}

// HasFailures reports whether any file failed.
func (s Summary) HasFailures() bool {
	return s.Errors > 0
}

// Fold derives the summary from results in order.
func Fold(results []Result) Summary {
	s := Summary{Total: len(results), ErrorLog: []string{}}
	for _, r := range results {
		if r.Succeeded {
			s.Completed++
			continue
		}
		s.Errors++
		s.ErrorLog = append(s.ErrorLog, r.ErrorMessage)
	}
	return s
}

// DoneMarker is the CurrentFile value of the final progress event.
const DoneMarker = "Done"

// ProgressEvent is emitted before each file starts and once after the last.
type ProgressEvent struct {
	Percent     int    `json:"progress"`
	CurrentFile string `json:"current_file"`
}
