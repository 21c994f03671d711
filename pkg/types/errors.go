// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a single file failed to convert.
type ErrorKind string

const (
	KindDecodeFailure     ErrorKind = "decode_failure"
	KindUnsupportedFormat ErrorKind = "unsupported_format"
	KindRenderTimeout     ErrorKind = "render_timeout"
	KindRenderFailure     ErrorKind = "render_failure"
	KindEncodeFailure     ErrorKind = "encode_failure"
	KindIOFailure         ErrorKind = "io_failure"
)

// ConversionError is a classified per-file failure. The dispatcher turns it
// into a failed Result; it never aborts a batch.
type ConversionError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// NewError creates a ConversionError of the given kind.
func NewError(kind ErrorKind, message string, err error) *ConversionError {
	return &ConversionError{Kind: kind, Message: message, Err: err}
}

// DecodeError reports source bytes that could not be decoded as an image.
func DecodeError(message string, err error) *ConversionError {
	return NewError(KindDecodeFailure, message, err)
}

// UnsupportedFormatError reports a source or target format the converter cannot handle.
func UnsupportedFormatError(message string, err error) *ConversionError {
	return NewError(KindUnsupportedFormat, message, err)
}

// RenderTimeoutError reports a PDF render that did not answer in time.
func RenderTimeoutError(message string, err error) *ConversionError {
	return NewError(KindRenderTimeout, message, err)
}

// RenderError reports a PDF render that failed or returned unusable data.
func RenderError(message string, err error) *ConversionError {
	return NewError(KindRenderFailure, message, err)
}

// EncodeError reports a failure writing the target format.
func EncodeError(message string, err error) *ConversionError {
	return NewError(KindEncodeFailure, message, err)
}

// IOError reports a filesystem failure reading a source or writing an output.
func IOError(message string, err error) *ConversionError {
	return NewError(KindIOFailure, message, err)
}

// KindOf returns the kind of the first ConversionError in err's chain, or ""
// when err carries no classification.
func KindOf(err error) ErrorKind {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
