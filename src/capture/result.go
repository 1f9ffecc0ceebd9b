package capture

import (
	"errors"
	"fmt"

	"screen-pin/src/coords"
	"screen-pin/src/screenshot"
)

// Sentinel errors returned by Result.Err, for errors.Is checks.
var (
	ErrInvalidRegion = errors.New("capture: invalid region")
	ErrCaptureFailed = errors.New("capture: screen copy failed")
	ErrConvertFailed = errors.New("capture: conversion failed")
	ErrCancelled     = errors.New("capture: cancelled")
)

// FailureKind classifies an unsuccessful Result.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureInvalidRegion
	FailureCapture
	FailureConvert
	FailureCancelled
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureInvalidRegion:
		return "invalid-region"
	case FailureCapture:
		return "capture"
	case FailureConvert:
		return "convert"
	case FailureCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

func (k FailureKind) sentinel() error {
	switch k {
	case FailureInvalidRegion:
		return ErrInvalidRegion
	case FailureCapture:
		return ErrCaptureFailed
	case FailureConvert:
		return ErrConvertFailed
	case FailureCancelled:
		return ErrCancelled
	default:
		return nil
	}
}

// Result is either a success carrying the frozen image and the region that
// was actually captured, or a failure carrying a kind and a message. Use
// Succeeded/Failed to build one; the two shapes never mix.
type Result struct {
	Success bool
	Image   *screenshot.Image
	// Region is bitmap-relative (virtual-desktop origin at 0,0), after clamping.
	Region coords.Rect
	// ScreenRegion is Region in screen-absolute physical pixels.
	ScreenRegion coords.Rect

	Failure      FailureKind
	ErrorMessage string
	cause        error
}

// Succeeded builds a success result.
func Succeeded(img *screenshot.Image, region, screen coords.Rect) Result {
	return Result{Success: true, Image: img, Region: region, ScreenRegion: screen}
}

// Failed builds a failure result. cause may be nil.
func Failed(kind FailureKind, cause error, format string, args ...any) Result {
	return Result{Failure: kind, ErrorMessage: fmt.Sprintf(format, args...), cause: cause}
}

// Cancelled reports whether the result is the cancellation variant.
func (r Result) Cancelled() bool { return !r.Success && r.Failure == FailureCancelled }

// Err returns nil on success, otherwise an error wrapping the kind's
// sentinel and the underlying cause.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	s := r.Failure.sentinel()
	if s == nil {
		s = ErrCaptureFailed
	}
	if r.cause != nil {
		return fmt.Errorf("%w: %s: %w", s, r.ErrorMessage, r.cause)
	}
	return fmt.Errorf("%w: %s", s, r.ErrorMessage)
}
