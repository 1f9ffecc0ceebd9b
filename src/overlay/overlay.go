package overlay

import (
	"context"
	"errors"

	"screen-pin/src/capture"
	"screen-pin/src/desktop"
	"screen-pin/src/dpi"
	"screen-pin/src/logutil"
	"screen-pin/src/selection"
)

var ErrUnsupported = errors.New("overlay: interactive selection not available on this platform")

// Selector defines a synchronous region-selection API owned by the event loop.
// The call is blocking and MUST be invoked only from the single event-loop goroutine.
// Returns (selection, cancelled, error). If cancelled is true, selection is undefined and err is nil.
type Selector interface {
	Select(ctx context.Context) (selection.Selection, bool, error)
}

// Options wires the overlay to the capture core.
type Options struct {
	// Snapshot captures the frozen desktop painted behind the selection.
	Snapshot *capture.Service
	Desktop  desktop.Provider
	Resolver *dpi.Resolver
	MinSpan  int
	Log      logutil.Sink
}

// NewSelector returns the platform implementation.
func NewSelector(opts Options) Selector {
	if opts.Log == nil {
		opts.Log = logutil.Discard()
	}
	if opts.Desktop == nil {
		opts.Desktop = desktop.System{Log: opts.Log}
	}
	if opts.Resolver == nil {
		opts.Resolver = dpi.NewResolver(opts.Log, nil, dpi.SystemStrategies(false)...)
	}
	return newPlatformSelector(opts)
}

// SelectorFunc adapts a function to Selector.
type SelectorFunc func(ctx context.Context) (selection.Selection, bool, error)

func (f SelectorFunc) Select(ctx context.Context) (selection.Selection, bool, error) { return f(ctx) }
