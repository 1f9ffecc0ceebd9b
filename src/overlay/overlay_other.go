//go:build !windows

package overlay

import (
	"context"

	"screen-pin/src/selection"
)

type unsupportedSelector struct{}

func newPlatformSelector(Options) Selector { return unsupportedSelector{} }

func (unsupportedSelector) Select(context.Context) (selection.Selection, bool, error) {
	return selection.Selection{}, false, ErrUnsupported
}
