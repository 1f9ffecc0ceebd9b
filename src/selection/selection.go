// Package selection holds the drag-to-select state machine driven by the
// overlay. It runs on the overlay's thread only and is discarded after one
// gesture.
package selection

import (
	"fmt"

	"screen-pin/src/coords"
	"screen-pin/src/desktop"
	"screen-pin/src/logutil"
)

// DefaultMinSpan is the smallest accepted selection side in physical pixels.
const DefaultMinSpan = 5

type State int

const (
	Idle State = iota
	Dragging
	Completed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further event can change the state.
func (s State) Terminal() bool { return s == Completed || s == Cancelled }

type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
	// CancelGesture covers Escape and the secondary (right) button.
	CancelGesture
)

// Event is a framework-neutral input event. Pos is in UI space (DIPs) and
// is ignored for CancelGesture.
type Event struct {
	Kind EventKind
	Pos  coords.PointF
}

// Selection is the finalized rectangle in all three spaces.
type Selection struct {
	// UI is the rectangle as drawn, in DIPs.
	UI coords.RectF
	// Screen is screen-absolute physical pixels.
	Screen coords.Rect
	// Bitmap is Screen relative to the virtual-desktop origin; this is the
	// region handed to capture.
	Bitmap coords.Rect
	// Desktop is the virtual desktop the selection was made on.
	Desktop desktop.VirtualScreenInfo
}

// Options configures a Controller.
type Options struct {
	Desktop desktop.Provider
	// MinSpan defaults to DefaultMinSpan when <= 0.
	MinSpan int
	// UIToPixel converts a UI point to screen pixels. It is only used when
	// the OS cursor position cannot be read.
	UIToPixel func(coords.PointF) coords.Point
	Log       logutil.Sink
}

// Controller tracks one drag gesture. Not safe for concurrent use.
type Controller struct {
	opts Options

	state     State
	startUI   coords.PointF
	currentUI coords.RectF
	startPx   coords.Point
	result    Selection
}

func NewController(opts Options) *Controller {
	if opts.MinSpan <= 0 {
		opts.MinSpan = DefaultMinSpan
	}
	if opts.Log == nil {
		opts.Log = logutil.Discard()
	}
	return &Controller{opts: opts}
}

func (c *Controller) State() State { return c.state }

// LiveRect returns the rectangle to draw while dragging.
func (c *Controller) LiveRect() (coords.RectF, bool) {
	if c.state != Dragging {
		return coords.RectF{}, false
	}
	return c.currentUI, true
}

// Result returns the selection once Completed.
func (c *Controller) Result() (Selection, bool) {
	if c.state != Completed {
		return Selection{}, false
	}
	return c.result, true
}

// Handle applies ev and returns the resulting state. Events that do not
// apply to the current state are ignored.
func (c *Controller) Handle(ev Event) State {
	if c.state.Terminal() {
		return c.state
	}
	switch ev.Kind {
	case PointerDown:
		if c.state == Idle {
			c.begin(ev.Pos)
		}
	case PointerMove:
		if c.state == Dragging {
			c.currentUI = coords.RectFFromPoints(c.startUI, ev.Pos)
		}
	case PointerUp:
		if c.state == Dragging {
			c.finish(ev.Pos)
		}
	case CancelGesture:
		c.cancel("cancel gesture")
	}
	return c.state
}

func (c *Controller) begin(p coords.PointF) {
	px, ok := c.cursor(p)
	if !ok {
		c.cancel("cursor position unavailable at pointer down")
		return
	}
	c.startUI = p
	c.startPx = px
	c.currentUI = coords.RectF{X: p.X, Y: p.Y}
	c.state = Dragging
}

func (c *Controller) finish(p coords.PointF) {
	endPx, ok := c.cursor(p)
	if !ok {
		c.cancel("cursor position unavailable at pointer up")
		return
	}
	ui := coords.RectFFromPoints(c.startUI, p)
	screen := coords.RectFromPoints(c.startPx, endPx)
	if screen.Width < c.opts.MinSpan || screen.Height < c.opts.MinSpan {
		c.cancel(fmt.Sprintf("selection %v below %dpx minimum", screen, c.opts.MinSpan))
		return
	}
	info, err := c.virtualScreen()
	if err != nil {
		c.cancel(fmt.Sprintf("virtual screen unavailable: %v", err))
		return
	}
	c.result = Selection{UI: ui, Screen: screen, Bitmap: info.ToBitmap(screen), Desktop: info}
	c.state = Completed
	logutil.Logf(c.opts.Log, logutil.LevelDebug, "selection: ui %v -> screen %v bitmap %v", ui, screen, c.result.Bitmap)
}

func (c *Controller) cancel(reason string) {
	c.state = Cancelled
	c.startUI, c.startPx = coords.PointF{}, coords.Point{}
	c.currentUI = coords.RectF{}
	logutil.Logf(c.opts.Log, logutil.LevelInfo, "selection cancelled: %s", reason)
}

func (c *Controller) cursor(ui coords.PointF) (coords.Point, bool) {
	if c.opts.Desktop != nil {
		p, err := c.opts.Desktop.CursorPos()
		if err == nil {
			return p, true
		}
		logutil.Logf(c.opts.Log, logutil.LevelWarn, "selection: cursor query failed: %v", err)
	}
	if c.opts.UIToPixel != nil {
		return c.opts.UIToPixel(ui), true
	}
	return coords.Point{}, false
}

func (c *Controller) virtualScreen() (desktop.VirtualScreenInfo, error) {
	if c.opts.Desktop == nil {
		return desktop.VirtualScreenInfo{}, desktop.ErrNoDisplays
	}
	return c.opts.Desktop.VirtualScreen()
}
