package inject

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/ayusman/airpointer/internal/gesture"
)

// Buttons accepted by Dispatcher.
var validButtons = map[string]bool{
	"left":   true,
	"right":  true,
	"center": true,
}

// Options configures a Dispatcher.
type Options struct {
	// Button is pressed for Click events. Defaults to "left".
	Button string
	// Kinds lists the event kinds forwarded to the pointer. Empty means
	// Move, Click and Scroll.
	Kinds []gesture.EventKind
}

// Dispatcher maps decoded events onto a Pointer.
type Dispatcher struct {
	pointer Pointer
	button  string
	enabled map[gesture.EventKind]bool
	width   int
	height  int
	logger  *slog.Logger
}

// NewDispatcher creates a Dispatcher. The screen size is read once from p.
func NewDispatcher(p Pointer, opts Options, logger *slog.Logger) (*Dispatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	button := strings.ToLower(opts.Button)
	if button == "" {
		button = "left"
	}
	if !validButtons[button] {
		return nil, fmt.Errorf("inject: unknown mouse button %q", opts.Button)
	}

	kinds := opts.Kinds
	if len(kinds) == 0 {
		kinds = []gesture.EventKind{gesture.Move, gesture.Click, gesture.Scroll}
	}
	enabled := make(map[gesture.EventKind]bool, len(kinds))
	for _, k := range kinds {
		if k == gesture.None {
			continue
		}
		enabled[k] = true
	}

	w, h := p.ScreenSize()

	return &Dispatcher{
		pointer: p,
		button:  button,
		enabled: enabled,
		width:   w,
		height:  h,
		logger:  logger,
	}, nil
}

// ScreenSize returns the display size captured at construction.
func (d *Dispatcher) ScreenSize() (int, int) {
	return d.width, d.height
}

// Enabled reports whether events of kind k reach the pointer.
func (d *Dispatcher) Enabled(k gesture.EventKind) bool {
	return d.enabled[k]
}

// Dispatch performs the pointer action for e and reports whether one was
// performed. Scroll amounts are inverted because the wheel axis runs opposite
// to finger motion in image coordinates.
func (d *Dispatcher) Dispatch(e gesture.Event) bool {
	if !d.enabled[e.Kind] {
		return false
	}

	switch e.Kind {
	case gesture.Move:
		x, y := d.clamp(e.X, e.Y)
		d.pointer.Move(x, y)
	case gesture.Click:
		d.pointer.Click(d.button)
		d.logger.Debug("click", "button", d.button)
	case gesture.Scroll:
		clicks := -int(math.Round(e.Amount))
		if clicks == 0 {
			return false
		}
		d.pointer.Scroll(clicks)
		d.logger.Debug("scroll", "clicks", clicks, "amount", e.Amount)
	default:
		return false
	}
	return true
}

// clamp keeps the cursor target on screen. Decoder coordinates may fall
// outside it when the hand is partly out of view.
func (d *Dispatcher) clamp(x, y float64) (int, int) {
	cx := int(math.Round(x))
	cy := int(math.Round(y))
	if d.width > 0 {
		cx = max(0, min(cx, d.width-1))
	}
	if d.height > 0 {
		cy = max(0, min(cy, d.height-1))
	}
	return cx, cy
}
