package gesture

import (
	"fmt"
	"strconv"
)

// EventKind identifies the intent decoded from a frame.
type EventKind int

const (
	// None means the frame produced no intent.
	None EventKind = iota
	// Move places the cursor at the index fingertip.
	Move
	// Click is a pinch between a configured pair of fingertips.
	Click
	// Scroll is a vertical fingertip movement larger than the scroll threshold.
	Scroll
)

var kindNames = map[EventKind]string{
	None:   "NONE",
	Move:   "MOVE",
	Click:  "CLICK",
	Scroll: "SCROLL",
}

func (k EventKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "EventKind(" + strconv.Itoa(int(k)) + ")"
}

// ParseEventKind returns the kind named by s (as produced by String).
func ParseEventKind(s string) (EventKind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return None, fmt.Errorf("unknown event kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Discrete reports whether the kind is subject to the cooldown window.
func (k EventKind) Discrete() bool {
	return k == Click || k == Scroll
}

// Event is the single output of one decode step.
type Event struct {
	Kind EventKind `json:"kind"`

	// X and Y are the cursor target for Move.
	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`

	// Amount is the signed scroll amount for Scroll. Negative values come
	// from downward finger motion when the sensitivity is negative.
	Amount float64 `json:"amount,omitempty"`
}

func (e Event) String() string {
	switch e.Kind {
	case Move:
		return fmt.Sprintf("MOVE(%.0f,%.0f)", e.X, e.Y)
	case Scroll:
		return fmt.Sprintf("SCROLL(%.2f)", e.Amount)
	default:
		return e.Kind.String()
	}
}
