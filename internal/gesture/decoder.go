// Package gesture turns per-frame hand keypoints into debounced pointer intents.
package gesture

import (
	"errors"
	"fmt"
	"math"
)

// Pair is two keypoints whose proximity signals a click.
type Pair struct {
	A Keypoint
	B Keypoint
}

// Config holds the decoder thresholds.
type Config struct {
	// ClickThreshold is the pixel distance below which a pair counts as pinched.
	ClickThreshold float64
	// ClickPairs are checked in order; any pinched pair emits Click.
	ClickPairs []Pair

	// Reference is the fingertip tracked across frames for scrolling.
	Reference Keypoint
	// ScrollScale multiplies the raw vertical delta before it is compared
	// with ScrollThreshold. Use 1 for pixel frames.
	ScrollScale float64
	// ScrollThreshold is the minimum scaled vertical delta that scrolls.
	ScrollThreshold float64
	// ScrollSensitivity converts the scaled delta into a scroll amount.
	ScrollSensitivity float64
	// FlickThreshold is the scroll amount above which FlickGain is applied.
	FlickThreshold float64
	// FlickGain amplifies fast flicks.
	FlickGain float64

	// CooldownFrames is the length of the suppression window. After Click or
	// Scroll fires, the next CooldownFrames-1 frames cannot fire either.
	CooldownFrames int
}

// DefaultConfig returns the pointer thresholds used by the original
// pinch-and-point controller.
func DefaultConfig() Config {
	return Config{
		ClickThreshold: 35,
		ClickPairs: []Pair{
			{A: IndexTip, B: MiddleTip},
			{A: MiddleTip, B: RingTip},
			{A: MiddleTip, B: ThumbTip},
		},
		Reference:         IndexTip,
		ScrollScale:       1,
		ScrollThreshold:   10,
		ScrollSensitivity: -0.1,
		FlickThreshold:    20,
		FlickGain:         1.5,
		CooldownFrames:    5,
	}
}

// Validate checks the configuration for values the decoder cannot use.
func (c Config) Validate() error {
	if c.ClickThreshold < 0 {
		return errors.New("click threshold must be >= 0")
	}
	if !KnownKeypoint(c.Reference) {
		return fmt.Errorf("unknown reference keypoint %q", c.Reference)
	}
	for _, p := range c.ClickPairs {
		if !KnownKeypoint(p.A) || !KnownKeypoint(p.B) {
			return fmt.Errorf("unknown keypoint in click pair %s/%s", p.A, p.B)
		}
	}
	if c.ScrollScale <= 0 {
		return errors.New("scroll scale must be > 0")
	}
	if c.ScrollThreshold < 0 {
		return errors.New("scroll threshold must be >= 0")
	}
	if c.FlickThreshold < 0 {
		return errors.New("flick threshold must be >= 0")
	}
	if c.FlickGain <= 0 {
		return errors.New("flick gain must be > 0")
	}
	if c.CooldownFrames < 0 {
		return errors.New("cooldown frames must be >= 0")
	}
	return nil
}

// State is what the decoder carries from one frame to the next.
// The zero value is the state before any hand has been seen.
type State struct {
	// Previous is the reference fingertip on the preceding frame. It is only
	// valid when HasPrevious is set, which requires the hand to have been
	// tracked on that frame.
	Previous    Point
	HasPrevious bool

	// Cooldown counts the frames left before Click or Scroll may fire again.
	Cooldown int
}

// Decoder maps a HandFrame and the prior State to one Event and the next State.
// It has no side effects and keeps no state of its own, so one Decoder may be
// shared, while each State must have a single owner.
type Decoder struct {
	cfg      Config
	required []Keypoint
}

// NewDecoder validates cfg and returns a Decoder.
func NewDecoder(cfg Config) (*Decoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("decoder config: %w", err)
	}

	required := []Keypoint{IndexTip, cfg.Reference}
	for _, p := range cfg.ClickPairs {
		required = append(required, p.A, p.B)
	}

	pairs := make([]Pair, len(cfg.ClickPairs))
	copy(pairs, cfg.ClickPairs)
	cfg.ClickPairs = pairs

	return &Decoder{cfg: cfg, required: required}, nil
}

// Config returns the decoder configuration.
func (d *Decoder) Config() Config {
	return d.cfg
}

// Decode runs one step.
//
// Order of evaluation:
//  1. Empty frame: forget the previous position, tick the cooldown, emit None.
//  2. Frame missing a required keypoint: emit None and return state unchanged.
//  3. Tick the cooldown. While it is still running only Move is possible.
//  4. Any pinched click pair emits Click.
//  5. A vertical reference move past the threshold emits Scroll.
//  6. Otherwise emit Move to the index fingertip.
//
// Steps 3-6 record the reference fingertip as the previous position.
// Empty frames still tick the cooldown, so two empty frames in a row only
// leave the same state once the cooldown has run out.
func (d *Decoder) Decode(frame HandFrame, state State) (Event, State) {
	if len(frame) == 0 {
		return Event{Kind: None}, State{Cooldown: tick(state.Cooldown)}
	}

	for _, k := range d.required {
		if _, ok := frame[k]; !ok {
			return Event{Kind: None}, state
		}
	}

	ref := frame[d.cfg.Reference]
	index := frame[IndexTip]

	next := State{
		Previous:    ref,
		HasPrevious: true,
		Cooldown:    tick(state.Cooldown),
	}

	if next.Cooldown > 0 {
		return Event{Kind: Move, X: index.X, Y: index.Y}, next
	}

	if d.pinched(frame) {
		next.Cooldown = d.cfg.CooldownFrames
		return Event{Kind: Click}, next
	}

	if state.HasPrevious {
		dy := (ref.Y - state.Previous.Y) * d.cfg.ScrollScale
		if math.Abs(dy) > d.cfg.ScrollThreshold {
			next.Cooldown = d.cfg.CooldownFrames
			return Event{Kind: Scroll, Amount: d.scrollAmount(dy)}, next
		}
	}

	return Event{Kind: Move, X: index.X, Y: index.Y}, next
}

func (d *Decoder) pinched(frame HandFrame) bool {
	for _, p := range d.cfg.ClickPairs {
		if frame[p.A].Distance(frame[p.B]) < d.cfg.ClickThreshold {
			return true
		}
	}
	return false
}

// scrollAmount applies the sensitivity and amplifies fast flicks.
func (d *Decoder) scrollAmount(dy float64) float64 {
	amount := dy * d.cfg.ScrollSensitivity
	if math.Abs(amount) > d.cfg.FlickThreshold {
		amount *= d.cfg.FlickGain
	}
	return amount
}

func tick(cooldown int) int {
	if cooldown > 0 {
		return cooldown - 1
	}
	return 0
}
