// Package detector wraps the external hand-landmark model.
package detector

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D is a landmark position. X and Y are normalized to [0, 1] of the
// frame width and height; Z is relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents one detected hand.
// Present marks the landmarks the model actually reported; the others hold
// zero values and must not be read.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Present    [NumLandmarks]bool    `json:"present"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Set stores a landmark and marks it present.
// Out-of-range indices are ignored.
func (h *HandLandmarks) Set(index int, p Point3D) {
	if index < 0 || index >= NumLandmarks {
		return
	}
	h.Points[index] = p
	h.Present[index] = true
}

// Complete reports whether every landmark is present.
func (h *HandLandmarks) Complete() bool {
	for _, ok := range h.Present {
		if !ok {
			return false
		}
	}
	return true
}

// BestHand returns the hand with the highest score, or nil when hands is empty.
func BestHand(hands []HandLandmarks) *HandLandmarks {
	var best *HandLandmarks
	for i := range hands {
		if best == nil || hands[i].Score > best.Score {
			best = &hands[i]
		}
	}
	return best
}
