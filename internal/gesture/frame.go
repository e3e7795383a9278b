package gesture

import (
	"math"

	"github.com/ayusman/airpointer/internal/detector"
)

// Keypoint names a hand landmark reported by the hand-tracking model.
type Keypoint string

// Keypoints following the MediaPipe hand model.
const (
	Wrist     Keypoint = "wrist"
	ThumbCMC  Keypoint = "thumb_cmc"
	ThumbMCP  Keypoint = "thumb_mcp"
	ThumbIP   Keypoint = "thumb_ip"
	ThumbTip  Keypoint = "thumb_tip"
	IndexMCP  Keypoint = "index_mcp"
	IndexPIP  Keypoint = "index_pip"
	IndexDIP  Keypoint = "index_dip"
	IndexTip  Keypoint = "index_tip"
	MiddleMCP Keypoint = "middle_mcp"
	MiddlePIP Keypoint = "middle_pip"
	MiddleDIP Keypoint = "middle_dip"
	MiddleTip Keypoint = "middle_tip"
	RingMCP   Keypoint = "ring_mcp"
	RingPIP   Keypoint = "ring_pip"
	RingDIP   Keypoint = "ring_dip"
	RingTip   Keypoint = "ring_tip"
	PinkyMCP  Keypoint = "pinky_mcp"
	PinkyPIP  Keypoint = "pinky_pip"
	PinkyDIP  Keypoint = "pinky_dip"
	PinkyTip  Keypoint = "pinky_tip"
)

// landmarkKeypoints maps detector landmark indices to keypoint names.
var landmarkKeypoints = [detector.NumLandmarks]Keypoint{
	detector.Wrist:     Wrist,
	detector.ThumbCMC:  ThumbCMC,
	detector.ThumbMCP:  ThumbMCP,
	detector.ThumbIP:   ThumbIP,
	detector.ThumbTip:  ThumbTip,
	detector.IndexMCP:  IndexMCP,
	detector.IndexPIP:  IndexPIP,
	detector.IndexDIP:  IndexDIP,
	detector.IndexTip:  IndexTip,
	detector.MiddleMCP: MiddleMCP,
	detector.MiddlePIP: MiddlePIP,
	detector.MiddleDIP: MiddleDIP,
	detector.MiddleTip: MiddleTip,
	detector.RingMCP:   RingMCP,
	detector.RingPIP:   RingPIP,
	detector.RingDIP:   RingDIP,
	detector.RingTip:   RingTip,
	detector.PinkyMCP:  PinkyMCP,
	detector.PinkyPIP:  PinkyPIP,
	detector.PinkyDIP:  PinkyDIP,
	detector.PinkyTip:  PinkyTip,
}

// KnownKeypoint reports whether k names one of the hand landmarks.
func KnownKeypoint(k Keypoint) bool {
	for _, name := range landmarkKeypoints {
		if name == k {
			return true
		}
	}
	return false
}

// Point is a 2-D position in pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// HandFrame holds the keypoints detected for one hand in one frame.
// A nil or empty frame means no hand was visible.
type HandFrame map[Keypoint]Point

// FrameFromLandmarks converts normalized detector landmarks into a HandFrame
// in a width x height pixel space. Landmarks the detector did not report are
// left out of the frame. A nil hand yields an empty frame.
func FrameFromLandmarks(hand *detector.HandLandmarks, width, height int) HandFrame {
	if hand == nil {
		return HandFrame{}
	}

	frame := make(HandFrame, detector.NumLandmarks)
	for i := 0; i < detector.NumLandmarks; i++ {
		if !hand.Present[i] {
			continue
		}
		frame[landmarkKeypoints[i]] = Point{
			X: hand.Points[i].X * float64(width),
			Y: hand.Points[i].Y * float64(height),
		}
	}
	return frame
}
