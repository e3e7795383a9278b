// Package track loads scripted hand tracks for replaying through the
// pipeline without a camera.
//
// A track is a JSON array of frames. Each frame names a pose and an offset
// in normalized image units:
//
//	[{"pose": "pointing"}, {"pose": "pointing", "dy": 0.05}, {"pose": "none"}]
//
// The "none" pose is a frame with no hand in view.
package track

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/ayusman/airpointer/internal/detector"
)

//go:embed tracks/*.json
var tracksFS embed.FS

// Frame is one scripted frame.
type Frame struct {
	Pose string  `json:"pose"`
	DX   float64 `json:"dx"`
	DY   float64 `json:"dy"`
}

var poses = map[string]func() detector.HandLandmarks{
	"pointing":           detector.PointingLandmarks,
	"index_middle_pinch": detector.IndexMiddlePinchLandmarks,
	"thumb_middle_pinch": detector.ThumbMiddlePinchLandmarks,
	"wrist_only":         detector.WristOnlyLandmarks,
}

// Hands expands a frame into the detections a detector would report.
func (f Frame) Hands() ([]detector.HandLandmarks, error) {
	if f.Pose == "none" {
		return nil, nil
	}
	pose, ok := poses[f.Pose]
	if !ok {
		return nil, fmt.Errorf("unknown pose %q", f.Pose)
	}
	return []detector.HandLandmarks{detector.Translate(pose(), f.DX, f.DY)}, nil
}

// Parse decodes a track.
func Parse(data []byte) ([][]detector.HandLandmarks, error) {
	var frames []Frame
	if err := json.Unmarshal(data, &frames); err != nil {
		return nil, fmt.Errorf("parse track: %w", err)
	}

	out := make([][]detector.HandLandmarks, len(frames))
	for i, f := range frames {
		hands, err := f.Hands()
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		out[i] = hands
	}
	return out, nil
}

// Load returns the embedded track called name.
func Load(name string) ([][]detector.HandLandmarks, error) {
	data, err := tracksFS.ReadFile("tracks/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("load track %s: %w", name, err)
	}
	return Parse(data)
}

// Names lists the embedded tracks.
func Names() []string {
	entries, _ := fs.ReadDir(tracksFS, "tracks")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}
