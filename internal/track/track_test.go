package track

import (
	"slices"
	"testing"

	"github.com/ayusman/airpointer/internal/detector"
)

func TestNames(t *testing.T) {
	want := []string{"flick_down", "hand_lost", "pinch_click"}
	if got := Names(); !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestLoad_All(t *testing.T) {
	for _, name := range Names() {
		frames, err := Load(name)
		if err != nil {
			t.Errorf("Load(%q) error = %v", name, err)
			continue
		}
		if len(frames) == 0 {
			t.Errorf("Load(%q) returned no frames", name)
		}
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load("moonwalk"); err == nil {
		t.Error("expected error for unknown track")
	}
}

func TestParse(t *testing.T) {
	frames, err := Parse([]byte(`[{"pose":"pointing","dx":0.1,"dy":-0.05},{"pose":"none"}]`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("len = %d, want 2", len(frames))
	}
	if frames[1] != nil {
		t.Errorf("none pose should have no hands, got %d", len(frames[1]))
	}

	base := detector.PointingLandmarks()
	got := frames[0][0].Points[detector.IndexTip]
	want := base.Points[detector.IndexTip]
	if got.X != want.X+0.1 || got.Y != want.Y-0.05 {
		t.Errorf("index tip = %+v, want shifted %+v", got, want)
	}
}

func TestParse_Errors(t *testing.T) {
	for _, data := range []string{`not json`, `[{"pose":"jazz_hands"}]`} {
		if _, err := Parse([]byte(data)); err == nil {
			t.Errorf("Parse(%s) should fail", data)
		}
	}
}
