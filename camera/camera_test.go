package camera

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func near(a, b float32) bool { return math.Abs(float64(a-b)) < 0.01 }

func TestCenterMapsToPanelCenter(t *testing.T) {
	cam := New(PlaneTop, 100, 50, 400, 400, -4, 4, -4, 4)

	sx, sy := cam.Project(r3.Vec{})
	if !near(sx, 300) || !near(sy, 250) {
		t.Errorf("expected panel center (300, 250), got (%f, %f)", sx, sy)
	}
	if !near(cam.Scale(), 50) {
		t.Errorf("scale = %f, want 50", cam.Scale())
	}
}

func TestSidePlaneUsesHeight(t *testing.T) {
	cam := New(PlaneSide, 0, 0, 800, 400, -4, 4, 0, 4)

	_, groundY := cam.Project(r3.Vec{X: 0, Y: 3, Z: 0})
	_, airY := cam.Project(r3.Vec{X: 0, Y: -3, Z: 2})
	if airY >= groundY {
		t.Errorf("higher z should be higher on screen: ground %f, air %f", groundY, airY)
	}
	// y is ignored in the side view
	_, y1 := cam.Project(r3.Vec{Y: 1, Z: 1})
	_, y2 := cam.Project(r3.Vec{Y: -1, Z: 1})
	if y1 != y2 {
		t.Errorf("side view depends on y: %f vs %f", y1, y2)
	}
}

func TestUnprojectRoundtrip(t *testing.T) {
	cam := New(PlaneTop, 20, 30, 640, 360, -4, 4, -4, 4)
	cam.SetZoom(1.5)

	for _, p := range []r3.Vec{{X: 0, Y: 0}, {X: 1.5, Y: -2}, {X: -3.9, Y: 3.9}} {
		sx, sy := cam.Project(p)
		u, v := cam.Unproject(sx, sy)
		if math.Abs(u-p.X) > 1e-3 || math.Abs(v-p.Y) > 1e-3 {
			t.Errorf("roundtrip %v -> (%f, %f) -> (%f, %f)", p, sx, sy, u, v)
		}
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(PlaneTop, 0, 0, 100, 100, -1, 1, -1, 1)

	cam.ZoomBy(100)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("zoom = %f, want max %f", cam.Zoom, cam.MaxZoom)
	}
	cam.SetZoom(0.01)
	if cam.Zoom != cam.MinZoom {
		t.Errorf("zoom = %f, want min %f", cam.Zoom, cam.MinZoom)
	}
	cam.Reset()
	if cam.Zoom != 1 {
		t.Errorf("zoom = %f after reset", cam.Zoom)
	}
}

func TestContainsAndLength(t *testing.T) {
	cam := New(PlaneTop, 10, 10, 200, 100, -2, 2, -1, 1)
	if !cam.Contains(10, 10) || cam.Contains(5, 50) || cam.Contains(100, 111) {
		t.Error("Contains disagrees with the panel rectangle")
	}
	// Scale is limited by the tighter axis: min(200/4, 100/2) = 50
	if !near(cam.Length(0.5), 25) {
		t.Errorf("Length(0.5) = %f, want 25", cam.Length(0.5))
	}
}
