// Package renderer draws the arena from the side and from above.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/intercept/camera"
	"github.com/pthm-cable/intercept/game"
	"github.com/pthm-cable/intercept/systems"
	"github.com/pthm-cable/intercept/ui"
)

// trailLength is the number of past ball positions drawn.
const trailLength = 90

// Colors
var (
	groundColor    = rl.Color{R: 70, G: 90, B: 70, A: 255}
	wallColor      = rl.Color{R: 90, G: 100, B: 110, A: 255}
	ballColor      = rl.Orange
	playerColor    = rl.SkyBlue
	handColor      = rl.Color{R: 135, G: 206, B: 235, A: 90}
	observedColor  = rl.Color{R: 255, G: 161, B: 0, A: 110}
	predictedColor = rl.Magenta
	goalColor      = rl.Green
	commandColor   = rl.Yellow
)

// Scene draws both arena views.
type Scene struct {
	side, top *camera.Camera
	trail     []r3.Vec
	trailHead int
	lastTrial int
}

// NewScene lays the side view above the top view inside the given rectangle.
func NewScene(arena systems.Arena, x, y, w, h float32) *Scene {
	half := h / 2
	pad := float32(8)
	return &Scene{
		side: camera.New(camera.PlaneSide, x, y, w, half-pad, -arena.HalfWidth, arena.HalfWidth, 0, arena.Ceiling/2),
		top:  camera.New(camera.PlaneTop, x, y+half, w, half-pad, -arena.HalfWidth, arena.HalfWidth, -arena.HalfDepth, arena.HalfDepth),
	}
}

// Cameras returns the side and top cameras.
func (s *Scene) Cameras() (side, top *camera.Camera) { return s.side, s.top }

// record appends the ball position to the trail, clearing it on a new trial.
func (s *Scene) record(v game.View) {
	if v.Trial != s.lastTrial {
		s.trail = s.trail[:0]
		s.trailHead = 0
		s.lastTrial = v.Trial
	}
	if len(s.trail) < trailLength {
		s.trail = append(s.trail, v.Ball)
		return
	}
	s.trail[s.trailHead] = v.Ball
	s.trailHead = (s.trailHead + 1) % trailLength
}

// Draw renders the arena, bodies and enabled overlays in both views.
func (s *Scene) Draw(v game.View, overlays *ui.OverlayRegistry) {
	s.record(v)
	for _, cam := range []*camera.Camera{s.side, s.top} {
		s.drawArena(cam, v.Arena)
		if overlays.IsEnabled(ui.OverlayTrail) {
			for _, p := range s.trail {
				x, y := cam.Project(p)
				rl.DrawCircleV(rl.Vector2{X: x, Y: y}, 2, rl.Fade(ballColor, 0.4))
			}
		}
		if overlays.IsEnabled(ui.OverlayObserved) {
			drawDisc(cam, v.Observed, v.BallRadius, observedColor)
		}
		if overlays.IsEnabled(ui.OverlayPredicted) {
			drawCross(cam, v.Predicted, 6, predictedColor)
		}
		if overlays.IsEnabled(ui.OverlayGoal) {
			drawCross(cam, v.Goal, 5, goalColor)
		}

		drawDisc(cam, v.Hand, v.CatchRadius, handColor)
		drawDisc(cam, v.Player, 0.3, playerColor)
		drawDisc(cam, v.Ball, v.BallRadius, ballColor)

		if overlays.IsEnabled(ui.OverlayCommand) {
			x0, y0 := cam.Project(v.Player)
			x1, y1 := cam.Project(r3.Add(v.Player, r3.Scale(0.25, v.Command)))
			rl.DrawLineEx(rl.Vector2{X: x0, Y: y0}, rl.Vector2{X: x1, Y: y1}, 2, commandColor)
		}
	}
}

// drawArena outlines the visible arena box and the ground.
func (s *Scene) drawArena(cam *camera.Camera, a systems.Arena) {
	var lo, hi r3.Vec
	if cam.Plane == camera.PlaneSide {
		lo = r3.Vec{X: -a.HalfWidth, Z: 0}
		hi = r3.Vec{X: a.HalfWidth, Z: cam.MaxV}
	} else {
		lo = r3.Vec{X: -a.HalfWidth, Y: -a.HalfDepth}
		hi = r3.Vec{X: a.HalfWidth, Y: a.HalfDepth}
	}
	x0, y0 := cam.Project(lo)
	x1, y1 := cam.Project(hi)
	rect := rl.Rectangle{X: min(x0, x1), Y: min(y0, y1), Width: abs(x1 - x0), Height: abs(y1 - y0)}
	if cam.Plane == camera.PlaneTop {
		rl.DrawRectangleRec(rect, rl.Fade(groundColor, 0.35))
	}
	rl.DrawRectangleLinesEx(rect, 1, wallColor)
	if cam.Plane == camera.PlaneSide {
		rl.DrawLineEx(rl.Vector2{X: x0, Y: y0}, rl.Vector2{X: x1, Y: y0}, 3, groundColor)
	}
}

func drawDisc(cam *camera.Camera, p r3.Vec, radius float64, color rl.Color) {
	x, y := cam.Project(p)
	rl.DrawCircleV(rl.Vector2{X: x, Y: y}, max(cam.Length(radius), 2), color)
}

func drawCross(cam *camera.Camera, p r3.Vec, size float32, color rl.Color) {
	x, y := cam.Project(p)
	rl.DrawLineEx(rl.Vector2{X: x - size, Y: y - size}, rl.Vector2{X: x + size, Y: y + size}, 2, color)
	rl.DrawLineEx(rl.Vector2{X: x - size, Y: y + size}, rl.Vector2{X: x + size, Y: y - size}, 2, color)
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
