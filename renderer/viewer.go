package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/intercept/game"
	"github.com/pthm-cable/intercept/ui"
)

const panelWidth = 300

const controlsLegend = "[Space] pause  [F] freeze motor  [P] freeze planning  [,/.] speed  [wheel] zoom  [R] reset zoom"

// Viewer owns the window layout: scene on the left, panels on the right.
type Viewer struct {
	width, height int32
	dt            float64

	scene    *Scene
	hud      *ui.HUD
	stats    *ui.HierarchyPanel
	controls *ui.ControlsPanel
	overlays *ui.OverlayRegistry
}

// NewViewer lays out a viewer for g in a width x height window.
func NewViewer(g *game.Game, width, height int32) *Viewer {
	cfg := g.Config()
	v := g.View()
	sceneW := float32(width - panelWidth - 30)
	p := cfg.Precision
	piMin := min(p.MotorL1.Min, p.MotorL2.Min, p.PlanningL1.Min, p.PlanningL2.Min)
	piMax := max(p.MotorL1.Max, p.MotorL2.Max, p.PlanningL1.Max, p.PlanningL2.Max)
	return &Viewer{
		width:    width,
		height:   height,
		dt:       cfg.Physics.DT,
		scene:    NewScene(v.Arena, 10, 100, sceneW, float32(height-140)),
		hud:      ui.NewHUD(),
		stats:    ui.NewHierarchyPanel(width-panelWidth-10, 10, panelWidth, float64(piMin), float64(piMax)),
		controls: ui.NewControlsPanel(width-panelWidth-10, 0, panelWidth, game.MaxSpeed),
		overlays: ui.NewOverlayRegistry(),
	}
}

// HandleInput applies keyboard and mouse input to ctrl and the cameras.
func (vw *Viewer) HandleInput(ctrl ui.Controls) {
	if rl.IsKeyPressed(rl.KeySpace) {
		ctrl.TogglePause()
	}
	if rl.IsKeyPressed(rl.KeyF) {
		ctrl.ToggleMotorFreeze()
	}
	if rl.IsKeyPressed(rl.KeyP) {
		ctrl.TogglePlanningFreeze()
	}
	if rl.IsKeyPressed(rl.KeyComma) {
		ctrl.SetSpeed(ctrl.Speed() - 1)
	}
	if rl.IsKeyPressed(rl.KeyPeriod) {
		ctrl.SetSpeed(ctrl.Speed() + 1)
	}
	vw.overlays.HandleKeys()

	side, top := vw.scene.Cameras()
	mouse := rl.GetMousePosition()
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		factor := float32(1.1)
		if wheel < 0 {
			factor = 1 / factor
		}
		if side.Contains(mouse.X, mouse.Y) {
			side.ZoomBy(factor)
		}
		if top.Contains(mouse.X, mouse.Y) {
			top.ZoomBy(factor)
		}
	}
	if rl.IsKeyPressed(rl.KeyR) {
		side.Reset()
		top.Reset()
	}
}

// Draw renders one frame.
func (vw *Viewer) Draw(g *game.Game) {
	v := g.View()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 15, G: 18, B: 22, A: 255})

	vw.scene.Draw(v, vw.overlays)

	vw.hud.Draw(ui.HUDData{
		Title:       "Interception",
		Tick:        v.Tick,
		SimTime:     float64(v.Tick) * vw.dt,
		Speed:       v.Speed,
		FPS:         rl.GetFPS(),
		Paused:      v.Paused,
		Task:        v.Task,
		Profile:     v.Profile,
		Trial:       v.Trial,
		CatchRate:   v.CatchRate,
		MotorFrozen: v.MotorFrozen,
	})

	s := v.Sample
	bottom := vw.stats.Draw(
		ui.HierarchyStats{
			Name:        "Planning",
			FreeEnergy:  s.PlanningFE,
			ErrorEnergy: s.PlanningPE,
			RMSL1:       s.PlanningRMSL1,
			RMSL2:       s.PlanningRMSL2,
			Pi1:         s.PlanningPi1,
			Pi2:         s.PlanningPi2,
		},
		ui.HierarchyStats{
			Name:        "Motor",
			FreeEnergy:  s.MotorFE,
			ErrorEnergy: s.MotorPE,
			RMSL1:       s.MotorRMSL1,
			RMSL2:       s.MotorRMSL2,
			Pi1:         s.MotorPi1,
			Pi2:         s.MotorPi2,
		},
	)
	vw.controls.SetPosition(vw.width-panelWidth-10, bottom+10)
	vw.controls.Draw(g, v.MotorFrozen, v.PlanningFrozen, vw.overlays)

	vw.hud.DrawControls(vw.height, controlsLegend)

	rl.EndDrawing()
}
