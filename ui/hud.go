package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title       string
	Tick        int32
	SimTime     float64
	Speed       int
	FPS         int32
	Paused      bool
	Task        int
	Profile     string
	Trial       int
	CatchRate   float64
	MotorFrozen bool
}

// HUD renders the main heads-up display.
type HUD struct{}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Task %d (%s) | Trial %d | Catch rate %.0f%%", data.Task, data.Profile, data.Trial, data.CatchRate*100),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Tick: %d | t=%.1fs | Speed: %dx | FPS: %d", data.Tick, data.SimTime, data.Speed, data.FPS),
		10, 55, 16, rl.LightGray,
	)

	status := "Running"
	if data.Paused {
		status = "PAUSED"
	}
	if data.MotorFrozen {
		status += " | motor frozen"
	}
	rl.DrawText(status, 10, 75, 16, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// HierarchyStats holds one hierarchy's telemetry for display.
type HierarchyStats struct {
	Name         string
	FreeEnergy   float64
	ErrorEnergy  float64
	RMSL1, RMSL2 float64
	Pi1, Pi2     float64 // mean precision per layer
}

// HierarchyPanel renders free energy, errors and precision per hierarchy.
type HierarchyPanel struct {
	renderer     *Renderer
	x, y, width  int32
	piMin, piMax float64
}

// NewHierarchyPanel creates a panel whose precision bars span [piMin, piMax].
func NewHierarchyPanel(x, y, width int32, piMin, piMax float64) *HierarchyPanel {
	return &HierarchyPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		piMin:    piMin,
		piMax:    piMax,
	}
}

// SetPosition updates the panel position.
func (p *HierarchyPanel) SetPosition(x, y int32) {
	p.x, p.y = x, y
}

// Draw renders the panel and returns its bottom edge.
func (p *HierarchyPanel) Draw(stats ...HierarchyStats) int32 {
	r := p.renderer
	pad := r.Theme.Padding
	rowsPer := int32(7)
	height := int32(len(stats))*rowsPer*(r.Theme.LineHeight+2) + 2*pad
	r.DrawPanel(p.x, p.y, p.width, height)

	x := p.x + pad
	y := p.y + pad
	w := p.width - 2*pad
	for _, s := range stats {
		y = r.DrawSectionHeader(x, y, s.Name)
		y = r.DrawLabelValue(x, y, "free energy", fmt.Sprintf("%.3f", s.FreeEnergy))
		y = r.DrawLabelValue(x, y, "error energy", fmt.Sprintf("%.4f", s.ErrorEnergy))
		y = r.DrawLabelValue(x, y, "rms L1/L2", fmt.Sprintf("%.4f / %.4f", s.RMSL1, s.RMSL2))
		y = r.DrawLogBar(x, y, "pi L1", s.Pi1, p.piMin, p.piMax, w)
		y = r.DrawLogBar(x, y, "pi L2", s.Pi2, p.piMin, p.piMax, w)
		y += 4
	}
	return p.y + height
}
