package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Controls is the part of the simulation the viewer can steer.
type Controls interface {
	TogglePause()
	Paused() bool
	ToggleMotorFreeze()
	TogglePlanningFreeze()
	SetSpeed(n int)
	Speed() int
}

// ControlsPanel renders buttons, a speed slider and overlay toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	maxSpeed int
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32, maxSpeed int) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		maxSpeed: maxSpeed,
	}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x, c.y = x, y
}

// Draw renders the panel, applies any widget changes to ctrl and returns
// the panel's bottom edge.
func (c *ControlsPanel) Draw(ctrl Controls, motorFrozen, planningFrozen bool, overlays *OverlayRegistry) int32 {
	r := c.renderer
	pad := r.Theme.Padding
	line := r.Theme.LineHeight
	n := int32(len(overlays.All()))
	height := 4*pad + 2*30 + 20 + line + n*(line+4) + line
	r.DrawPanel(c.x, c.y, c.width, height)

	x := float32(c.x + pad)
	y := float32(c.y + pad)
	bw := float32(c.width-3*pad) / 2

	pauseText := "Pause"
	if ctrl.Paused() {
		pauseText = "Resume"
	}
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: float32(c.width - 2*pad), Height: 30}, pauseText) {
		ctrl.TogglePause()
	}
	y += 30 + float32(pad)

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: bw, Height: 30}, freezeLabel("motor", motorFrozen)) {
		ctrl.ToggleMotorFreeze()
	}
	if gui.Button(rl.Rectangle{X: x + bw + float32(pad), Y: y, Width: bw, Height: 30}, freezeLabel("planning", planningFrozen)) {
		ctrl.TogglePlanningFreeze()
	}
	y += 30 + float32(pad)

	speed := gui.SliderBar(
		rl.Rectangle{X: x + 50, Y: y, Width: float32(c.width) - 2*float32(pad) - 90, Height: 20},
		"speed", fmt.Sprintf("%dx", ctrl.Speed()),
		float32(ctrl.Speed()), 1, float32(c.maxSpeed),
	)
	if s := int(speed + 0.5); s != ctrl.Speed() {
		ctrl.SetSpeed(s)
	}
	y += 20 + float32(pad)

	iy := r.DrawSectionHeader(int32(x), int32(y), "Overlays")
	for _, d := range overlays.All() {
		on := overlays.IsEnabled(d.ID)
		label := fmt.Sprintf("[%s] %s", d.KeyLabel, d.Name)
		if gui.CheckBox(rl.Rectangle{X: x, Y: float32(iy), Width: float32(line - 4), Height: float32(line - 4)}, label, on) != on {
			overlays.Toggle(d.ID)
		}
		iy += line + 4
	}

	return c.y + height
}

func freezeLabel(name string, frozen bool) string {
	if frozen {
		return "Unfreeze " + name
	}
	return "Freeze " + name
}
