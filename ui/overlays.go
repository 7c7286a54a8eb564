package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Scene overlays.
const (
	OverlayTrail     OverlayID = "trail"
	OverlayObserved  OverlayID = "observed"
	OverlayPredicted OverlayID = "predicted"
	OverlayGoal      OverlayID = "goal"
	OverlayCommand   OverlayID = "command"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID       OverlayID
	Name     string
	Key      int32  // keyboard key to toggle (0 = no key)
	KeyLabel string // key label for display
	Default  bool
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	enabled     map[OverlayID]bool
}

// NewOverlayRegistry creates a registry with default overlays.
func NewOverlayRegistry() *OverlayRegistry {
	r := &OverlayRegistry{enabled: make(map[OverlayID]bool)}
	r.Register(OverlayDescriptor{ID: OverlayTrail, Name: "Ball trail", Key: rl.KeyT, KeyLabel: "T", Default: true})
	r.Register(OverlayDescriptor{ID: OverlayObserved, Name: "Delayed observation", Key: rl.KeyO, KeyLabel: "O", Default: true})
	r.Register(OverlayDescriptor{ID: OverlayPredicted, Name: "Planner estimate", Key: rl.KeyE, KeyLabel: "E", Default: true})
	r.Register(OverlayDescriptor{ID: OverlayGoal, Name: "Motor goal", Key: rl.KeyG, KeyLabel: "G", Default: true})
	r.Register(OverlayDescriptor{ID: OverlayCommand, Name: "Motor command", Key: rl.KeyC, KeyLabel: "C"})
	return r
}

// Register adds an overlay to the registry.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.enabled[desc.ID] = desc.Default
}

// Toggle switches an overlay on/off.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	r.enabled[id] = !r.enabled[id]
	return r.enabled[id]
}

// IsEnabled reports whether an overlay is on.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// All returns every overlay in registration order.
func (r *OverlayRegistry) All() []OverlayDescriptor {
	return r.descriptors
}

// HandleKeys toggles overlays whose key was pressed this frame.
func (r *OverlayRegistry) HandleKeys() {
	for _, d := range r.descriptors {
		if d.Key != 0 && rl.IsKeyPressed(d.Key) {
			r.Toggle(d.ID)
		}
	}
}
