// Package components defines ECS components for the simulation.
package components

// Kind distinguishes the two simulated entities.
type Kind uint8

const (
	KindBall Kind = iota
	KindPlayer
)

func (k Kind) String() string {
	switch k {
	case KindBall:
		return "ball"
	case KindPlayer:
		return "player"
	}
	return "unknown"
}

// Role tags an entity with its Kind. Ballistic entities feel gravity and
// bounce off the ground; the player is held on the ground plane.
type Role struct {
	Kind Kind
}

// Ballistic reports whether the entity is in free flight.
func (r Role) Ballistic() bool { return r.Kind == KindBall }
