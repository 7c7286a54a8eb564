// Package systems contains ECS systems and sensory plumbing for the simulation.
package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/intercept/components"
)

// Arena is the box entities move in. x and y are horizontal, z is up and
// the ground is z = 0. The box spans [-HalfWidth, HalfWidth] in x and
// [-HalfDepth, HalfDepth] in y.
type Arena struct {
	HalfWidth, HalfDepth, Ceiling float64
	Gravity                       float64
	Restitution                   float64 // vertical speed kept on a ground bounce
	Friction                      float64 // horizontal speed kept on a ground bounce, and per second while rolling
	WallRestitution               float64
}

// settleTicks is the rebound speed, in ticks of gravity, below which a
// ball stops bouncing and rolls.
const settleTicks = 2

// Step advances one Euler step of length dt, updating velocity before
// position.
// Ballistic bodies fall under gravity and bounce off the ground, ceiling and
// walls. Non-ballistic bodies are held on the ground plane and stop at walls.
func (a Arena) Step(p, v r3.Vec, radius float64, ballistic bool, dt float64) (r3.Vec, r3.Vec) {
	if !ballistic {
		v.Z = 0
		p = r3.Add(p, r3.Scale(dt, v))
		p.Z = 0
		if x := clamp(p.X, -a.HalfWidth+radius, a.HalfWidth-radius); x != p.X {
			p.X, v.X = x, 0
		}
		if y := clamp(p.Y, -a.HalfDepth+radius, a.HalfDepth-radius); y != p.Y {
			p.Y, v.Y = y, 0
		}
		return p, v
	}

	v.Z -= a.Gravity * dt
	p = r3.Add(p, r3.Scale(dt, v))

	// Ground
	if p.Z <= radius {
		p.Z = radius
		switch {
		case -v.Z*a.Restitution >= settleTicks*a.Gravity*dt:
			v.Z = -v.Z * a.Restitution
			v.X *= a.Friction
			v.Y *= a.Friction
		case v.Z <= 0:
			v.Z = 0
			roll := math.Pow(a.Friction, dt)
			v.X *= roll
			v.Y *= roll
		}
	}

	// Ceiling
	if top := a.Ceiling - radius; p.Z > top {
		p.Z = top
		v.Z = -math.Abs(v.Z) * a.WallRestitution
	}

	// Walls
	p.X, v.X = reflect(p.X, v.X, a.HalfWidth-radius, a.WallRestitution)
	p.Y, v.Y = reflect(p.Y, v.Y, a.HalfDepth-radius, a.WallRestitution)
	return p, v
}

// reflect bounces a coordinate off the walls at ±limit.
func reflect(x, vx, limit, restitution float64) (float64, float64) {
	switch {
	case x > limit:
		return limit, -math.Abs(vx) * restitution
	case x < -limit:
		return -limit, math.Abs(vx) * restitution
	}
	return x, vx
}

// OnGround reports whether a body of the given radius rests on the ground.
func OnGround(p, v r3.Vec, radius float64) bool {
	return p.Z <= radius && v.Z == 0
}

// PhysicsSystem integrates every entity with a position, velocity, body and role.
type PhysicsSystem struct {
	filter ecs.Filter4[components.Position, components.Velocity, components.Body, components.Role]
	arena  Arena
	dt     float64
}

// NewPhysicsSystem creates a new physics system.
func NewPhysicsSystem(w *ecs.World, arena Arena, dt float64) *PhysicsSystem {
	return &PhysicsSystem{
		filter: *ecs.NewFilter4[components.Position, components.Velocity, components.Body, components.Role](w),
		arena:  arena,
		dt:     dt,
	}
}

// Arena returns the arena the system integrates in.
func (s *PhysicsSystem) Arena() Arena { return s.arena }

// Update runs the physics system.
func (s *PhysicsSystem) Update() {
	query := s.filter.Query()
	for query.Next() {
		pos, vel, body, role := query.Get()
		p, v := s.arena.Step(pos.Vec(), vel.Vec(), body.Radius, role.Ballistic(), s.dt)
		pos.Set(p)
		vel.Set(v)
	}
}

// LaunchVelocity returns the velocity of a ball launched at speed with the
// given elevation above horizontal and azimuth from +x, both in degrees.
func LaunchVelocity(speed, elevationDeg, azimuthDeg float64) r3.Vec {
	el, az := radians(elevationDeg), radians(azimuthDeg)
	h := speed * math.Cos(el)
	return r3.Vec{X: h * math.Cos(az), Y: h * math.Sin(az), Z: speed * math.Sin(el)}
}

// Intercepted reports whether the ball is within radius of the hand.
func Intercepted(ball, hand r3.Vec, radius float64) bool {
	return r3.Norm(r3.Sub(ball, hand)) <= radius
}
