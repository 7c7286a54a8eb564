package systems

import (
	"math"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/intercept/components"
)

func testArena() Arena {
	return Arena{
		HalfWidth: 4, HalfDepth: 4, Ceiling: 8,
		Gravity:         10,
		Restitution:     0.5,
		Friction:        0.8,
		WallRestitution: 0.5,
	}
}

func TestArenaStepFreeFlight(t *testing.T) {
	a := testArena()
	p, v := a.Step(r3.Vec{Z: 3}, r3.Vec{X: 1}, 0.1, true, 0.1)

	// v.z is updated before the position (semi-implicit Euler)
	if math.Abs(v.Z+1) > 1e-12 {
		t.Errorf("v.z = %v, want -1", v.Z)
	}
	if math.Abs(p.Z-2.9) > 1e-12 {
		t.Errorf("p.z = %v, want 2.9", p.Z)
	}
	if math.Abs(p.X-0.1) > 1e-12 {
		t.Errorf("p.x = %v, want 0.1", p.X)
	}
}

func TestArenaStepBounces(t *testing.T) {
	tests := []struct {
		name  string
		p, v  r3.Vec
		check func(t *testing.T, p, v r3.Vec)
	}{
		{
			name: "ground",
			p:    r3.Vec{Z: 0.2},
			v:    r3.Vec{X: 2, Z: -5},
			check: func(t *testing.T, p, v r3.Vec) {
				if p.Z != 0.1 {
					t.Errorf("p.z = %v, want radius", p.Z)
				}
				// impact speed 5 + g*dt = 6, restitution 0.5
				if math.Abs(v.Z-3) > 1e-9 {
					t.Errorf("v.z = %v, want 3", v.Z)
				}
				if math.Abs(v.X-1.6) > 1e-9 {
					t.Errorf("v.x = %v, want friction-scaled 1.6", v.X)
				}
			},
		},
		{
			name: "east wall",
			p:    r3.Vec{X: 3.85, Z: 4},
			v:    r3.Vec{X: 3},
			check: func(t *testing.T, p, v r3.Vec) {
				if math.Abs(p.X-3.9) > 1e-12 {
					t.Errorf("p.x = %v, want 3.9", p.X)
				}
				if v.X != -1.5 {
					t.Errorf("v.x = %v, want -1.5", v.X)
				}
			},
		},
		{
			name: "south wall",
			p:    r3.Vec{Y: -3.85, Z: 4},
			v:    r3.Vec{Y: -3},
			check: func(t *testing.T, p, v r3.Vec) {
				if math.Abs(p.Y+3.9) > 1e-12 || v.Y != 1.5 {
					t.Errorf("p.y, v.y = %v, %v, want -3.9, 1.5", p.Y, v.Y)
				}
			},
		},
		{
			name: "ceiling",
			p:    r3.Vec{Z: 7.85},
			v:    r3.Vec{Z: 4},
			check: func(t *testing.T, p, v r3.Vec) {
				if math.Abs(p.Z-7.9) > 1e-12 || v.Z >= 0 {
					t.Errorf("p.z, v.z = %v, %v, want 7.9 and falling", p.Z, v.Z)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, v := testArena().Step(tt.p, tt.v, 0.1, true, 0.1)
			tt.check(t, p, v)
		})
	}
}

func TestArenaBallComesToRest(t *testing.T) {
	a := testArena()
	p, v := r3.Vec{Z: 3}, r3.Vec{X: 0.5}
	for i := 0; i < 2000; i++ {
		p, v = a.Step(p, v, 0.1, true, 0.02)
	}
	if !OnGround(p, v, 0.1) {
		t.Fatalf("ball not resting: p=%v v=%v", p, v)
	}
	if r3.Norm(v) > 0.05 {
		t.Errorf("ball still moving at %v", r3.Norm(v))
	}
}

func TestArenaPlayerStaysOnGround(t *testing.T) {
	a := testArena()
	p, v := a.Step(r3.Vec{X: 3.5, Z: 1}, r3.Vec{X: 10, Y: 1, Z: 5}, 0.3, false, 0.1)
	if p.Z != 0 || v.Z != 0 {
		t.Errorf("player left the ground: p=%v v=%v", p, v)
	}
	if math.Abs(p.X-3.7) > 1e-12 || v.X != 0 {
		t.Errorf("player not stopped at wall: p.x=%v v.x=%v", p.X, v.X)
	}
	if v.Y != 1 {
		t.Errorf("v.y = %v, want 1", v.Y)
	}
}

func TestPhysicsSystemUpdate(t *testing.T) {
	w := ecs.NewWorld()
	mapper := ecs.NewMap4[components.Position, components.Velocity, components.Body, components.Role](w)

	ball := mapper.NewEntity(
		&components.Position{Z: 3},
		&components.Velocity{X: 1},
		&components.Body{Radius: 0.1},
		&components.Role{Kind: components.KindBall},
	)
	player := mapper.NewEntity(
		&components.Position{},
		&components.Velocity{Y: 2, Z: 3},
		&components.Body{Radius: 0.3},
		&components.Role{Kind: components.KindPlayer},
	)

	sys := NewPhysicsSystem(w, testArena(), 0.1)
	sys.Update()

	bp, bv, _, _ := mapper.Get(ball)
	if bv.Z >= 0 || bp.Z >= 3 {
		t.Errorf("ball did not fall: p=%+v v=%+v", *bp, *bv)
	}
	pp, pv, _, _ := mapper.Get(player)
	if pp.Z != 0 || pv.Z != 0 || math.Abs(pp.Y-0.2) > 1e-12 {
		t.Errorf("player step wrong: p=%+v v=%+v", *pp, *pv)
	}
}

func TestLaunchVelocity(t *testing.T) {
	v := LaunchVelocity(10, 30, 90)
	if math.Abs(v.X) > 1e-9 || math.Abs(v.Y-10*math.Cos(math.Pi/6)) > 1e-9 || math.Abs(v.Z-5) > 1e-9 {
		t.Errorf("LaunchVelocity = %v", v)
	}
	if math.Abs(r3.Norm(v)-10) > 1e-9 {
		t.Errorf("speed = %v, want 10", r3.Norm(v))
	}
}

func TestIntercepted(t *testing.T) {
	hand := r3.Vec{X: 1, Y: 1, Z: 1}
	if !Intercepted(r3.Vec{X: 1.3, Y: 1, Z: 1.3}, hand, 0.5) {
		t.Error("ball at distance 0.42 should be intercepted")
	}
	if Intercepted(r3.Vec{X: 1.6, Y: 1, Z: 1}, hand, 0.5) {
		t.Error("ball at distance 0.6 should not be intercepted")
	}
}
