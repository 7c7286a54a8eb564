package systems

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"
)

// SensoryNoise adds independent Gaussian noise to each axis of sensed
// positions and velocities. A zero sigma passes values through unchanged.
type SensoryNoise struct {
	pos, vel distuv.Normal
}

// NewSensoryNoise creates a noise source seeded from seed.
func NewSensoryNoise(posSigma, velSigma float64, seed uint64) *SensoryNoise {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &SensoryNoise{
		pos: distuv.Normal{Mu: 0, Sigma: posSigma, Src: src},
		vel: distuv.Normal{Mu: 0, Sigma: velSigma, Src: src},
	}
}

// Position returns p with position noise added.
func (n *SensoryNoise) Position(p r3.Vec) r3.Vec { return perturb(n.pos, p) }

// Velocity returns v with velocity noise added.
func (n *SensoryNoise) Velocity(v r3.Vec) r3.Vec { return perturb(n.vel, v) }

func perturb(d distuv.Normal, v r3.Vec) r3.Vec {
	if d.Sigma == 0 {
		return v
	}
	return r3.Vec{X: v.X + d.Rand(), Y: v.Y + d.Rand(), Z: v.Z + d.Rand()}
}
