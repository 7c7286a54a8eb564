package neural

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/blas/blas32"
)

// LayerState holds the beliefs, predictions and errors of one hierarchy.
type LayerState struct {
	R1, R2, R3   []float32
	Pred1, Pred2 []float32
	E1, E2       []float32
}

func newLayerState(n1, n2, n3 int) LayerState {
	return LayerState{
		R1:    make([]float32, n1),
		R2:    make([]float32, n2),
		R3:    make([]float32, n3),
		Pred1: make([]float32, n1),
		Pred2: make([]float32, n2),
		E1:    make([]float32, n1),
		E2:    make([]float32, n2),
	}
}

// Reset zeroes beliefs, predictions and errors.
func (s *LayerState) Reset() {
	for _, v := range [][]float32{s.R1, s.R2, s.R3, s.Pred1, s.Pred2, s.E1, s.E2} {
		clear(v)
	}
}

// WeightSet holds the generative weights of one hierarchy.
// W32 is N2×N3 and W21 is N1×N2, both row-major. The transposes are
// rewritten after every mutation and never lag the weights. M32 and M21
// hold the previous momentum-blended step.
type WeightSet struct {
	W32, W21   blas32.General
	W32T, W21T blas32.General
	M32, M21   blas32.General
}

func newGeneral(rows, cols int) blas32.General {
	return blas32.General{Rows: rows, Cols: cols, Stride: cols, Data: make([]float32, rows*cols)}
}

// NewWeightSet returns Xavier-initialized weights with zero momentum.
func NewWeightSet(rng *rand.Rand, n1, n2, n3 int) WeightSet {
	ws := WeightSet{
		W32:  newGeneral(n2, n3),
		W21:  newGeneral(n1, n2),
		W32T: newGeneral(n3, n2),
		W21T: newGeneral(n2, n1),
		M32:  newGeneral(n2, n3),
		M21:  newGeneral(n1, n2),
	}
	xavier(rng, ws.W32)
	xavier(rng, ws.W21)
	ws.refreshTransposes()
	return ws
}

// xavier fills m with N(0, 2/(fan_in+fan_out)) samples.
func xavier(rng *rand.Rand, m blas32.General) {
	scale := math.Sqrt(2.0 / float64(m.Rows+m.Cols))
	for i := range m.Data {
		m.Data[i] = float32(rng.NormFloat64() * scale)
	}
}

func (ws *WeightSet) refreshTransposes() {
	transposeInto(ws.W32T, ws.W32)
	transposeInto(ws.W21T, ws.W21)
}

func transposeInto(dst, src blas32.General) {
	for i := 0; i < src.Rows; i++ {
		row := src.Data[i*src.Stride : i*src.Stride+src.Cols]
		for j, v := range row {
			dst.Data[j*dst.Stride+i] = v
		}
	}
}

// Clone returns a deep copy.
func (ws *WeightSet) Clone() WeightSet {
	c := WeightSet{
		W32:  newGeneral(ws.W32.Rows, ws.W32.Cols),
		W21:  newGeneral(ws.W21.Rows, ws.W21.Cols),
		W32T: newGeneral(ws.W32T.Rows, ws.W32T.Cols),
		W21T: newGeneral(ws.W21T.Rows, ws.W21T.Cols),
		M32:  newGeneral(ws.M32.Rows, ws.M32.Cols),
		M21:  newGeneral(ws.M21.Rows, ws.M21.Cols),
	}
	c.CopyFrom(ws)
	return c
}

// CopyFrom overwrites ws with src in place. Shapes must match.
func (ws *WeightSet) CopyFrom(src *WeightSet) {
	copy(ws.W32.Data, src.W32.Data)
	copy(ws.W21.Data, src.W21.Data)
	copy(ws.W32T.Data, src.W32T.Data)
	copy(ws.W21T.Data, src.W21T.Data)
	copy(ws.M32.Data, src.M32.Data)
	copy(ws.M21.Data, src.M21.Data)
}

// vec views a slice as a unit-stride BLAS vector.
func vec(data []float32) blas32.Vector {
	return blas32.Vector{N: len(data), Inc: 1, Data: data}
}

// flat views a dense matrix as one vector; valid because Stride == Cols.
func flat(m blas32.General) blas32.Vector {
	return vec(m.Data)
}

// clampFinite maps NaN to 0 and limits x to [-limit, limit].
func clampFinite(x, limit float32) float32 {
	if x != x {
		return 0
	}
	if x > limit {
		return limit
	}
	if x < -limit {
		return -limit
	}
	return x
}

func clampAll(v []float32, limit float32) {
	for i, x := range v {
		v[i] = clampFinite(x, limit)
	}
}
