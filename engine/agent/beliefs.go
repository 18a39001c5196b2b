package agent

import (
	"math"
	"math/rand/v2"

	engine "github.com/jason-s-yu/tomgame/engine"
)

// ---------------------------------------------------------------------------
// BeliefVector
// ---------------------------------------------------------------------------

// BeliefVector holds one non-negative weight per action.
// It is owned by exactly one agent and only mutated by that agent's update.
type BeliefVector []float64

// NewBeliefVector returns n weights drawn uniformly from [0, 1) and scaled
// to unit mass.
func NewBeliefVector(rng *rand.Rand, n int) BeliefVector {
	b := make(BeliefVector, n)
	for i := range b {
		b[i] = rng.Float64()
	}
	b.normalize()
	return b
}

// UniformBeliefVector returns n weights of 1/n.
func UniformBeliefVector(n int) BeliefVector {
	b := make(BeliefVector, n)
	b.fillUniform()
	return b
}

// Clone returns an independent copy.
func (b BeliefVector) Clone() BeliefVector {
	out := make(BeliefVector, len(b))
	copy(out, b)
	return out
}

// Sum returns the total mass.
func (b BeliefVector) Sum() float64 {
	var s float64
	for _, v := range b {
		s += v
	}
	return s
}

// Argmax returns the index of the greatest weight. The scan keeps the first
// index on ties because it only moves on a strictly greater value.
func (b BeliefVector) Argmax() int {
	best := 0
	for i := 1; i < len(b); i++ {
		if b[i] > b[best] {
			best = i
		}
	}
	return best
}

// Reinforce applies the decay+reinforce update: under DecayNormalize the
// vector is rescaled by (1-speed)/sum, then speed is added at index.
// Under DecayInert the rescale is skipped.
// A vector whose mass is not a positive finite number is reset to uniform first.
func (b BeliefVector) Reinforce(index int, speed float64, mode engine.DecayMode) {
	s := b.Sum()
	if !(s > 0) || math.IsInf(s, 0) {
		b.fillUniform()
		s = 1
	}
	if mode == engine.DecayNormalize {
		scale := (1 - speed) / s
		for i := range b {
			b[i] *= scale
		}
	}
	b[index] += speed
}

// normalize scales b to unit mass, falling back to uniform when the mass is
// zero.
func (b BeliefVector) normalize() {
	s := b.Sum()
	if !(s > 0) || math.IsInf(s, 0) {
		b.fillUniform()
		return
	}
	for i := range b {
		b[i] /= s
	}
}

func (b BeliefVector) fillUniform() {
	if len(b) == 0 {
		return
	}
	u := 1 / float64(len(b))
	for i := range b {
		b[i] = u
	}
}

func (b BeliefVector) validate(what string, n int) error {
	if len(b) != n {
		return engine.BeliefLengthError(what, len(b), n)
	}
	for i, v := range b {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return engine.BeliefValueError(what, i, v)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// BeliefMatrix
// ---------------------------------------------------------------------------

// BeliefMatrix holds a weight per (signal, action) pair: row = signal, column = action.
type BeliefMatrix []BeliefVector

// NewBeliefMatrix returns an n×n matrix of random weights, each row at unit mass.
func NewBeliefMatrix(rng *rand.Rand, n int) BeliefMatrix {
	m := make(BeliefMatrix, n)
	for i := range m {
		m[i] = NewBeliefVector(rng, n)
	}
	return m
}

// Clone returns an independent deep copy.
func (m BeliefMatrix) Clone() BeliefMatrix {
	out := make(BeliefMatrix, len(m))
	for i, row := range m {
		out[i] = row.Clone()
	}
	return out
}

// RowSums returns the total mass of every row.
func (m BeliefMatrix) RowSums() []float64 {
	sums := make([]float64, len(m))
	for i, row := range m {
		sums[i] = row.Sum()
	}
	return sums
}

// ArgmaxRow returns the row with the greatest total mass, first row on ties.
func (m BeliefMatrix) ArgmaxRow() int {
	return BeliefVector(m.RowSums()).Argmax()
}

// Pull moves cell (row, col) toward 1 by speed and decays every other cell
// of the matrix multiplicatively by (1 - speed). No normalization is applied.
func (m BeliefMatrix) Pull(row, col int, speed float64) {
	for r := range m {
		for c := range m[r] {
			if r == row && c == col {
				m[r][c] += speed * (1 - m[r][c])
			} else {
				m[r][c] *= 1 - speed
			}
		}
	}
}

func (m BeliefMatrix) validate(what string, n int) error {
	if len(m) != n {
		return engine.BeliefLengthError(what, len(m), n)
	}
	for _, row := range m {
		if err := row.validate(what+" row", n); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// OrderBelief
// ---------------------------------------------------------------------------

// OrderBelief weighs whether an order-0 model (BranchZero) or an order-1 model
// (BranchFirst) better predicts observed behavior.
type OrderBelief [2]float64

// NewOrderBelief returns two random weights summing to 1.
func NewOrderBelief(rng *rand.Rand) OrderBelief {
	o := OrderBelief{rng.Float64(), rng.Float64()}
	BeliefVector(o[:]).normalize()
	return o
}

// Preferred returns BranchZero iff its weight is strictly greater.
func (o OrderBelief) Preferred() int {
	if o[BranchZero] > o[BranchFirst] {
		return BranchZero
	}
	return BranchFirst
}

// Reinforce applies the decay+reinforce update crediting branch.
func (o *OrderBelief) Reinforce(branch int, speed float64, mode engine.DecayMode) {
	BeliefVector(o[:]).Reinforce(branch, speed, mode)
}

func (o OrderBelief) validate() error {
	return BeliefVector(o[:]).validate("order belief", 2)
}
