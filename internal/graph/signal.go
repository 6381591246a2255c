package graph

import (
	"sort"

	"hrrnet/internal/hrr"
)

// Signal drives a signal node over time.
type Signal interface {
	Dimension() int
	Value(t float64) hrr.Vector
}

// Constant emits the same vector at every time.
type Constant struct {
	v hrr.Vector
}

func NewConstant(v hrr.Vector) Constant {
	return Constant{v: v.Clone()}
}

func (c Constant) Dimension() int {
	return len(c.v)
}

func (c Constant) Value(float64) hrr.Vector {
	return c.v.Clone()
}

// Piecewise holds Values[0] before Breaks[0], Values[i+1] from Breaks[i] on.
// len(Values) must be len(Breaks)+1 and Breaks ascending.
type Piecewise struct {
	breaks []float64
	values []hrr.Vector
}

func NewPiecewise(breaks []float64, values []hrr.Vector) Piecewise {
	p := Piecewise{breaks: append([]float64(nil), breaks...)}
	for _, v := range values {
		p.values = append(p.values, v.Clone())
	}
	return p
}

func (p Piecewise) Dimension() int {
	if len(p.values) == 0 {
		return 0
	}
	return len(p.values[0])
}

func (p Piecewise) Value(t float64) hrr.Vector {
	if len(p.values) == 0 {
		return nil
	}
	idx := sort.Search(len(p.breaks), func(i int) bool { return p.breaks[i] > t })
	if idx >= len(p.values) {
		idx = len(p.values) - 1
	}
	return p.values[idx].Clone()
}

// Sequence presents each vector for step seconds, then zero.
func Sequence(step float64, vectors []hrr.Vector) Piecewise {
	if len(vectors) == 0 {
		return Piecewise{}
	}
	breaks := make([]float64, len(vectors))
	values := make([]hrr.Vector, 0, len(vectors)+1)
	for i, v := range vectors {
		breaks[i] = step * float64(i+1)
		values = append(values, v)
	}
	values = append(values, hrr.Zero(len(vectors[0])))
	return NewPiecewise(breaks, values)
}
