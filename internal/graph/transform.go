package graph

import "hrrnet/internal/hrr"

// Transform is an immutable rows x cols connection weight. The represented
// contribution of an input x is Transform*x.
type Transform struct {
	m hrr.Matrix
}

// NewTransform copies m.
func NewTransform(m hrr.Matrix) Transform {
	return Transform{m: m.Clone()}
}

// Identity is the d x d passthrough transform scaled by value.
func Identity(d int, value float64) Transform {
	return Transform{m: hrr.Eye(d, value)}
}

// RowTransform builds a 1 x len(row) transform.
func RowTransform(row []float64) Transform {
	return Transform{m: hrr.Matrix{append([]float64(nil), row...)}}
}

func (t Transform) Rows() int {
	return t.m.Rows()
}

func (t Transform) Cols() int {
	return t.m.Cols()
}

// Row returns a copy of row i.
func (t Transform) Row(i int) []float64 {
	return append([]float64(nil), t.m[i]...)
}

// Matrix returns a copy of the weights.
func (t Transform) Matrix() hrr.Matrix {
	return t.m.Clone()
}

func (t Transform) Apply(x hrr.Vector) hrr.Vector {
	return t.m.MulVec(x)
}
