// Package hrr implements the Holographic Reduced Representation vector algebra:
// binding by circular convolution, bundling by superposition, similarity and
// the approximate inverse used for unbinding.
package hrr

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Vector is a d-dimensional HRR vector. A nil Vector stands for an absent
// operand in Bind and Bundle.
type Vector []float64

// Clone returns an independent copy of v.
func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// Bind computes the circular convolution of a and b:
// result[i] = sum_j a[j]*b[(i-j) mod d]. When either operand is nil the other
// one is returned unchanged.
func Bind(a, b Vector) Vector {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	d := len(a)
	out := make(Vector, d)
	if d == 0 {
		return out
	}
	for i := 0; i < d; i++ {
		sum := 0.0
		for j := 0; j < d; j++ {
			k := ((i-j)%d + d) % d
			if k < len(b) {
				sum += a[j] * b[k]
			}
		}
		out[i] = sum
	}
	return out
}

// Bundle is the elementwise sum of a and b, with the same nil rule as Bind.
func Bundle(a, b Vector) Vector {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	n := min(len(a), len(b))
	out := make(Vector, n)
	for i := 0; i < n; i++ {
		out[i] = a[i] + b[i]
	}
	return out
}

// Dot is the unchecked dot product over the common prefix of a and b.
func Dot(a, b Vector) float64 {
	n := min(len(a), len(b))
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// Similarity is the dot product of a and b. On a length mismatch the value over
// the common prefix is still returned together with an ErrDimensionMismatch
// error; it carries no meaning and callers are expected to validate first.
func Similarity(a, b Vector) (float64, error) {
	sim := Dot(a, b)
	if len(a) != len(b) {
		return sim, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}
	return sim, nil
}

// Length returns the L2 norm of v.
func Length(v Vector) float64 {
	return math.Sqrt(Dot(v, v))
}

// Normalize scales v to unit length. A zero-length vector is returned as is.
func Normalize(v Vector) Vector {
	l := Length(v)
	if l == 0 {
		return v
	}
	return Scale(v, 1/l)
}

// Scale multiplies every component of v by k.
func Scale(v Vector, k float64) Vector {
	if v == nil {
		return nil
	}
	out := make(Vector, len(v))
	for i, x := range v {
		out[i] = x * k
	}
	return out
}

// Sub returns a - b over the common prefix.
func Sub(a, b Vector) Vector {
	n := min(len(a), len(b))
	out := make(Vector, n)
	for i := 0; i < n; i++ {
		out[i] = a[i] - b[i]
	}
	return out
}

// ApproxInverse reverses every component except the first:
// inv[i] = v[(-i) mod d]. Binding with the approximate inverse of b roughly
// undoes a binding with b.
func ApproxInverse(v Vector) Vector {
	d := len(v)
	out := make(Vector, d)
	for i := 0; i < d; i++ {
		out[i] = v[(d-i)%d]
	}
	return out
}

// Mean returns the arithmetic mean of the components of v, or 0 when empty.
func Mean(v Vector) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

// Cosine returns the cosine similarity of a and b; 0 when either has no length.
func Cosine(a, b Vector) float64 {
	la, lb := Length(a), Length(b)
	if la == 0 || lb == 0 {
		return 0
	}
	return Dot(a, b) / (la * lb)
}

// Zero returns the d-dimensional zero vector.
func Zero(d int) Vector {
	return make(Vector, d)
}

// Basis returns the standard basis vector e_i of dimension d. e_0 is the
// identity element of Bind.
func Basis(d, i int) Vector {
	v := make(Vector, d)
	v[i] = 1
	return v
}

// RandomUnit draws a Gaussian vector from rng and normalizes it.
func RandomUnit(rng *rand.Rand, d int) Vector {
	v := make(Vector, d)
	for i := range v {
		v[i] = rng.NormFloat64()
	}
	return Normalize(v)
}
