package hrr

// Matrix is a dense row-major real matrix.
type Matrix [][]float64

// Eye returns a d x d matrix with value on the diagonal. With value 1 it is the
// passthrough weight of a relay connection.
func Eye(d int, value float64) Matrix {
	m := Zeros(d, d)
	for i := 0; i < d; i++ {
		m[i][i] = value
	}
	return m
}

// Zeros returns a rows x cols zero matrix.
func Zeros(rows, cols int) Matrix {
	m := make(Matrix, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

func (m Matrix) Rows() int {
	return len(m)
}

func (m Matrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Clone deep-copies m.
func (m Matrix) Clone() Matrix {
	out := make(Matrix, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// Scale returns k*m.
func (m Matrix) Scale(k float64) Matrix {
	out := m.Clone()
	for _, row := range out {
		for j := range row {
			row[j] *= k
		}
	}
	return out
}

// MulVec returns m*v. Columns beyond len(v) are ignored, so a shape mismatch
// yields a meaningless result instead of a panic.
func (m Matrix) MulVec(v Vector) Vector {
	out := make(Vector, len(m))
	for i, row := range m {
		n := min(len(row), len(v))
		sum := 0.0
		for j := 0; j < n; j++ {
			sum += row[j] * v[j]
		}
		out[i] = sum
	}
	return out
}

// InverseMatrix is the permutation matrix P with P*v == ApproxInverse(v).
func InverseMatrix(d int) Matrix {
	m := Eye(d, 1)
	for i := 0; i < d/2; i++ {
		m[i+1], m[d-i-1] = m[d-i-1], m[i+1]
	}
	return m
}
