package networks

import (
	"math"

	"hrrnet/internal/hrr"
)

// halfDimension is the number of non-redundant DFT coefficients of a real
// d-vector.
func halfDimension(d int) int {
	return d/2 + 1
}

// dftReal and dftImag are the first halfDimension(d) rows of the unitary DFT
// matrix.
func dftReal(d int) hrr.Matrix {
	return dftRows(d, halfDimension(d), func(x float64) float64 { return math.Cos(x) / math.Sqrt(float64(d)) })
}

func dftImag(d int) hrr.Matrix {
	return dftRows(d, halfDimension(d), func(x float64) float64 { return math.Sin(x) / math.Sqrt(float64(d)) })
}

// idftReal and idftImag are the full d x d inverse transform parts scaled by
// 1/scale. Only the real part of the inverse is ever computed.
func idftReal(d int, scale float64) hrr.Matrix {
	return dftRows(d, d, func(x float64) float64 { return math.Cos(x) / scale })
}

func idftImag(d int, scale float64) hrr.Matrix {
	return dftRows(d, d, func(x float64) float64 { return -math.Sin(x) / scale })
}

func dftRows(d, rows int, f func(float64) float64) hrr.Matrix {
	m := hrr.Zeros(rows, d)
	for i := 0; i < rows; i++ {
		for j := 0; j < d; j++ {
			m[i][j] = f(-2 * math.Pi * float64(i*j) / float64(d))
		}
	}
	return m
}

// expansions rebuild the full spectrum from the half spectrum using the
// conjugate symmetry of real signals. The real expansion repeats mirrored
// rows, the imaginary one repeats them negated.
func expansions(d int) (re, negRe, im hrr.Matrix) {
	h := halfDimension(d)
	re = hrr.Eye(h, 1)
	negRe = hrr.Eye(h, -1)
	im = hrr.Eye(h, 1)

	midpoint := h - 1 - (d+1)%2
	extra := int(math.Ceil(float64(d)/2)) - 1
	for k := 0; k < extra; k++ {
		src := midpoint - k
		re = append(re, append([]float64(nil), re[src]...))
		negRe = append(negRe, append([]float64(nil), negRe[src]...))
		row := make([]float64, h)
		for j, x := range im[src] {
			row[j] = -x
		}
		im = append(im, row)
	}
	return re, negRe, im
}
