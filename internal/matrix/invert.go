package matrix

import (
	"errors"
	"fmt"
	"math/big"
)

// ErrSingularMatrix indicates Gauss-Jordan elimination found no usable pivot
// in some column, so the matrix has no inverse.
var ErrSingularMatrix = errors.New("matrix: singular matrix")

// invertPrec is the big.Float mantissa precision used during elimination.
const invertPrec = 256

// Invert returns the inverse of a square matrix using Gauss-Jordan
// elimination with partial pivoting. The elimination runs on big.Float so a
// poorly conditioned matrix either inverts cleanly or fails with
// ErrSingularMatrix; it never yields NaN or Inf.
func Invert(m *Matrix) (*Matrix, error) {
	if m.rows != m.cols {
		return nil, fmt.Errorf("%w: cannot invert %dx%d", ErrDimensionMismatch, m.rows, m.cols)
	}
	n := m.rows

	// Augmented [m | I] working copy.
	work := make([][]*big.Float, n)
	for i := 0; i < n; i++ {
		work[i] = make([]*big.Float, 2*n)
		for j := 0; j < n; j++ {
			work[i][j] = big.NewFloat(m.At(i, j)).SetPrec(invertPrec)
		}
		for j := n; j < 2*n; j++ {
			work[i][j] = new(big.Float).SetPrec(invertPrec)
		}
		work[i][n+i].SetInt64(1)
	}

	for col := 0; col < n; col++ {
		pivot := -1
		var pivotAbs *big.Float
		for row := col; row < n; row++ {
			abs := new(big.Float).Abs(work[row][col])
			if abs.Sign() == 0 {
				continue
			}
			if pivot < 0 || abs.Cmp(pivotAbs) > 0 {
				pivot = row
				pivotAbs = abs
			}
		}
		if pivot < 0 {
			return nil, fmt.Errorf("%w: no nonzero pivot in column %d", ErrSingularMatrix, col)
		}
		work[col], work[pivot] = work[pivot], work[col]

		scale := new(big.Float).SetPrec(invertPrec).Quo(big.NewFloat(1), work[col][col])
		for j := col; j < 2*n; j++ {
			work[col][j].Mul(work[col][j], scale)
		}
		for row := 0; row < n; row++ {
			if row == col || work[row][col].Sign() == 0 {
				continue
			}
			factor := new(big.Float).SetPrec(invertPrec).Copy(work[row][col])
			tmp := new(big.Float).SetPrec(invertPrec)
			for j := col; j < 2*n; j++ {
				tmp.Mul(factor, work[col][j])
				work[row][j].Sub(work[row][j], tmp)
			}
		}
	}

	out := New(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v, _ := work[i][n+j].Float64()
			out.Set(i, j, v)
		}
	}
	return out, nil
}
