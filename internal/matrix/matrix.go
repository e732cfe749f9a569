package matrix

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrDimensionMismatch indicates an operation on matrices whose shapes are
// incompatible. It signals a configuration bug, not bad input data.
var ErrDimensionMismatch = errors.New("matrix: dimension mismatch")

// Matrix is a dense row-major float64 matrix.
type Matrix struct {
	rows int
	cols int
	data []float64
}

// New returns a zeroed rows x cols matrix.
func New(rows, cols int) *Matrix {
	if rows <= 0 || cols <= 0 {
		panic(fmt.Sprintf("matrix: invalid shape %dx%d", rows, cols))
	}
	return &Matrix{rows: rows, cols: cols, data: make([]float64, rows*cols)}
}

// FromRows builds a matrix from row slices. All rows must share one length.
func FromRows(rows [][]float64) (*Matrix, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDimensionMismatch)
	}
	m := New(len(rows), len(rows[0]))
	for i, row := range rows {
		if len(row) != m.cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrDimensionMismatch, i, len(row), m.cols)
		}
		copy(m.data[i*m.cols:(i+1)*m.cols], row)
	}
	return m, nil
}

// Rows returns the row count.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the column count.
func (m *Matrix) Cols() int { return m.cols }

// At returns the element at row i, column j.
func (m *Matrix) At(i, j int) float64 { return m.data[i*m.cols+j] }

// Set assigns the element at row i, column j.
func (m *Matrix) Set(i, j int, v float64) { m.data[i*m.cols+j] = v }

// Row returns a copy of row i.
func (m *Matrix) Row(i int) []float64 {
	out := make([]float64, m.cols)
	copy(out, m.data[i*m.cols:(i+1)*m.cols])
	return out
}

// Mul returns the product a*b, or ErrDimensionMismatch when the inner
// dimensions disagree.
func Mul(a, b *Matrix) (*Matrix, error) {
	if a.cols != b.rows {
		return nil, fmt.Errorf("%w: %dx%d * %dx%d", ErrDimensionMismatch, a.rows, a.cols, b.rows, b.cols)
	}
	out := New(a.rows, b.cols)
	for i := 0; i < a.rows; i++ {
		for k := 0; k < a.cols; k++ {
			aik := a.data[i*a.cols+k]
			if aik == 0 {
				continue
			}
			for j := 0; j < b.cols; j++ {
				out.data[i*out.cols+j] += aik * b.data[k*b.cols+j]
			}
		}
	}
	return out, nil
}

// RowMeans returns the mean of each row, treating columns as observations.
func RowMeans(m *Matrix) []float64 {
	means := make([]float64, m.rows)
	for i := 0; i < m.rows; i++ {
		means[i] = stat.Mean(m.data[i*m.cols:(i+1)*m.cols], nil)
	}
	return means
}

// Covariance returns the sample covariance (factor 1/(N-1)) of a matrix whose
// rows are variables and whose columns are observations.
func Covariance(m *Matrix) (*Matrix, error) {
	if m.cols < 2 {
		return nil, fmt.Errorf("%w: covariance needs at least 2 observations, got %d", ErrDimensionMismatch, m.cols)
	}
	// gonum expects observations in rows, so feed it the transpose.
	obs := mat.NewDense(m.cols, m.rows, nil)
	for j := 0; j < m.cols; j++ {
		for i := 0; i < m.rows; i++ {
			obs.Set(j, i, m.At(i, j))
		}
	}
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, obs, nil)

	out := New(m.rows, m.rows)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.rows; j++ {
			out.Set(i, j, cov.At(i, j))
		}
	}
	return out, nil
}
