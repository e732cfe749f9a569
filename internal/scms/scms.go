package scms

import (
	"errors"
	"fmt"

	"cadence/internal/matrix"
)

// ErrFingerprintImpossible indicates the MFCC covariance was singular, so no
// fingerprint can be fitted; typical for degenerate or too-short audio.
var ErrFingerprintImpossible = errors.New("scms: fingerprint impossible")

// Model is the acoustic fingerprint: mean, covariance, and inverse covariance
// of a track's MFCC frames. Covariance and its inverse are symmetric, so only
// the upper triangle (including the diagonal) is stored, packed row-major.
type Model struct {
	dim  int
	mean []float64
	cov  []float64
	icov []float64
}

// Dim returns the fingerprint dimensionality.
func (m *Model) Dim() int { return m.dim }

// Mean returns the packed mean vector.
func (m *Model) Mean() []float64 { return m.mean }

// Cov returns the packed upper-triangular covariance.
func (m *Model) Cov() []float64 { return m.cov }

// InvCov returns the packed upper-triangular inverse covariance.
func (m *Model) InvCov() []float64 { return m.icov }

// packedIndex maps an upper-triangular (i, j) with i <= j onto the packed
// slice offset.
func packedIndex(dim, i, j int) int {
	return i*dim - i*(i+1)/2 + j
}

func packedLen(dim int) int {
	return dim * (dim + 1) / 2
}

// Fit computes a Model from an MFCC matrix whose rows are coefficients and
// whose columns are frames. A singular covariance yields
// ErrFingerprintImpossible.
func Fit(mfcc *matrix.Matrix) (*Model, error) {
	dim := mfcc.Rows()
	cov, err := matrix.Covariance(mfcc)
	if err != nil {
		return nil, fmt.Errorf("fit fingerprint: %w", err)
	}
	icov, err := matrix.Invert(cov)
	if err != nil {
		if errors.Is(err, matrix.ErrSingularMatrix) {
			return nil, fmt.Errorf("%w: %v", ErrFingerprintImpossible, err)
		}
		return nil, fmt.Errorf("fit fingerprint: %w", err)
	}

	model := &Model{
		dim:  dim,
		mean: matrix.RowMeans(mfcc),
		cov:  make([]float64, packedLen(dim)),
		icov: make([]float64, packedLen(dim)),
	}
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			idx := packedIndex(dim, i, j)
			model.cov[idx] = cov.At(i, j)
			model.icov[idx] = icov.At(i, j)
		}
	}
	return model, nil
}

// Distance computes the symmetrized divergence between two models of equal
// dimension in O(dim^2). Off-diagonal terms are double-counted to account for
// symmetry; the final value is val/4 - dim/2.
func Distance(a, b *Model) (float64, error) {
	if a.dim != b.dim {
		return 0, fmt.Errorf("%w: %d vs %d", matrix.ErrDimensionMismatch, a.dim, b.dim)
	}
	dim := a.dim

	val := 0.0
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			idx := packedIndex(dim, i, j)
			weight := 2.0
			if i == j {
				weight = 1.0
			}
			val += weight * (a.cov[idx]*b.icov[idx] + b.cov[idx]*a.icov[idx])
		}
	}

	// (mean_a - mean_b)^T (icov_a + icov_b) (mean_a - mean_b), expanding the
	// packed triangles back to full symmetric form on the fly.
	for i := 0; i < dim; i++ {
		di := a.mean[i] - b.mean[i]
		for j := 0; j < dim; j++ {
			lo, hi := i, j
			if lo > hi {
				lo, hi = hi, lo
			}
			idx := packedIndex(dim, lo, hi)
			val += di * (a.icov[idx] + b.icov[idx]) * (a.mean[j] - b.mean[j])
		}
	}

	return val/4 - float64(dim)/2, nil
}
