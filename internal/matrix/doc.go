// Package matrix provides the dense linear algebra needed by the acoustic
// analysis pipeline: multiplication, row means, sample covariance, and
// Gauss-Jordan inversion with partial pivoting.
//
// Inversion runs its elimination arithmetic on big.Float rather than float64
// so pivot selection stays stable on the near-singular covariance matrices
// that short or degenerate audio produces. Singular input is reported as
// ErrSingularMatrix, never as silent NaN/Inf output.
package matrix
