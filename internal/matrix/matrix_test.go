package matrix_test

import (
	"errors"
	"math"
	"testing"

	"cadence/internal/matrix"
)

func TestMulShapes(t *testing.T) {
	a, err := matrix.FromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	if err != nil {
		t.Fatalf("FromRows failed: %v", err)
	}
	b, err := matrix.FromRows([][]float64{{7, 8}, {9, 10}, {11, 12}})
	if err != nil {
		t.Fatalf("FromRows failed: %v", err)
	}

	got, err := matrix.Mul(a, b)
	if err != nil {
		t.Fatalf("Mul failed: %v", err)
	}
	want := [][]float64{{58, 64}, {139, 154}}
	for i := range want {
		for j := range want[i] {
			if got.At(i, j) != want[i][j] {
				t.Fatalf("Mul[%d][%d] = %v, want %v", i, j, got.At(i, j), want[i][j])
			}
		}
	}

	if _, err := matrix.Mul(a, a); !errors.Is(err, matrix.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestRowMeans(t *testing.T) {
	m, err := matrix.FromRows([][]float64{{1, 2, 3}, {4, 4, 4}})
	if err != nil {
		t.Fatalf("FromRows failed: %v", err)
	}
	means := matrix.RowMeans(m)
	if means[0] != 2 || means[1] != 4 {
		t.Fatalf("unexpected means: %v", means)
	}
}

func TestCovarianceSampleFactor(t *testing.T) {
	// Two variables over three observations; covariance uses 1/(N-1).
	m, err := matrix.FromRows([][]float64{{1, 2, 3}, {2, 4, 6}})
	if err != nil {
		t.Fatalf("FromRows failed: %v", err)
	}
	cov, err := matrix.Covariance(m)
	if err != nil {
		t.Fatalf("Covariance failed: %v", err)
	}
	if math.Abs(cov.At(0, 0)-1) > 1e-12 {
		t.Fatalf("var(x) = %v, want 1", cov.At(0, 0))
	}
	if math.Abs(cov.At(0, 1)-2) > 1e-12 {
		t.Fatalf("cov(x,y) = %v, want 2", cov.At(0, 1))
	}
	if math.Abs(cov.At(1, 1)-4) > 1e-12 {
		t.Fatalf("var(y) = %v, want 4", cov.At(1, 1))
	}
	if cov.At(0, 1) != cov.At(1, 0) {
		t.Fatal("covariance must be symmetric")
	}
}

func TestInvertRoundTrip(t *testing.T) {
	m, err := matrix.FromRows([][]float64{
		{4, 7, 2},
		{3, 6, 1},
		{2, 5, 3},
	})
	if err != nil {
		t.Fatalf("FromRows failed: %v", err)
	}
	inv, err := matrix.Invert(m)
	if err != nil {
		t.Fatalf("Invert failed: %v", err)
	}
	prod, err := matrix.Mul(m, inv)
	if err != nil {
		t.Fatalf("Mul failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			if math.Abs(prod.At(i, j)-want) > 1e-9 {
				t.Fatalf("m*inv[%d][%d] = %v, want %v", i, j, prod.At(i, j), want)
			}
		}
	}
}

func TestInvertSingular(t *testing.T) {
	m, err := matrix.FromRows([][]float64{
		{1, 2},
		{2, 4},
	})
	if err != nil {
		t.Fatalf("FromRows failed: %v", err)
	}
	if _, err := matrix.Invert(m); !errors.Is(err, matrix.ErrSingularMatrix) {
		t.Fatalf("expected ErrSingularMatrix, got %v", err)
	}
}

func TestInvertNonSquare(t *testing.T) {
	m, err := matrix.FromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	if err != nil {
		t.Fatalf("FromRows failed: %v", err)
	}
	if _, err := matrix.Invert(m); !errors.Is(err, matrix.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}
