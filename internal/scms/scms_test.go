package scms_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"cadence/internal/analysis"
	"cadence/internal/matrix"
	"cadence/internal/scms"
)

func fitSamples(t *testing.T, samples []float64) *scms.Model {
	t.Helper()
	ex := analysis.NewExtractor(analysis.DefaultConfig())
	mfcc, err := ex.Extract(samples)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	model, err := scms.Fit(mfcc)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	return model
}

func sine(freq float64, seconds int) []float64 {
	rate := analysis.DefaultConfig().SampleRate
	out := make([]float64, seconds*rate)
	for i := range out {
		out[i] = 0.8 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return out
}

func whiteNoise(seed int64, seconds int) []float64 {
	rate := analysis.DefaultConfig().SampleRate
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, seconds*rate)
	for i := range out {
		out[i] = rng.Float64()*2 - 1
	}
	return out
}

// noisySine keeps the covariance well-conditioned; a mathematically pure tone
// can degenerate to a singular MFCC covariance.
func noisySine(freq float64, seed int64, seconds int) []float64 {
	rate := analysis.DefaultConfig().SampleRate
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, seconds*rate)
	for i := range out {
		out[i] = 0.7*math.Sin(2*math.Pi*freq*float64(i)/float64(rate)) + 0.05*(rng.Float64()*2-1)
	}
	return out
}

func TestDistanceReflexiveZero(t *testing.T) {
	model := fitSamples(t, noisySine(440, 7, 30))
	d, err := scms.Distance(model, model)
	if err != nil {
		t.Fatalf("Distance failed: %v", err)
	}
	if math.Abs(d) > 1e-6 {
		t.Fatalf("distance(F, F) = %v, want ~0", d)
	}
}

func TestDistanceSymmetric(t *testing.T) {
	a := fitSamples(t, noisySine(440, 7, 30))
	b := fitSamples(t, whiteNoise(11, 30))
	ab, err := scms.Distance(a, b)
	if err != nil {
		t.Fatalf("Distance failed: %v", err)
	}
	ba, err := scms.Distance(b, a)
	if err != nil {
		t.Fatalf("Distance failed: %v", err)
	}
	if math.Abs(ab-ba) > 1e-9 {
		t.Fatalf("distance not symmetric: %v vs %v", ab, ba)
	}
}

func TestDistanceOrdersIdenticalBeforeNoise(t *testing.T) {
	// Two identical clips, fingerprinted independently.
	a := fitSamples(t, noisySine(440, 7, 30))
	b := fitSamples(t, noisySine(440, 7, 30))
	noise := fitSamples(t, whiteNoise(17, 30))

	near, err := scms.Distance(a, b)
	if err != nil {
		t.Fatalf("Distance failed: %v", err)
	}
	far, err := scms.Distance(a, noise)
	if err != nil {
		t.Fatalf("Distance failed: %v", err)
	}
	if near >= far {
		t.Fatalf("identical clips (%v) should be closer than noise (%v)", near, far)
	}
	if near > 1 {
		t.Fatalf("distance between near-identical clips is %v, want < 1", near)
	}
	if far < 100 {
		t.Fatalf("distance to white noise is %v, want > 100", far)
	}
}

func TestDistanceDimensionMismatch(t *testing.T) {
	a := fitSamples(t, noisySine(440, 7, 30))

	cfg := analysis.DefaultConfig()
	cfg.Coefficients = 12
	ex := analysis.NewExtractor(cfg)
	mfcc, err := ex.Extract(noisySine(440, 7, 30))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	b, err := scms.Fit(mfcc)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if _, err := scms.Distance(a, b); !errors.Is(err, matrix.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestFitSingularCovariance(t *testing.T) {
	// Identical frames have zero covariance everywhere: singular.
	m := matrix.New(4, 8)
	for i := 0; i < 4; i++ {
		for j := 0; j < 8; j++ {
			m.Set(i, j, float64(i))
		}
	}
	if _, err := scms.Fit(m); !errors.Is(err, scms.ErrFingerprintImpossible) {
		t.Fatalf("expected ErrFingerprintImpossible, got %v", err)
	}
}

func TestBlobRoundTrip(t *testing.T) {
	model := fitSamples(t, noisySine(440, 7, 30))
	blob, err := scms.EncodeBlob(model)
	if err != nil {
		t.Fatalf("EncodeBlob failed: %v", err)
	}
	decoded, err := scms.DecodeBlob(blob)
	if err != nil {
		t.Fatalf("DecodeBlob failed: %v", err)
	}
	d, err := scms.Distance(model, decoded)
	if err != nil {
		t.Fatalf("Distance failed: %v", err)
	}
	if math.Abs(d) > 1e-9 {
		t.Fatalf("round-tripped fingerprint drifted: distance %v", d)
	}
}

func TestDecodeBlobRejectsGarbage(t *testing.T) {
	if _, err := scms.DecodeBlob([]byte{1, 2, 3, 4, 5, 6, 7, 8}); err == nil {
		t.Fatal("expected error for garbage blob")
	}
}
