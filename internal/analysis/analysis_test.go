package analysis_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"cadence/internal/analysis"
)

func sineWave(freq float64, seconds int, rate int) []float64 {
	samples := make([]float64, seconds*rate)
	for i := range samples {
		samples[i] = 0.8 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return samples
}

func TestFramesKeepsHighEnergyHalf(t *testing.T) {
	cfg := analysis.DefaultConfig()
	ex := analysis.NewExtractor(cfg)

	// First half loud sine, second half silence.
	loud := sineWave(440, 2, cfg.SampleRate)
	quiet := make([]float64, 2*cfg.SampleRate)
	samples := append(loud, quiet...)

	all := (len(samples)-cfg.WindowSize)/cfg.HopSize + 1
	frames, err := ex.Frames(samples)
	if err != nil {
		t.Fatalf("Frames failed: %v", err)
	}
	if len(frames) != all/2 {
		t.Fatalf("kept %d frames, want %d", len(frames), all/2)
	}
	// Every kept frame should be from the loud half: nonzero energy.
	for i, frame := range frames {
		total := 0.0
		for _, v := range frame {
			total += v
		}
		if total < 1 {
			t.Fatalf("frame %d is near-silent, energy selection failed", i)
		}
	}
}

func TestFramesTooShort(t *testing.T) {
	ex := analysis.NewExtractor(analysis.DefaultConfig())
	if _, err := ex.Frames(make([]float64, 100)); !errors.Is(err, analysis.ErrDecodeFailed) {
		t.Fatalf("expected ErrDecodeFailed, got %v", err)
	}
}

func TestMFCCShape(t *testing.T) {
	cfg := analysis.DefaultConfig()
	ex := analysis.NewExtractor(cfg)
	mfcc, err := ex.Extract(sineWave(440, 5, cfg.SampleRate))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if mfcc.Rows() != cfg.Coefficients {
		t.Fatalf("mfcc has %d rows, want %d", mfcc.Rows(), cfg.Coefficients)
	}
	if mfcc.Cols() < 2 {
		t.Fatalf("mfcc has %d frames, want at least 2", mfcc.Cols())
	}
}

func TestMFCCRejectsTooFewFrames(t *testing.T) {
	ex := analysis.NewExtractor(analysis.DefaultConfig())
	if _, err := ex.MFCC([][]float64{make([]float64, 513)}); !errors.Is(err, analysis.ErrMFCCFailed) {
		t.Fatalf("expected ErrMFCCFailed, got %v", err)
	}
}

func TestMFCCDistinguishesToneFromNoise(t *testing.T) {
	cfg := analysis.DefaultConfig()
	ex := analysis.NewExtractor(cfg)

	tone, err := ex.Extract(sineWave(440, 5, cfg.SampleRate))
	if err != nil {
		t.Fatalf("Extract tone failed: %v", err)
	}
	rng := rand.New(rand.NewSource(1))
	noise := make([]float64, 5*cfg.SampleRate)
	for i := range noise {
		noise[i] = rng.Float64()*2 - 1
	}
	noisy, err := ex.Extract(noise)
	if err != nil {
		t.Fatalf("Extract noise failed: %v", err)
	}

	// A pure tone concentrates energy in few mel bands; noise spreads it.
	// The first cepstral coefficient alone should already separate them.
	toneMean := rowMean(tone.Row(0))
	noiseMean := rowMean(noisy.Row(0))
	if math.Abs(toneMean-noiseMean) < 1 {
		t.Fatalf("tone (%v) and noise (%v) MFCCs are indistinguishable", toneMean, noiseMean)
	}
}

func rowMean(row []float64) float64 {
	total := 0.0
	for _, v := range row {
		total += v
	}
	return total / float64(len(row))
}
