package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"

	"cadence/internal/matrix"
)

var (
	// ErrDecodeFailed indicates the audio source could not produce enough samples.
	ErrDecodeFailed = errors.New("analysis: decode failed")
	// ErrDecodeCanceled indicates decoding was interrupted by cancellation.
	ErrDecodeCanceled = errors.New("analysis: decode canceled")
	// ErrMFCCFailed indicates the decoded frame count is incompatible with the
	// filter bank and DCT dimensions, typically because the track is shorter
	// than one analysis window.
	ErrMFCCFailed = errors.New("analysis: mfcc computation failed")
)

// Config holds the analysis pipeline parameters.
type Config struct {
	SampleRate    int // Hz
	WindowSize    int // STFT window length in samples
	HopSize       int // STFT hop in samples
	WindowSeconds int // analysis cap; samples beyond this are ignored
	MelFilters    int // triangular filters in the mel bank
	Coefficients  int // MFCC coefficients per frame (fingerprint dimension)
}

// DefaultConfig returns the calibrated defaults: 120 seconds of 22050 Hz
// audio, 1024-sample windows, 36 mel filters, 20 coefficients.
func DefaultConfig() Config {
	return Config{
		SampleRate:    22050,
		WindowSize:    1024,
		HopSize:       512,
		WindowSeconds: 120,
		MelFilters:    36,
		Coefficients:  20,
	}
}

// Extractor computes MFCC matrices from PCM samples.
type Extractor struct {
	cfg    Config
	window []float64
	bank   [][]float64
	dct    [][]float64
}

// NewExtractor builds an extractor with precomputed Hann window, mel filter
// bank, and DCT matrix for the given configuration.
func NewExtractor(cfg Config) *Extractor {
	if cfg.SampleRate <= 0 {
		cfg = DefaultConfig()
	}
	if cfg.HopSize <= 0 {
		cfg.HopSize = cfg.WindowSize / 2
	}
	e := &Extractor{cfg: cfg}
	e.window = hannWindow(cfg.WindowSize)
	e.bank = melFilterBank(cfg.MelFilters, cfg.WindowSize, cfg.SampleRate)
	e.dct = dctMatrix(cfg.Coefficients, cfg.MelFilters)
	return e
}

// Config returns the extractor configuration.
func (e *Extractor) Config() Config { return e.cfg }

// Frames converts mono PCM samples into magnitude spectra and keeps the
// highest-energy half, discarding near-silence. The input is capped at the
// configured analysis window.
func (e *Extractor) Frames(samples []float64) ([][]float64, error) {
	maxSamples := e.cfg.SampleRate * e.cfg.WindowSeconds
	if maxSamples > 0 && len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	if len(samples) < e.cfg.WindowSize {
		return nil, fmt.Errorf("%w: %d samples, need at least %d", ErrDecodeFailed, len(samples), e.cfg.WindowSize)
	}

	bins := e.cfg.WindowSize/2 + 1
	var frames [][]float64
	buf := make([]float64, e.cfg.WindowSize)
	for start := 0; start+e.cfg.WindowSize <= len(samples); start += e.cfg.HopSize {
		for i := range buf {
			buf[i] = samples[start+i] * e.window[i]
		}
		spectrum := fft.FFTReal(buf)
		magnitudes := make([]float64, bins)
		for i := 0; i < bins; i++ {
			magnitudes[i] = cmplx.Abs(spectrum[i])
		}
		frames = append(frames, magnitudes)
	}

	// Keep the half with the highest per-frame energy.
	sort.SliceStable(frames, func(i, j int) bool {
		return frameEnergy(frames[i]) > frameEnergy(frames[j])
	})
	keep := len(frames) / 2
	if keep < 1 {
		keep = 1
	}
	return frames[:keep], nil
}

// MFCC projects magnitude spectra through the mel bank and DCT, producing a
// Coefficients x frames matrix.
func (e *Extractor) MFCC(frames [][]float64) (*matrix.Matrix, error) {
	if len(frames) < 2 {
		return nil, fmt.Errorf("%w: %d frames, need at least 2", ErrMFCCFailed, len(frames))
	}
	bins := e.cfg.WindowSize/2 + 1
	out := matrix.New(e.cfg.Coefficients, len(frames))
	mel := make([]float64, e.cfg.MelFilters)
	for t, frame := range frames {
		if len(frame) != bins {
			return nil, fmt.Errorf("%w: frame %d has %d bins, want %d", ErrMFCCFailed, t, len(frame), bins)
		}
		for f, filter := range e.bank {
			mel[f] = logCompress(floats.Dot(filter, frame))
		}
		for k := 0; k < e.cfg.Coefficients; k++ {
			out.Set(k, t, floats.Dot(e.dct[k], mel))
		}
	}
	return out, nil
}

// Extract runs the full pipeline from PCM samples to an MFCC matrix.
func (e *Extractor) Extract(samples []float64) (*matrix.Matrix, error) {
	frames, err := e.Frames(samples)
	if err != nil {
		return nil, err
	}
	return e.MFCC(frames)
}

func frameEnergy(frame []float64) float64 {
	total := 0.0
	for _, v := range frame {
		total += v * v
	}
	return total
}

// logCompress maps values below 1.0 to 0 and everything else to 10*log10(x).
func logCompress(v float64) float64 {
	if v < 1.0 {
		return 0
	}
	return 10 * math.Log10(v)
}

func hannWindow(size int) []float64 {
	w := make([]float64, size)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
	}
	return w
}

// melFilterBank builds triangular filters spaced evenly on the mel scale,
// each row spanning the FFT magnitude bins.
func melFilterBank(filters, windowSize, sampleRate int) [][]float64 {
	bins := windowSize/2 + 1
	lowMel := hzToMel(0)
	highMel := hzToMel(float64(sampleRate) / 2)

	centers := make([]float64, filters+2)
	for i := range centers {
		m := lowMel + (highMel-lowMel)*float64(i)/float64(filters+1)
		centers[i] = melToHz(m) * float64(windowSize) / float64(sampleRate)
	}

	bank := make([][]float64, filters)
	for f := 0; f < filters; f++ {
		row := make([]float64, bins)
		left, center, right := centers[f], centers[f+1], centers[f+2]
		for b := 0; b < bins; b++ {
			x := float64(b)
			switch {
			case x > left && x <= center:
				row[b] = (x - left) / (center - left)
			case x > center && x < right:
				row[b] = (right - x) / (right - center)
			}
		}
		bank[f] = row
	}
	return bank
}

func hzToMel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

func melToHz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}

// dctMatrix builds the normalized DCT-II basis projecting melFilters log-mel
// values onto coefficients cepstral coefficients.
func dctMatrix(coefficients, melFilters int) [][]float64 {
	m := make([][]float64, coefficients)
	for k := 0; k < coefficients; k++ {
		row := make([]float64, melFilters)
		scale := math.Sqrt(2.0 / float64(melFilters))
		if k == 0 {
			scale = math.Sqrt(1.0 / float64(melFilters))
		}
		for n := 0; n < melFilters; n++ {
			row[n] = scale * math.Cos(math.Pi*float64(k)*(float64(n)+0.5)/float64(melFilters))
		}
		m[k] = row
	}
	return m
}
