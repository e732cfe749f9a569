package analysis

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os/exec"
	"strconv"
)

// Decoder produces mono PCM samples from an audio file.
type Decoder interface {
	Decode(ctx context.Context, filename string) ([]float64, error)
}

// FFmpegDecoder decodes audio by shelling out to ffmpeg, resampling to the
// analysis rate and truncating at the analysis window.
type FFmpegDecoder struct {
	Binary        string
	SampleRate    int
	WindowSeconds int
}

// NewFFmpegDecoder returns a decoder matching the extractor configuration.
func NewFFmpegDecoder(cfg Config) *FFmpegDecoder {
	return &FFmpegDecoder{
		Binary:        "ffmpeg",
		SampleRate:    cfg.SampleRate,
		WindowSeconds: cfg.WindowSeconds,
	}
}

// Decode returns float64 samples in [-1, 1]. Cancellation surfaces as
// ErrDecodeCanceled; any other ffmpeg failure as ErrDecodeFailed.
func (d *FFmpegDecoder) Decode(ctx context.Context, filename string) ([]float64, error) {
	bin := d.Binary
	if bin == "" {
		bin = "ffmpeg"
	}
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", filename,
		"-ac", "1",
		"-ar", strconv.Itoa(d.SampleRate),
	}
	if d.WindowSeconds > 0 {
		args = append(args, "-t", strconv.Itoa(d.WindowSeconds))
	}
	args = append(args, "-f", "f32le", "-")

	cmd := exec.CommandContext(ctx, bin, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s", ErrDecodeCanceled, filename)
		}
		msg := bytes.TrimSpace(stderr.Bytes())
		return nil, fmt.Errorf("%w: %s: %v (%s)", ErrDecodeFailed, filename, err, msg)
	}

	raw := stdout.Bytes()
	samples := make([]float64, 0, len(raw)/4)
	for i := 0; i+4 <= len(raw); i += 4 {
		bits := binary.LittleEndian.Uint32(raw[i : i+4])
		samples = append(samples, float64(math.Float32frombits(bits)))
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: %s produced no samples", ErrDecodeFailed, filename)
	}
	return samples, nil
}
