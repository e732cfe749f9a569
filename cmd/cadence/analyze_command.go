package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cadence/internal/analysis"
	"cadence/internal/config"
	"cadence/internal/scms"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <file> [file2]",
		Short: "Fingerprint an audio file, optionally comparing two",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			first, err := fingerprintFile(cmd, cfg, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d-dimensional fingerprint\n", args[0], first.Dim())

			if len(args) == 1 {
				return nil
			}

			second, err := fingerprintFile(cmd, cfg, args[1])
			if err != nil {
				return err
			}
			distance, err := scms.Distance(first, second)
			if err != nil {
				return fmt.Errorf("compare fingerprints: %w", err)
			}
			fmt.Fprintf(out, "%s: %d-dimensional fingerprint\n", args[1], second.Dim())
			fmt.Fprintf(out, "distance: %.4f\n", distance)
			return nil
		},
	}
}

func fingerprintFile(cmd *cobra.Command, cfg *config.Config, filename string) (*scms.Model, error) {
	acfg := analysis.DefaultConfig()
	acfg.SampleRate = cfg.Analysis.SampleRate
	acfg.WindowSize = cfg.Analysis.WindowSize
	acfg.WindowSeconds = cfg.Analysis.WindowSeconds
	acfg.MelFilters = cfg.Analysis.MelFilters
	acfg.Coefficients = cfg.Analysis.Coefficients

	decoder := analysis.NewFFmpegDecoder(acfg)
	if cfg.Analysis.FFmpegBinary != "" {
		decoder.Binary = cfg.Analysis.FFmpegBinary
	}

	samples, err := decoder.Decode(cmd.Context(), filename)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	mfcc, err := analysis.NewExtractor(acfg).Extract(samples)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filename, err)
	}
	model, err := scms.Fit(mfcc)
	if err != nil {
		return nil, fmt.Errorf("fingerprint %s: %w", filename, err)
	}
	return model, nil
}
