package main

import (
	"cadence/internal/analysis"
	"cadence/internal/config"
)

func analysisDecoder(cfg *config.Config) analysis.Decoder {
	acfg := analysis.DefaultConfig()
	acfg.SampleRate = cfg.Analysis.SampleRate
	acfg.WindowSeconds = cfg.Analysis.WindowSeconds
	dec := analysis.NewFFmpegDecoder(acfg)
	if cfg.Analysis.FFmpegBinary != "" {
		dec.Binary = cfg.Analysis.FFmpegBinary
	}
	return dec
}
