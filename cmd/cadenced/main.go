package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"cadence/internal/config"
	"cadence/internal/contextual"
	"cadence/internal/crowd"
	"cadence/internal/daemon"
	"cadence/internal/logging"
	"cadence/internal/player"
	"cadence/internal/queue"
	"cadence/internal/similarity"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("create directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := similarity.Open(cfg)
	if err != nil {
		logger.Error("open similarity store", logging.Error(err))
		return
	}

	var crowdSrc crowd.Source
	if cfg.Crowd.LastFMAPIKey != "" {
		crowdSrc = crowd.Throttled(
			crowd.NewLastFMSource(cfg.Crowd.LastFMAPIKey),
			time.Duration(cfg.Queue.CrowdThrottleSecs)*time.Second,
		)
	} else {
		logger.Info("no crowd api key configured, running acoustic and tag sources only")
	}

	var weather contextual.WeatherSource
	if cfg.Context.Latitude != 0 || cfg.Context.Longitude != 0 {
		weather = contextual.NewOpenMeteoSource()
	}

	pl := player.NewMPDPlayer(cfg.Player.MPDAddress)
	engine := contextual.NewEngine(cfg, weather, logger)
	decoder := analysisDecoder(cfg)
	controller := queue.New(cfg, store, pl, crowdSrc, engine, decoder, logger)

	d, err := daemon.New(cfg, store, controller, pl, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close() //nolint:errcheck

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		return
	}

	logger.Info("cadenced running", slog.String("mpd", cfg.Player.MPDAddress))
	<-ctx.Done()
	logger.Info("cadenced shutting down")
}
