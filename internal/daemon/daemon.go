package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"cadence/internal/config"
	"cadence/internal/logging"
	"cadence/internal/player"
	"cadence/internal/queue"
	"cadence/internal/similarity"
)

// NowPlayingPlayer extends the player contract with the current-song probe
// the poll loop needs.
type NowPlayingPlayer interface {
	player.Player
	CurrentSong(ctx context.Context) (player.Song, error)
}

// Daemon owns the poll loop and enforces single-instance execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *similarity.Store
	controller *queue.Controller
	player     NowPlayingPlayer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu       sync.Mutex
	lastSeen string
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool
	Controller     string
	StorePath      string
	LockFilePath   string
	BlockedArtists []string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *similarity.Store, ctrl *queue.Controller, pl NowPlayingPlayer, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || ctrl == nil || pl == nil {
		return nil, errors.New("daemon requires config, store, controller, and player")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "cadenced.lock")
	return &Daemon{
		cfg:        cfg,
		logger:     logger.With(slog.String(logging.FieldComponent, "daemon")),
		store:      store,
		controller: ctrl,
		player:     pl,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the poll loop.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another cadenced instance is already running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running.Store(true)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.pollLoop(loopCtx)
	}()

	d.logger.Info("daemon started", slog.String("lock", d.lockPath))
	return nil
}

// Stop halts the poll loop and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close stops the daemon and closes the similarity store.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}

// Status reports the daemon state.
func (d *Daemon) Status() Status {
	return Status{
		Running:        d.running.Load(),
		Controller:     d.controller.State().String(),
		StorePath:      d.store.Path(),
		LockFilePath:   d.lockPath,
		BlockedArtists: d.controller.BlockedArtists(),
	}
}

// pollLoop watches the player for song changes and queue shortfall.
func (d *Daemon) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.PollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.poll(ctx)
		}
	}
}

func (d *Daemon) poll(ctx context.Context) {
	current, err := d.player.CurrentSong(ctx)
	if err != nil {
		d.logger.Warn("current song probe failed", logging.Error(err))
		return
	}
	if current != nil {
		key := similarity.NormalizeName(current.Artist()) + "\x00" + similarity.NormalizeName(current.Title())
		d.mu.Lock()
		changed := key != d.lastSeen
		if changed {
			d.lastSeen = key
		}
		d.mu.Unlock()
		if changed {
			d.logger.Info("song started",
				slog.String(logging.FieldArtist, current.Artist()),
				slog.String(logging.FieldTitle, current.Title()))
			d.controller.OnSongStarted(ctx, current)
			return
		}
	}

	seconds, err := d.player.QueueSeconds(ctx)
	if err != nil {
		d.logger.Warn("queue length probe failed", logging.Error(err))
		return
	}
	if seconds >= d.cfg.Queue.TargetSeconds {
		return
	}
	if err := d.controller.Fill(ctx); err != nil {
		if errors.Is(err, queue.ErrNothingFound) || errors.Is(err, context.Canceled) {
			d.logger.Info("queue fill found nothing")
			return
		}
		d.logger.Warn("queue fill failed", logging.Error(err))
	}
}
