package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"cadence/internal/analysis"
	"cadence/internal/config"
	"cadence/internal/contextual"
	"cadence/internal/crowd"
	"cadence/internal/logging"
	"cadence/internal/merge"
	"cadence/internal/player"
	"cadence/internal/scms"
	"cadence/internal/similarity"
)

// ErrNothingFound indicates a resolution exhausted every candidate without
// enqueueing anything. The queue is left untouched.
var ErrNothingFound = errors.New("no acceptable candidate found")

// State is the controller's lifecycle state.
type State int

const (
	// Idle means no resolution is in flight.
	Idle State = iota
	// Resolving means a queueing decision is being computed.
	Resolving
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Resolving:
		return "resolving"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Controller reacts to player events and keeps the queue topped up. All
// methods are safe for concurrent use; a new song-start supersedes any
// in-flight resolution (last wins).
type Controller struct {
	cfg       *config.Config
	store     *similarity.Store
	player    player.Player
	crowd     crowd.Source
	engine    *contextual.Engine
	decoder   analysis.Decoder
	extractor *analysis.Extractor
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	state    State
	cancel   context.CancelFunc
	gen      uint64
	lastSong player.Song
	blocked  map[string]time.Time
	inflight map[int64]struct{}
}

// New builds a controller. crowdSrc and decoder may be nil; the matching
// candidate sources then degrade to empty.
func New(cfg *config.Config, store *similarity.Store, pl player.Player, crowdSrc crowd.Source, engine *contextual.Engine, decoder analysis.Decoder, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	acfg := analysis.DefaultConfig()
	acfg.SampleRate = cfg.Analysis.SampleRate
	acfg.WindowSize = cfg.Analysis.WindowSize
	acfg.WindowSeconds = cfg.Analysis.WindowSeconds
	acfg.MelFilters = cfg.Analysis.MelFilters
	acfg.Coefficients = cfg.Analysis.Coefficients
	return &Controller{
		cfg:       cfg,
		store:     store,
		player:    pl,
		crowd:     crowdSrc,
		engine:    engine,
		decoder:   decoder,
		extractor: analysis.NewExtractor(acfg),
		logger:    logger.With(slog.String(logging.FieldComponent, "queue")),
		now:       time.Now,
		blocked:   make(map[string]time.Time),
		inflight:  make(map[int64]struct{}),
	}
}

// State reports the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnSongStarted records the song as recently played, cancels any in-flight
// resolution, and starts a new one in the background. It returns promptly.
func (c *Controller) OnSongStarted(ctx context.Context, song player.Song) {
	c.mu.Lock()
	c.lastSong = song
	c.blockArtistLocked(song.Artist())
	c.mu.Unlock()

	resCtx, gen := c.beginResolution(ctx)
	go func() {
		defer c.endResolution(gen)
		if err := c.resolve(resCtx, song); err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Warn("resolution failed",
				slog.String(logging.FieldArtist, song.Artist()),
				slog.String(logging.FieldTitle, song.Title()),
				logging.Error(err))
		}
	}()
}

// Fill tops the queue up to the configured target length, seeding from the
// last started song (or the tail of the player queue). It blocks until the
// target is reached, the candidates run out, or the context is canceled.
func (c *Controller) Fill(ctx context.Context) error {
	seed, err := c.seedSong(ctx)
	if err != nil {
		return err
	}
	if seed == nil {
		return ErrNothingFound
	}

	resCtx, gen := c.beginResolution(ctx)
	defer c.endResolution(gen)

	for {
		seconds, err := c.player.QueueSeconds(resCtx)
		if err != nil {
			return fmt.Errorf("queue length: %w", err)
		}
		if seconds >= c.cfg.Queue.TargetSeconds {
			return nil
		}
		if err := c.resolve(resCtx, seed); err != nil {
			return err
		}
		if next, err := c.tailSong(resCtx); err == nil && next != nil {
			seed = next
		}
	}
}

// BlockedArtists returns the artists currently in cooldown.
func (c *Controller) BlockedArtists() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	names := make([]string, 0, len(c.blocked))
	for name, until := range c.blocked {
		if until.After(now) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// beginResolution cancels any in-flight resolution and registers a new one.
// The returned generation lets the matching endResolution tell whether it is
// still the latest; a superseded resolution must not flip the state back.
func (c *Controller) beginResolution(ctx context.Context) (context.Context, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	resCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.gen++
	c.state = Resolving
	return logging.WithDecisionID(resCtx, uuid.NewString()), c.gen
}

func (c *Controller) endResolution(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.gen {
		c.state = Idle
	}
}

func (c *Controller) blockArtistLocked(artist string) {
	name := similarity.NormalizeName(artist)
	if name == "" {
		return
	}
	c.blocked[name] = c.now().Add(c.cfg.ArtistBlock())
}

func (c *Controller) artistBlocked(artist string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	until, ok := c.blocked[similarity.NormalizeName(artist)]
	return ok && until.After(c.now())
}

func (c *Controller) seedSong(ctx context.Context) (player.Song, error) {
	c.mu.Lock()
	seed := c.lastSong
	c.mu.Unlock()
	if seed != nil {
		return seed, nil
	}
	return c.tailSong(ctx)
}

func (c *Controller) tailSong(ctx context.Context) (player.Song, error) {
	queued, err := c.player.QueuedSongs(ctx)
	if err != nil {
		return nil, fmt.Errorf("queued songs: %w", err)
	}
	if len(queued) == 0 {
		return nil, nil
	}
	return queued[len(queued)-1], nil
}

// resolve runs one queueing decision: assemble candidate streams for the
// seed, merge them, rescore a look-ahead window at a time, and enqueue the
// first acceptable candidate. Context-filtered candidates get a second,
// context-free chance before the decision gives up.
func (c *Controller) resolve(ctx context.Context, seed player.Song) error {
	logger := logging.WithContext(ctx, c.logger)

	snap := c.engine.Snapshot(ctx, c.now(), songVocabulary(seed))
	stream := merge.Merge(c.assembleStreams(ctx, seed, logger)...)

	window := c.cfg.Queue.LookaheadWindow
	var deferred []merge.Candidate
	for {
		batch := pullWindow(stream, window)
		if len(batch) == 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		accepted := make([]merge.Candidate, 0, len(batch))
		for _, cand := range batch {
			if c.engine.OutOfContext(snap, cand) {
				deferred = append(deferred, cand)
				continue
			}
			accepted = append(accepted, cand)
		}
		if song, ok := c.tryCandidates(ctx, snap, accepted, logger); ok {
			return c.enqueue(ctx, song, logger)
		}
	}

	// Context-free fallback over everything the first pass rejected.
	if song, ok := c.tryCandidates(ctx, snap, deferred, logger); ok {
		return c.enqueue(ctx, song, logger)
	}
	logger.Info("nothing found",
		slog.String(logging.FieldArtist, seed.Artist()),
		slog.String(logging.FieldTitle, seed.Title()))
	return ErrNothingFound
}

// tryCandidates rescored-orders the window and returns the first candidate
// the player can actually play by an unblocked artist.
func (c *Controller) tryCandidates(ctx context.Context, snap *contextual.Snapshot, window []merge.Candidate, logger *slog.Logger) (player.Song, bool) {
	rescored := c.engine.Rescore(snap, window)
	sort.SliceStable(rescored, func(i, j int) bool { return rescored[i].Score < rescored[j].Score })

	for _, cand := range rescored {
		if ctx.Err() != nil {
			return nil, false
		}
		if c.artistBlocked(cand.Artist) {
			continue
		}
		songs, err := c.player.Search(ctx, player.Query{Artist: cand.Artist, Title: cand.Title, Tags: cand.Tags})
		if err != nil {
			logger.Warn("player search failed", logging.Error(err))
			continue
		}
		if len(songs) == 0 {
			continue
		}
		logger.Info("candidate accepted",
			slog.String(logging.FieldArtist, cand.Artist),
			slog.String(logging.FieldTitle, cand.Title),
			slog.String("source", cand.Source),
			slog.Float64(logging.FieldScore, cand.Score))
		return songs[0], true
	}
	return nil, false
}

func (c *Controller) enqueue(ctx context.Context, song player.Song, logger *slog.Logger) error {
	if err := c.player.Enqueue(ctx, song); err != nil {
		return fmt.Errorf("enqueue %q: %w", song.Title(), err)
	}
	c.mu.Lock()
	c.blockArtistLocked(song.Artist())
	c.mu.Unlock()
	logger.Info("song enqueued",
		slog.String(logging.FieldArtist, song.Artist()),
		slog.String(logging.FieldTitle, song.Title()))
	return nil
}

// ensureFingerprint extracts and stores the seed's fingerprint and maintains
// its neighbour index, at most once in flight per track.
func (c *Controller) ensureFingerprint(ctx context.Context, track *similarity.Track, filename string, excluded []int64) error {
	if c.decoder == nil {
		return analysis.ErrDecodeFailed
	}

	c.mu.Lock()
	if _, busy := c.inflight[track.ID]; busy {
		c.mu.Unlock()
		return nil
	}
	c.inflight[track.ID] = struct{}{}
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.inflight, track.ID)
		c.mu.Unlock()
	}()

	enough, err := c.store.HasSufficientNeighbours(ctx, track.ID, c.cfg.Similarity.NeighbourCount)
	if err != nil {
		return err
	}
	if enough {
		return nil
	}

	model, err := c.store.Fingerprint(ctx, track.ID)
	if err != nil {
		return err
	}
	if model == nil {
		samples, err := c.decoder.Decode(ctx, filename)
		if err != nil {
			return err
		}
		mfcc, err := c.extractor.Extract(samples)
		if err != nil {
			return err
		}
		model, err = scms.Fit(mfcc)
		if err != nil {
			return err
		}
		if err := c.store.StoreFingerprint(ctx, track.ID, model); err != nil {
			return err
		}
	}
	return c.store.AddNeighbours(ctx, track.ID, model, excluded, c.cfg.Similarity.NeighbourCount)
}

func pullWindow(stream merge.Stream, n int) []merge.Candidate {
	if n <= 0 {
		n = 1
	}
	out := make([]merge.Candidate, 0, n)
	for len(out) < n {
		cand, ok := stream.Next()
		if !ok {
			break
		}
		out = append(out, cand)
	}
	return out
}

func songVocabulary(song player.Song) []string {
	return append([]string{}, song.Tags()...)
}
