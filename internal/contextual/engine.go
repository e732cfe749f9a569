package contextual

import (
	"log/slog"
	"strings"

	"cadence/internal/config"
	"cadence/internal/logging"
	"cadence/internal/merge"
)

// Engine owns the predicate catalog, the weather cache, and the rescoring
// pass applied to candidate windows.
type Engine struct {
	cfg           *config.Config
	predicates    []Predicate
	weatherSource WeatherSource
	weather       weatherCache
	nearbyArtists []string
	logger        *slog.Logger
}

// NewEngine builds an engine with the default predicate catalog for the
// configuration. weather may be nil, degrading weather predicates to
// inactive.
func NewEngine(cfg *config.Config, weather WeatherSource, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		cfg:           cfg,
		predicates:    DefaultPredicates(cfg.Context.Birthdays),
		weatherSource: weather,
		logger:        logger.With(slog.String(logging.FieldComponent, "contextual")),
	}
}

// SetNearbyArtists replaces the list of acts playing nearby venues, matched
// by the nearby-artist predicate.
func (e *Engine) SetNearbyArtists(artists []string) {
	e.nearbyArtists = artists
}

// Predicates exposes the catalog, mainly for tests.
func (e *Engine) Predicates() []Predicate { return e.predicates }

// Rescore applies every predicate to every candidate in the window and
// returns the candidates with adjusted scores, preserving input order.
// Boosts divide a score by (1 + factor) and penalties multiply it by
// (1 + factor), with factor always in [0, 1]; lower stays better. Loved
// candidates are in context by fiat: they are never penalized.
func (e *Engine) Rescore(snap *Snapshot, candidates []merge.Candidate) []merge.Candidate {
	out := make([]merge.Candidate, len(candidates))
	for i, cand := range candidates {
		song := songTerms(cand)
		score := cand.Score
		for p := range e.predicates {
			pred := &e.predicates[p]
			inContext := pred.AppliesInContext(snap)
			if inContext {
				if factor := pred.BoostFactor(song, snap); factor > 0 {
					score /= 1 + factor
				}
				continue
			}
			if cand.Loved {
				continue
			}
			if pred.AppliesToSong(song, true) {
				score *= 1 + pred.PenaltyFactor(song)
			}
		}
		cand.Score = score
		out[i] = cand
	}
	return out
}

// OutOfContext reports whether the candidate is exclusively about a
// predicate that is inactive right now. The context-filtered first pass
// rejects such candidates; the context-free fallback admits them. Loved
// candidates are never out of context.
func (e *Engine) OutOfContext(snap *Snapshot, cand merge.Candidate) bool {
	if cand.Loved {
		return false
	}
	song := songTerms(cand)
	for p := range e.predicates {
		pred := &e.predicates[p]
		if !pred.AppliesInContext(snap) && pred.AppliesToSong(song, true) {
			return true
		}
	}
	return false
}

// songTerms assembles the vocabulary view of a candidate: its tags plus the
// words of its title.
func songTerms(cand merge.Candidate) SongTerms {
	terms := make([]string, 0, len(cand.Tags)+4)
	terms = append(terms, cand.Tags...)
	terms = append(terms, strings.Fields(strings.ToLower(cand.Title))...)
	return SongTerms{Artist: cand.Artist, Terms: terms}
}
