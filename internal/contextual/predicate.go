package contextual

import (
	"strings"
	"time"
)

// Period describes a time-decaying predicate: the predicate peaks at an
// instant in the context year and its influence decays linearly to zero at
// the decay cutoff on either side.
type Period struct {
	// Peak returns the peak instant for a given year.
	Peak func(year int) time.Time
	// Decay is the half-width of the window around the peak.
	Decay time.Duration
	// Seasonal peaks shift by six months in the southern hemisphere.
	Seasonal bool
}

// Predicate is one contextual rule. Vocabulary drives song matching; the
// optional period and gate drive context matching; the optional factor hook
// overrides the default term-overlap boost strength.
type Predicate struct {
	Name string
	// Exclusive is the core vocabulary: a song carrying these terms is about
	// this predicate, not merely associated with it.
	Exclusive []string
	// Related is the broader associated vocabulary used for non-exclusive
	// matching and boosting.
	Related []string
	// Period, when set, limits context applicability to a yearly window and
	// scales boosts by closeness to the peak.
	Period *Period
	// Gate, when set, adds a condition on the snapshot (weather thresholds,
	// geography, birthdays).
	Gate func(p *Predicate, snap *Snapshot) bool
	// SongGate, when set, replaces vocabulary matching entirely (e.g. the
	// nearby-artist predicate matches on artist, not terms).
	SongGate func(p *Predicate, song SongTerms, exclusive bool) bool
	// Factor, when set, replaces the default overlap factor for boosts.
	Factor func(p *Predicate, song SongTerms, snap *Snapshot) float64
}

// SongTerms is the candidate-side view the predicates match against.
type SongTerms struct {
	Artist string
	Terms  []string
}

// AppliesToSong reports whether the predicate matches a song. With
// exclusive=true only the core vocabulary counts; otherwise related terms
// count too.
func (p *Predicate) AppliesToSong(song SongTerms, exclusive bool) bool {
	if p.SongGate != nil {
		return p.SongGate(p, song, exclusive)
	}
	if overlapCount(song.Terms, p.Exclusive) > 0 {
		return true
	}
	return !exclusive && overlapCount(song.Terms, p.Related) > 0
}

// AppliesInContext reports whether the predicate is active for the snapshot.
func (p *Predicate) AppliesInContext(snap *Snapshot) bool {
	if p.Period != nil && p.Strength(snap) <= 0 {
		return false
	}
	if p.Gate != nil && !p.Gate(p, snap) {
		return false
	}
	return p.Period != nil || p.Gate != nil
}

// Strength returns the time-decay scale in [0, 1]: 1 at the peak, linearly
// falling to 0 at the decay cutoff. Predicates without a period are always
// at full strength.
func (p *Predicate) Strength(snap *Snapshot) float64 {
	if p.Period == nil {
		return 1
	}
	best := 0.0
	// A moment late in December sits closest to next year's peak, so probe
	// the surrounding years too.
	for _, year := range []int{snap.Moment.Year() - 1, snap.Moment.Year(), snap.Moment.Year() + 1} {
		peak := p.Period.Peak(year)
		if p.Period.Seasonal && snap.Southern {
			peak = peak.AddDate(0, 6, 0)
		}
		delta := snap.Moment.Sub(peak)
		if delta < 0 {
			delta = -delta
		}
		if delta >= p.Period.Decay {
			continue
		}
		strength := 1 - float64(delta)/float64(p.Period.Decay)
		if strength > best {
			best = strength
		}
	}
	return best
}

// BoostFactor computes the boost strength in [0, 1]: vocabulary overlap
// normalized by vocabulary size, scaled by time decay.
func (p *Predicate) BoostFactor(song SongTerms, snap *Snapshot) float64 {
	if p.Factor != nil {
		return clampUnit(p.Factor(p, song, snap))
	}
	vocab := append(append([]string{}, p.Exclusive...), p.Related...)
	if len(vocab) == 0 {
		return 0
	}
	factor := float64(overlapCount(song.Terms, vocab)) / float64(len(vocab))
	return clampUnit(factor * p.Strength(snap))
}

// PenaltyFactor computes the penalty strength in [0, 1]: exclusive-vocabulary
// overlap normalized by exclusive vocabulary size, with no time decay.
func (p *Predicate) PenaltyFactor(song SongTerms) float64 {
	if len(p.Exclusive) == 0 {
		return 0
	}
	return clampUnit(float64(overlapCount(song.Terms, p.Exclusive)) / float64(len(p.Exclusive)))
}

func overlapCount(terms, vocab []string) int {
	count := 0
	for _, v := range vocab {
		lv := strings.ToLower(v)
		for _, t := range terms {
			lt := strings.ToLower(t)
			// Multi-word tags count when they contain the vocabulary phrase.
			if lt == lv || strings.Contains(lt, lv) {
				count++
				break
			}
		}
	}
	return count
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
