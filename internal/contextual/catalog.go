package contextual

import (
	"math"
	"strings"
	"time"

	"cadence/internal/config"
)

const day = 24 * time.Hour

func fixedDate(month time.Month, dayOfMonth int, decay time.Duration) *Period {
	return &Period{
		Peak: func(year int) time.Time {
			return time.Date(year, month, dayOfMonth, 12, 0, 0, 0, time.Local)
		},
		Decay: decay,
	}
}

func seasonPeak(month time.Month, dayOfMonth int) *Period {
	p := fixedDate(month, dayOfMonth, 45*day)
	p.Seasonal = true
	return p
}

// easterSunday computes the Gregorian Easter date (anonymous computus).
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	dayOfMonth := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), dayOfMonth, 12, 0, 0, 0, time.Local)
}

func easterOffset(days int, decay time.Duration) *Period {
	return &Period{
		Peak: func(year int) time.Time {
			return easterSunday(year).Add(time.Duration(days) * day)
		},
		Decay: decay,
	}
}

// dailyGate activates within decay of the peak hour, every day.
func dailyGate(peakHour int, width time.Duration) func(*Predicate, *Snapshot) bool {
	return func(_ *Predicate, snap *Snapshot) bool {
		peak := time.Date(snap.Moment.Year(), snap.Moment.Month(), snap.Moment.Day(), peakHour, 0, 0, 0, snap.Moment.Location())
		delta := snap.Moment.Sub(peak)
		if delta < 0 {
			delta = -delta
		}
		if delta > 12*time.Hour {
			delta = 24*time.Hour - delta
		}
		return delta < width
	}
}

func weatherGate(test func(Conditions) bool) func(*Predicate, *Snapshot) bool {
	return func(_ *Predicate, snap *Snapshot) bool {
		return snap.Weather != nil && test(*snap.Weather)
	}
}

func conditionContains(cond Conditions, words ...string) bool {
	text := strings.ToLower(cond.Text)
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// geoFactor grows with the shared geohash prefix: 1.1^shared, normalized by
// the full-precision value so it stays within [0, 1].
func geoFactor(_ *Predicate, song SongTerms, snap *Snapshot) float64 {
	if snap.Geohash == "" {
		return 0
	}
	best := 0
	for _, term := range song.Terms {
		shared := sharedPrefixLen(strings.ToLower(term), snap.Geohash)
		if shared > best {
			best = shared
		}
	}
	if best == 0 {
		return 0
	}
	return math.Pow(1.1, float64(best)) / math.Pow(1.1, float64(len(snap.Geohash)))
}

func sharedPrefixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

// DefaultPredicates builds the standard catalog plus per-person birthday
// predicates from configuration.
func DefaultPredicates(birthdays []config.Birthday) []Predicate {
	predicates := []Predicate{
		{
			Name:      "christmas",
			Exclusive: []string{"christmas", "xmas", "santa claus", "mistletoe", "noel"},
			Related:   []string{"winter", "snow", "sleigh", "reindeer", "carol", "bells"},
			Period:    fixedDate(time.December, 25, 10*day),
		},
		{
			Name:      "new year",
			Exclusive: []string{"new year", "auld lang syne", "midnight"},
			Related:   []string{"champagne", "countdown", "resolution"},
			Period:    fixedDate(time.January, 1, 3*day),
		},
		{
			Name:      "valentine",
			Exclusive: []string{"valentine", "be my valentine"},
			Related:   []string{"love", "romance", "heart", "kiss"},
			Period:    fixedDate(time.February, 14, 5*day),
		},
		{
			Name:      "halloween",
			Exclusive: []string{"halloween", "all hallows", "trick or treat"},
			Related:   []string{"ghost", "witch", "pumpkin", "spooky", "monster", "zombie"},
			Period:    fixedDate(time.October, 31, 7*day),
		},
		{
			Name:      "easter",
			Exclusive: []string{"easter", "resurrection"},
			Related:   []string{"egg", "bunny", "spring lamb"},
			Period:    easterOffset(0, 7*day),
		},
		{
			Name:      "good friday",
			Exclusive: []string{"good friday", "crucifixion"},
			Related:   []string{"cross", "golgotha"},
			Period:    easterOffset(-2, 2*day),
		},
		{
			Name:      "winter",
			Exclusive: []string{"winter", "wintertime"},
			Related:   []string{"snow", "ice", "frost", "cold", "frozen"},
			Period:    seasonPeak(time.January, 15),
		},
		{
			Name:      "spring",
			Exclusive: []string{"spring", "springtime"},
			Related:   []string{"blossom", "bloom", "thaw"},
			Period:    seasonPeak(time.April, 15),
		},
		{
			Name:      "summer",
			Exclusive: []string{"summer", "summertime"},
			Related:   []string{"sun", "beach", "heat", "holiday"},
			Period:    seasonPeak(time.July, 15),
		},
		{
			Name:      "autumn",
			Exclusive: []string{"autumn", "fall"},
			Related:   []string{"harvest", "leaves", "october"},
			Period:    seasonPeak(time.October, 15),
		},
		{
			Name:      "morning",
			Exclusive: []string{"morning", "sunrise", "dawn"},
			Related:   []string{"breakfast", "wake up"},
			Gate:      dailyGate(8, 3*time.Hour),
		},
		{
			Name:      "evening",
			Exclusive: []string{"evening", "sunset", "dusk"},
			Related:   []string{"twilight"},
			Gate:      dailyGate(19, 3*time.Hour),
		},
		{
			Name:      "night",
			Exclusive: []string{"night", "midnight", "nocturne"},
			Related:   []string{"moon", "stars", "insomnia"},
			Gate:      dailyGate(23, 4*time.Hour),
		},
		{
			Name:      "freezing",
			Exclusive: []string{"freezing", "frozen", "ice"},
			Related:   []string{"frost", "icicle", "cold"},
			Gate:      weatherGate(func(c Conditions) bool { return c.TempC <= 0 }),
		},
		{
			Name:      "snow",
			Exclusive: []string{"snow", "snowflake", "blizzard"},
			Related:   []string{"white", "powder"},
			Gate: weatherGate(func(c Conditions) bool {
				return conditionContains(c, "snow", "sleet") || (c.TempC <= 0 && c.Humidity > 65)
			}),
		},
		{
			Name:      "rain",
			Exclusive: []string{"rain", "rainy", "raindrops"},
			Related:   []string{"storm", "umbrella", "puddle", "drizzle"},
			Gate: weatherGate(func(c Conditions) bool {
				return conditionContains(c, "rain", "drizzle", "shower", "storm")
			}),
		},
		{
			Name:      "sunshine",
			Exclusive: []string{"sunshine", "sunny"},
			Related:   []string{"sun", "blue sky", "bright"},
			Gate: weatherGate(func(c Conditions) bool {
				return conditionContains(c, "sun", "clear", "fair")
			}),
		},
		{
			Name:      "wind",
			Exclusive: []string{"wind", "windy", "hurricane"},
			Related:   []string{"breeze", "gale", "storm"},
			Gate:      weatherGate(func(c Conditions) bool { return c.WindKph > 30 }),
		},
		{
			Name:   "geography",
			Gate:   func(_ *Predicate, snap *Snapshot) bool { return snap.Geohash != "" },
			Factor: geoFactor,
			SongGate: func(_ *Predicate, song SongTerms, exclusive bool) bool {
				// Geohash tags only; exclusivity does not apply.
				for _, term := range song.Terms {
					if looksLikeGeohash(term) {
						return !exclusive
					}
				}
				return false
			},
		},
		{
			// Boost-only: matches through its factor, never penalizes.
			Name: "nearby artist",
			Gate: func(_ *Predicate, snap *Snapshot) bool { return len(snap.NearbyArtists) > 0 },
			Factor: func(_ *Predicate, song SongTerms, snap *Snapshot) float64 {
				for _, artist := range snap.NearbyArtists {
					if strings.EqualFold(artist, song.Artist) {
						return 1
					}
				}
				return 0
			},
		},
	}

	for _, b := range birthdays {
		b := b
		predicates = append(predicates, Predicate{
			Name:      "birthday " + b.Name,
			Exclusive: []string{"birthday", "happy birthday", b.Name},
			Related:   []string{"celebrate", "party", "cake"},
			Period:    fixedDate(time.Month(b.Month), b.Day, 1*day),
		})
	}
	return predicates
}

const geohashAlphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

func looksLikeGeohash(term string) bool {
	if len(term) < 4 || len(term) > 12 {
		return false
	}
	for _, r := range strings.ToLower(term) {
		if !strings.ContainsRune(geohashAlphabet, r) {
			return false
		}
	}
	return true
}
