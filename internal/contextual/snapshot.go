package contextual

import (
	"context"
	"sync"
	"time"

	"github.com/mmcloughlin/geohash"

	"cadence/internal/config"
)

// Conditions describes the current weather at the listener's location.
type Conditions struct {
	TempC     float64
	WindKph   float64
	Humidity  float64
	Text      string
	Sunrise   time.Time
	Sunset    time.Time
}

// WeatherSource supplies current conditions. Network clients implementing it
// are collaborators; failures degrade the snapshot to no weather.
type WeatherSource interface {
	Current(ctx context.Context, latitude, longitude float64) (Conditions, error)
}

// Snapshot captures everything the predicates evaluate against for one
// queueing decision. It is built fresh per decision and never mutated.
type Snapshot struct {
	Moment        time.Time
	Geohash       string
	Southern      bool
	Weather       *Conditions
	Birthdays     []config.Birthday
	LastSongTerms []string
	NearbyArtists []string
}

// weatherCache holds the last fetched conditions for a short TTL so repeated
// decisions don't hammer the weather source.
type weatherCache struct {
	mu        sync.Mutex
	fetchedAt time.Time
	cond      Conditions
	ok        bool
}

func (c *weatherCache) get(ctx context.Context, src WeatherSource, lat, lon float64, ttl time.Duration) (Conditions, bool) {
	if src == nil {
		return Conditions{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ok && time.Since(c.fetchedAt) < ttl {
		return c.cond, true
	}
	cond, err := src.Current(ctx, lat, lon)
	if err != nil {
		return Conditions{}, false
	}
	c.cond = cond
	c.fetchedAt = time.Now()
	c.ok = true
	return cond, true
}

// Snapshot builds the context snapshot for a decision at the given moment.
func (e *Engine) Snapshot(ctx context.Context, moment time.Time, lastSongTerms []string) *Snapshot {
	snap := &Snapshot{
		Moment:        moment,
		Southern:      e.cfg.Context.SouthernHemisphere,
		Birthdays:     e.cfg.Context.Birthdays,
		LastSongTerms: lastSongTerms,
		NearbyArtists: e.nearbyArtists,
	}
	if e.cfg.Context.Latitude != 0 || e.cfg.Context.Longitude != 0 {
		snap.Geohash = geohash.Encode(e.cfg.Context.Latitude, e.cfg.Context.Longitude)
	}
	if cond, ok := e.weather.get(ctx, e.weatherSource, e.cfg.Context.Latitude, e.cfg.Context.Longitude, e.cfg.WeatherTTL()); ok {
		snap.Weather = &cond
	}
	return snap
}
