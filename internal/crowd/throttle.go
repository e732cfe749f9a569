package crowd

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// throttledSource spaces calls to the wrapped source by a minimum interval
// across both methods, blocking until the limiter admits the call or the
// context is canceled.
type throttledSource struct {
	src     Source
	limiter *rate.Limiter
}

// Throttled wraps src with a minimum inter-call spacing. A non-positive
// interval defaults to one second.
func Throttled(src Source, minInterval time.Duration) Source {
	if minInterval <= 0 {
		minInterval = time.Second
	}
	return &throttledSource{
		src:     src,
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
	}
}

func (t *throttledSource) SimilarTracks(ctx context.Context, artist, title string) ([]TrackMatch, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("throttle similar tracks: %w", err)
	}
	return t.src.SimilarTracks(ctx, artist, title)
}

func (t *throttledSource) SimilarArtists(ctx context.Context, artist string) ([]ArtistMatch, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("throttle similar artists: %w", err)
	}
	return t.src.SimilarArtists(ctx, artist)
}
