package crowd

import (
	"context"
	"errors"
)

// ErrSourceUnavailable indicates the similarity source could not be reached.
// Callers degrade to other candidate sources rather than failing the
// decision.
var ErrSourceUnavailable = errors.New("crowd source unavailable")

// TrackMatch is one similar track with a match score in [0, 10000], higher
// meaning more similar.
type TrackMatch struct {
	Artist string
	Title  string
	Score  int64
}

// ArtistMatch is one similar artist with a match score in [0, 10000].
type ArtistMatch struct {
	Artist string
	Score  int64
}

// Source supplies crowd-sourced similarity. Implementations are expected to
// be network clients; wrap them with Throttled before handing them to the
// queue controller.
type Source interface {
	SimilarTracks(ctx context.Context, artist, title string) ([]TrackMatch, error)
	SimilarArtists(ctx context.Context, artist string) ([]ArtistMatch, error)
}
