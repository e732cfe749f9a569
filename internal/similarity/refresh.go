package similarity

import (
	"context"
	"fmt"
	"time"
)

// ArtistResult is one crowd-sourced artist similarity entry.
type ArtistResult struct {
	Name  string
	Score int
}

// TrackResult is one crowd-sourced track similarity entry.
type TrackResult struct {
	Artist string
	Title  string
	Score  int
}

// ArtistFetch supplies crowd-sourced similar artists for a name. The network
// client behind it is a collaborator; the store only defines the contract.
type ArtistFetch func(ctx context.Context, name string) ([]ArtistResult, error)

// TrackFetch supplies crowd-sourced similar tracks for an (artist, title) pair.
type TrackFetch func(ctx context.Context, artist, title string) ([]TrackResult, error)

// RefreshArtist refetches an artist's crowd-sourced neighbours when the
// cached ones are older than horizon (or were never fetched), writing the
// results back and bumping the artist's updated timestamp. It reports whether
// a fetch actually ran. A failed fetch leaves the timestamp untouched so the
// next decision retries, and the caller degrades to cached rows.
func (s *Store) RefreshArtist(ctx context.Context, artist *Artist, horizon time.Duration, fetch ArtistFetch) (bool, error) {
	if fresh(artist.Updated, horizon) {
		return false, nil
	}

	results, err := fetch(ctx, artist.Name)
	if err != nil {
		return false, fmt.Errorf("fetch similar artists for %q: %w", artist.Name, err)
	}

	for _, r := range results {
		peer, err := s.GetOrCreateArtist(ctx, r.Name)
		if err != nil {
			return true, err
		}
		if peer.ID == artist.ID {
			continue
		}
		if err := s.SetArtistMatch(ctx, artist.ID, peer.ID, r.Score); err != nil {
			return true, err
		}
	}
	if err := s.touchArtist(ctx, artist); err != nil {
		return true, err
	}
	return true, nil
}

// RefreshTrack is the track-level counterpart of RefreshArtist.
func (s *Store) RefreshTrack(ctx context.Context, track *Track, horizon time.Duration, fetch TrackFetch) (bool, error) {
	if fresh(track.Updated, horizon) {
		return false, nil
	}

	results, err := fetch(ctx, track.Artist, track.Title)
	if err != nil {
		return false, fmt.Errorf("fetch similar tracks for %q/%q: %w", track.Artist, track.Title, err)
	}

	for _, r := range results {
		peer, err := s.GetOrCreateTrack(ctx, r.Artist, r.Title)
		if err != nil {
			return true, err
		}
		if peer.ID == track.ID {
			continue
		}
		if err := s.SetTrackMatch(ctx, track.ID, peer.ID, r.Score); err != nil {
			return true, err
		}
	}
	if err := s.touchTrack(ctx, track); err != nil {
		return true, err
	}
	return true, nil
}

func fresh(updated *time.Time, horizon time.Duration) bool {
	return updated != nil && updated.Add(horizon).After(time.Now())
}

func (s *Store) touchArtist(ctx context.Context, artist *Artist) error {
	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx,
		`UPDATE artists SET updated = ? WHERE id = ?`, nullableTime(&now), artist.ID,
	); err != nil {
		return fmt.Errorf("touch artist: %w", err)
	}
	artist.Updated = &now
	return nil
}

func (s *Store) touchTrack(ctx context.Context, track *Track) error {
	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx,
		`UPDATE tracks SET updated = ? WHERE id = ?`, nullableTime(&now), track.ID,
	); err != nil {
		return fmt.Errorf("touch track: %w", err)
	}
	track.Updated = &now
	return nil
}
