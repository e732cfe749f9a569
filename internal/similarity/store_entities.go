package similarity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetOrCreateArtist returns the artist row for a name, inserting it on first
// sight. The natural key is the normalized name, so lookups are idempotent.
func (s *Store) GetOrCreateArtist(ctx context.Context, name string) (*Artist, error) {
	key := NormalizeName(name)
	if key == "" {
		return nil, errors.New("artist name is empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	artist, err := scanArtist(tx.QueryRowContext(ctx, `SELECT id, name, updated FROM artists WHERE name = ?`, key))
	if err == nil {
		return artist, tx.Commit()
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get artist: %w", err)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO artists (name, updated) VALUES (?, NULL)`, key)
	if err != nil {
		return nil, fmt.Errorf("insert artist: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit artist: %w", err)
	}
	return &Artist{ID: id, Name: key}, nil
}

// GetOrCreateTrack returns the track row for an (artist, title) pair,
// inserting artist and track on first sight.
func (s *Store) GetOrCreateTrack(ctx context.Context, artist, title string) (*Track, error) {
	titleKey := NormalizeName(title)
	if titleKey == "" {
		return nil, errors.New("track title is empty")
	}

	owner, err := s.GetOrCreateArtist(ctx, artist)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	track, err := scanTrack(tx.QueryRowContext(ctx,
		`SELECT t.id, t.artist_id, a.name, t.title, t.updated
         FROM tracks t JOIN artists a ON a.id = t.artist_id
         WHERE t.artist_id = ? AND t.title = ?`, owner.ID, titleKey))
	if err == nil {
		return track, tx.Commit()
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get track: %w", err)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO tracks (artist_id, title, updated) VALUES (?, ?, NULL)`, owner.ID, titleKey)
	if err != nil {
		return nil, fmt.Errorf("insert track: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit track: %w", err)
	}
	return &Track{ID: id, ArtistID: owner.ID, Artist: owner.Name, Title: titleKey}, nil
}

// TrackByID fetches a track row, or nil when absent.
func (s *Store) TrackByID(ctx context.Context, id int64) (*Track, error) {
	track, err := scanTrack(s.db.QueryRowContext(ctx,
		`SELECT t.id, t.artist_id, a.name, t.title, t.updated
         FROM tracks t JOIN artists a ON a.id = t.artist_id
         WHERE t.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get track: %w", err)
	}
	return track, nil
}

// TracksByArtist returns all track ids belonging to an artist, used to
// exclude same-artist tracks from neighbour scans.
func (s *Store) TracksByArtist(ctx context.Context, artistID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM tracks WHERE artist_id = ? ORDER BY id`, artistID)
	if err != nil {
		return nil, fmt.Errorf("query artist tracks: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteTrack removes a track together with its fingerprint, neighbour
// edges, and match rows.
func (s *Store) DeleteTrack(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Edges and matches reference the track from either side, so delete both
	// directions explicitly before the row itself.
	if _, err := tx.ExecContext(ctx, `DELETE FROM distance WHERE track_1 = ? OR track_2 = ?`, id, id); err != nil {
		return fmt.Errorf("prune edges for track %d: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM track_2_track WHERE track1 = ? OR track2 = ?`, id, id); err != nil {
		return fmt.Errorf("prune matches for track %d: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM fingerprints WHERE track_id = ?`, id); err != nil {
		return fmt.Errorf("prune fingerprint for track %d: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tracks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete track %d: %w", id, err)
	}
	return tx.Commit()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanArtist(row rowScanner) (*Artist, error) {
	var (
		artist  Artist
		updated sql.NullString
	)
	if err := row.Scan(&artist.ID, &artist.Name, &updated); err != nil {
		return nil, err
	}
	artist.Updated = parseTimeString(updated)
	return &artist, nil
}

func scanTrack(row rowScanner) (*Track, error) {
	var (
		track   Track
		updated sql.NullString
	)
	if err := row.Scan(&track.ID, &track.ArtistID, &track.Artist, &track.Title, &updated); err != nil {
		return nil, err
	}
	track.Updated = parseTimeString(updated)
	return &track, nil
}
