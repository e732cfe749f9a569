package similarity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SetArtistMatch upserts the directional artist match score for (from, to).
func (s *Store) SetArtistMatch(ctx context.Context, fromID, toID int64, score int) error {
	return s.upsertMatch(ctx, "artist_2_artist", "artist1", "artist2", fromID, toID, score)
}

// SetTrackMatch upserts the directional track match score for (from, to).
func (s *Store) SetTrackMatch(ctx context.Context, fromID, toID int64, score int) error {
	return s.upsertMatch(ctx, "track_2_track", "track1", "track2", fromID, toID, score)
}

// ArtistMatch reads the undirected artist match: the maximum of both stored
// directions, or 0 when neither exists.
func (s *Store) ArtistMatch(ctx context.Context, a, b int64) (int, error) {
	return s.maxMatch(ctx, "artist_2_artist", "artist1", "artist2", a, b)
}

// TrackMatch reads the undirected track match.
func (s *Store) TrackMatch(ctx context.Context, a, b int64) (int, error) {
	return s.maxMatch(ctx, "track_2_track", "track1", "track2", a, b)
}

// ArtistMatches returns all outgoing artist matches for an artist, best
// first.
func (s *Store) ArtistMatches(ctx context.Context, artistID int64) ([]Match, error) {
	return s.outgoingMatches(ctx, "artist_2_artist", "artist1", "artist2", artistID)
}

// TrackMatches returns all outgoing track matches for a track, best first.
func (s *Store) TrackMatches(ctx context.Context, trackID int64) ([]Match, error) {
	return s.outgoingMatches(ctx, "track_2_track", "track1", "track2", trackID)
}

func (s *Store) upsertMatch(ctx context.Context, table, fromCol, toCol string, fromID, toID int64, score int) error {
	score = clampScore(score)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET match = ? WHERE %s = ? AND %s = ?`, table, fromCol, toCol),
		score, fromID, toID,
	)
	if err != nil {
		return fmt.Errorf("update match: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (%s, %s, match) VALUES (?, ?, ?)`, table, fromCol, toCol),
			fromID, toID, score,
		); err != nil {
			return fmt.Errorf("insert match: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) maxMatch(ctx context.Context, table, fromCol, toCol string, a, b int64) (int, error) {
	var score sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT MAX(match) FROM %s
            WHERE (%s = ? AND %s = ?) OR (%s = ? AND %s = ?)`, table, fromCol, toCol, fromCol, toCol),
		a, b, b, a,
	).Scan(&score)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("read match: %w", err)
	}
	if !score.Valid {
		return 0, nil
	}
	return int(score.Int64), nil
}

func (s *Store) outgoingMatches(ctx context.Context, table, fromCol, toCol string, fromID int64) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s, %s, match FROM %s WHERE %s = ? ORDER BY match DESC`, fromCol, toCol, table, fromCol),
		fromID,
	)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.FromID, &m.ToID, &m.Score); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
