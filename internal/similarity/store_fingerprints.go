package similarity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cadence/internal/scms"
)

// StoreFingerprint persists a track's fingerprint, replacing any previous one.
func (s *Store) StoreFingerprint(ctx context.Context, trackID int64, model *scms.Model) error {
	blob, err := scms.EncodeBlob(model)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE fingerprints SET blob = ? WHERE track_id = ?`, blob, trackID)
	if err != nil {
		return fmt.Errorf("update fingerprint: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := tx.ExecContext(ctx, `INSERT INTO fingerprints (track_id, blob) VALUES (?, ?)`, trackID, blob); err != nil {
			return fmt.Errorf("insert fingerprint: %w", err)
		}
	}
	return tx.Commit()
}

// Fingerprint loads a track's fingerprint, or nil when none is stored.
func (s *Store) Fingerprint(ctx context.Context, trackID int64) (*scms.Model, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT blob FROM fingerprints WHERE track_id = ?`, trackID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get fingerprint: %w", err)
	}
	return scms.DecodeBlob(blob)
}

// Fingerprints streams every stored fingerprint to fn in track id order,
// stopping early when fn returns false. Batch distance scans use this to
// avoid materializing the whole population.
func (s *Store) Fingerprints(ctx context.Context, fn func(trackID int64, model *scms.Model) bool) error {
	rows, err := s.db.QueryContext(ctx, `SELECT track_id, blob FROM fingerprints ORDER BY track_id`)
	if err != nil {
		return fmt.Errorf("query fingerprints: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var (
			trackID int64
			blob    []byte
		)
		if err := rows.Scan(&trackID, &blob); err != nil {
			return err
		}
		model, err := scms.DecodeBlob(blob)
		if err != nil {
			return fmt.Errorf("fingerprint for track %d: %w", trackID, err)
		}
		if !fn(trackID, model) {
			return nil
		}
	}
	return rows.Err()
}
