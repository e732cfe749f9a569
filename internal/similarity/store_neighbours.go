package similarity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"cadence/internal/scms"
)

// overfetchFactor is how many neighbours a maintenance pass retains beyond
// the requested count, buffering the index against future deletions.
const overfetchFactor = 4

// AddNeighbours recomputes the neighbour index for a track: it scans every
// other stored fingerprint (minus excludeIDs, typically same-artist tracks),
// retains the overfetched smallest distances, and replaces the track's
// outgoing edges. Ties keep scan order.
func (s *Store) AddNeighbours(ctx context.Context, trackID int64, model *scms.Model, excludeIDs []int64, neighbourCount int) error {
	if neighbourCount <= 0 {
		return errors.New("neighbour count must be positive")
	}
	excluded := make(map[int64]struct{}, len(excludeIDs)+1)
	excluded[trackID] = struct{}{}
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}

	type candidate struct {
		id       int64
		distance int64
	}
	var candidates []candidate
	err := s.Fingerprints(ctx, func(otherID int64, other *scms.Model) bool {
		if _, skip := excluded[otherID]; skip {
			return true
		}
		d, err := scms.Distance(model, other)
		if err != nil {
			// Dimension drift between stored fingerprints is a configuration
			// bug; skip the pair rather than abort the whole pass.
			return true
		}
		candidates = append(candidates, candidate{id: otherID, distance: int64(math.Round(d * distanceScale))})
		return true
	})
	if err != nil {
		return fmt.Errorf("scan fingerprints: %w", err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})
	keep := neighbourCount * overfetchFactor
	if keep > len(candidates) {
		keep = len(candidates)
	}
	candidates = candidates[:keep]

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM distance WHERE track_1 = ?`, trackID); err != nil {
		return fmt.Errorf("clear edges: %w", err)
	}
	for _, c := range candidates {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO distance (track_1, track_2, distance) VALUES (?, ?, ?)`,
			trackID, c.id, c.distance,
		); err != nil {
			return fmt.Errorf("insert edge: %w", err)
		}
	}
	return tx.Commit()
}

// HasSufficientNeighbours reports whether a track's neighbour set is still
// usable: it has at least n outgoing edges, and the number of incoming edges
// closer than its worst outgoing edge does not exceed the outgoing count.
// More close incoming than outgoing edges means newer arrivals rank this
// track better than its own stale scan did, so it needs a recompute.
func (s *Store) HasSufficientNeighbours(ctx context.Context, trackID int64, n int) (bool, error) {
	var outgoing int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM distance WHERE track_1 = ?`, trackID,
	).Scan(&outgoing); err != nil {
		return false, fmt.Errorf("count outgoing edges: %w", err)
	}
	if outgoing < n {
		return false, nil
	}

	var maxOutgoing int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT MAX(distance) FROM distance WHERE track_1 = ?`, trackID,
	).Scan(&maxOutgoing); err != nil {
		return false, fmt.Errorf("max outgoing distance: %w", err)
	}

	var incomingCloser int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM distance WHERE track_2 = ? AND distance < ?`, trackID, maxOutgoing,
	).Scan(&incomingCloser); err != nil {
		return false, fmt.Errorf("count incoming edges: %w", err)
	}
	return incomingCloser <= outgoing, nil
}

// Neighbours returns a track's outgoing and incoming edges merged, sorted
// ascending by distance and trimmed to n entries.
func (s *Store) Neighbours(ctx context.Context, trackID int64, n int) ([]Edge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT track_1, track_2, distance FROM distance
         WHERE track_1 = ? OR track_2 = ?
         ORDER BY distance, track_1, track_2`, trackID, trackID)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	var edges []Edge
	seen := make(map[int64]struct{})
	for rows.Next() {
		var from, to int64
		var distance int64
		if err := rows.Scan(&from, &to, &distance); err != nil {
			return nil, err
		}
		edge := Edge{TrackID: trackID, OtherID: to, Distance: distance}
		if to == trackID {
			edge.OtherID = from
			edge.Incoming = true
		}
		// Outgoing and incoming can name the same peer; keep the closest.
		if _, dup := seen[edge.OtherID]; dup {
			continue
		}
		seen[edge.OtherID] = struct{}{}
		edges = append(edges, edge)
		if n > 0 && len(edges) >= n {
			break
		}
	}
	return edges, rows.Err()
}
