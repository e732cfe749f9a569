package similarity_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"cadence/internal/matrix"
	"cadence/internal/scms"
	"cadence/internal/similarity"
	"cadence/internal/testsupport"
)

func testModel(t *testing.T, seed int64) *scms.Model {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	m := matrix.New(5, 40)
	for i := 0; i < 5; i++ {
		for j := 0; j < 40; j++ {
			m.Set(i, j, rng.NormFloat64()*float64(i+1)+float64(seed))
		}
	}
	model, err := scms.Fit(m)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	return model
}

func TestGetOrCreateArtistIdempotent(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first, err := store.GetOrCreateArtist(ctx, "The Beatles")
	if err != nil {
		t.Fatalf("GetOrCreateArtist failed: %v", err)
	}
	if first.Updated != nil {
		t.Fatal("new artist must have nil updated timestamp")
	}

	// Case and whitespace variations hit the same row.
	second, err := store.GetOrCreateArtist(ctx, "  the   BEATLES ")
	if err != nil {
		t.Fatalf("GetOrCreateArtist failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same id, got %d and %d", first.ID, second.ID)
	}
}

func TestGetOrCreateTrackIdempotent(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first, err := store.GetOrCreateTrack(ctx, "Miles Davis", "So What")
	if err != nil {
		t.Fatalf("GetOrCreateTrack failed: %v", err)
	}
	second, err := store.GetOrCreateTrack(ctx, "MILES DAVIS", "so what")
	if err != nil {
		t.Fatalf("GetOrCreateTrack failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same id, got %d and %d", first.ID, second.ID)
	}

	other, err := store.GetOrCreateTrack(ctx, "Miles Davis", "Blue in Green")
	if err != nil {
		t.Fatalf("GetOrCreateTrack failed: %v", err)
	}
	if other.ID == first.ID {
		t.Fatal("different titles must get different ids")
	}
	if other.ArtistID != first.ArtistID {
		t.Fatal("same artist must share one artist row")
	}
}

func TestMatchUpsertLeavesOneRow(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	a, _ := store.GetOrCreateArtist(ctx, "a")
	b, _ := store.GetOrCreateArtist(ctx, "b")

	if err := store.SetArtistMatch(ctx, a.ID, b.ID, 100); err != nil {
		t.Fatalf("SetArtistMatch failed: %v", err)
	}
	if err := store.SetArtistMatch(ctx, a.ID, b.ID, 250); err != nil {
		t.Fatalf("SetArtistMatch failed: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats["artist_2_artist"] != 1 {
		t.Fatalf("expected 1 match row, got %d", stats["artist_2_artist"])
	}

	score, err := store.ArtistMatch(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("ArtistMatch failed: %v", err)
	}
	if score != 250 {
		t.Fatalf("expected updated score 250, got %d", score)
	}
}

func TestMatchMaxOfDirections(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	a, _ := store.GetOrCreateTrack(ctx, "x", "one")
	b, _ := store.GetOrCreateTrack(ctx, "y", "two")

	if err := store.SetTrackMatch(ctx, a.ID, b.ID, 300); err != nil {
		t.Fatalf("SetTrackMatch failed: %v", err)
	}
	if err := store.SetTrackMatch(ctx, b.ID, a.ID, 700); err != nil {
		t.Fatalf("SetTrackMatch failed: %v", err)
	}

	for _, pair := range [][2]int64{{a.ID, b.ID}, {b.ID, a.ID}} {
		score, err := store.TrackMatch(ctx, pair[0], pair[1])
		if err != nil {
			t.Fatalf("TrackMatch failed: %v", err)
		}
		if score != 700 {
			t.Fatalf("expected max of directions 700, got %d", score)
		}
	}
}

func TestMatchScoreClamped(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	a, _ := store.GetOrCreateArtist(ctx, "a")
	b, _ := store.GetOrCreateArtist(ctx, "b")
	if err := store.SetArtistMatch(ctx, a.ID, b.ID, 99999); err != nil {
		t.Fatalf("SetArtistMatch failed: %v", err)
	}
	score, err := store.ArtistMatch(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("ArtistMatch failed: %v", err)
	}
	if score != similarity.MaxMatchScore {
		t.Fatalf("expected clamp to %d, got %d", similarity.MaxMatchScore, score)
	}
}

func TestFingerprintRoundTrip(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	track, _ := store.GetOrCreateTrack(ctx, "artist", "title")
	model := testModel(t, 1)
	if err := store.StoreFingerprint(ctx, track.ID, model); err != nil {
		t.Fatalf("StoreFingerprint failed: %v", err)
	}

	loaded, err := store.Fingerprint(ctx, track.ID)
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected stored fingerprint")
	}
	d, err := scms.Distance(model, loaded)
	if err != nil {
		t.Fatalf("Distance failed: %v", err)
	}
	if d > 1e-9 || d < -1e-9 {
		t.Fatalf("stored fingerprint drifted: distance %v", d)
	}

	missing, err := store.Fingerprint(ctx, track.ID+999)
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for missing fingerprint")
	}
}

func TestRefreshArtistHonorsHorizon(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	artist, err := store.GetOrCreateArtist(ctx, "seed artist")
	if err != nil {
		t.Fatalf("GetOrCreateArtist failed: %v", err)
	}

	fetches := 0
	fetch := func(ctx context.Context, name string) ([]similarity.ArtistResult, error) {
		fetches++
		return []similarity.ArtistResult{
			{Name: "peer one", Score: 9000},
			{Name: "peer two", Score: 4000},
		}, nil
	}

	horizon := 90 * 24 * time.Hour
	refetched, err := store.RefreshArtist(ctx, artist, horizon, fetch)
	if err != nil {
		t.Fatalf("RefreshArtist failed: %v", err)
	}
	if !refetched || fetches != 1 {
		t.Fatalf("expected exactly one fetch, got refetched=%v fetches=%d", refetched, fetches)
	}
	if artist.Updated == nil || time.Since(*artist.Updated) > time.Minute {
		t.Fatalf("expected updated bumped to now, got %v", artist.Updated)
	}

	// Second decision within the horizon: no fetch.
	refetched, err = store.RefreshArtist(ctx, artist, horizon, fetch)
	if err != nil {
		t.Fatalf("RefreshArtist failed: %v", err)
	}
	if refetched || fetches != 1 {
		t.Fatalf("expected zero additional fetches, got refetched=%v fetches=%d", refetched, fetches)
	}

	matches, err := store.ArtistMatches(ctx, artist.ID)
	if err != nil {
		t.Fatalf("ArtistMatches failed: %v", err)
	}
	if len(matches) != 2 || matches[0].Score != 9000 {
		t.Fatalf("unexpected matches: %#v", matches)
	}
}

func TestRefreshArtistFetchFailureLeavesTimestamp(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	artist, _ := store.GetOrCreateArtist(ctx, "flaky artist")
	failing := func(ctx context.Context, name string) ([]similarity.ArtistResult, error) {
		return nil, errors.New("offline")
	}
	if _, err := store.RefreshArtist(ctx, artist, time.Hour, failing); err == nil {
		t.Fatal("expected fetch error to propagate")
	}
	if artist.Updated != nil {
		t.Fatal("failed fetch must not bump updated")
	}
}

func TestAddNeighboursCapAndSelfExclusion(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithNeighbourCount(2))
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 12; i++ {
		track, err := store.GetOrCreateTrack(ctx, "various", fmt.Sprintf("track %d", i))
		if err != nil {
			t.Fatalf("GetOrCreateTrack failed: %v", err)
		}
		if err := store.StoreFingerprint(ctx, track.ID, testModel(t, int64(i))); err != nil {
			t.Fatalf("StoreFingerprint failed: %v", err)
		}
		ids = append(ids, track.ID)
	}

	n := cfg.Similarity.NeighbourCount
	model, _ := store.Fingerprint(ctx, ids[0])
	if err := store.AddNeighbours(ctx, ids[0], model, nil, n); err != nil {
		t.Fatalf("AddNeighbours failed: %v", err)
	}

	// Internally capped at 4x the neighbour count.
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats["distance"] > 4*n {
		t.Fatalf("stored %d edges, cap is %d", stats["distance"], 4*n)
	}

	// Read side trims to n and never includes the track itself.
	edges, err := store.Neighbours(ctx, ids[0], n)
	if err != nil {
		t.Fatalf("Neighbours failed: %v", err)
	}
	if len(edges) > n {
		t.Fatalf("Neighbours returned %d edges, want at most %d", len(edges), n)
	}
	for i, edge := range edges {
		if edge.OtherID == ids[0] {
			t.Fatal("neighbour index contains a self edge")
		}
		if i > 0 && edges[i-1].Distance > edge.Distance {
			t.Fatal("neighbours not sorted ascending by distance")
		}
	}

	// Excluded ids (same-artist policy) never appear.
	if err := store.AddNeighbours(ctx, ids[0], model, ids[1:4], n); err != nil {
		t.Fatalf("AddNeighbours failed: %v", err)
	}
	edges, err = store.Neighbours(ctx, ids[0], 4*n)
	if err != nil {
		t.Fatalf("Neighbours failed: %v", err)
	}
	for _, edge := range edges {
		for _, excluded := range ids[1:4] {
			if !edge.Incoming && edge.OtherID == excluded {
				t.Fatalf("excluded track %d appears as neighbour", excluded)
			}
		}
	}
}

func TestHasSufficientNeighbours(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithNeighbourCount(3))
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 5; i++ {
		track, _ := store.GetOrCreateTrack(ctx, "various", fmt.Sprintf("t%d", i))
		if err := store.StoreFingerprint(ctx, track.ID, testModel(t, int64(i*3))); err != nil {
			t.Fatalf("StoreFingerprint failed: %v", err)
		}
		ids = append(ids, track.ID)
	}

	ok, err := store.HasSufficientNeighbours(ctx, ids[0], 3)
	if err != nil {
		t.Fatalf("HasSufficientNeighbours failed: %v", err)
	}
	if ok {
		t.Fatal("track with no edges must need maintenance")
	}

	model, _ := store.Fingerprint(ctx, ids[0])
	if err := store.AddNeighbours(ctx, ids[0], model, nil, 3); err != nil {
		t.Fatalf("AddNeighbours failed: %v", err)
	}
	ok, err = store.HasSufficientNeighbours(ctx, ids[0], 3)
	if err != nil {
		t.Fatalf("HasSufficientNeighbours failed: %v", err)
	}
	if !ok {
		t.Fatal("freshly maintained track must be sufficient")
	}
}

func TestDeleteTrackPrunesEdges(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	a, _ := store.GetOrCreateTrack(ctx, "x", "a")
	b, _ := store.GetOrCreateTrack(ctx, "y", "b")
	for i, id := range []int64{a.ID, b.ID} {
		if err := store.StoreFingerprint(ctx, id, testModel(t, int64(i+20))); err != nil {
			t.Fatalf("StoreFingerprint failed: %v", err)
		}
	}
	model, _ := store.Fingerprint(ctx, a.ID)
	if err := store.AddNeighbours(ctx, a.ID, model, nil, 2); err != nil {
		t.Fatalf("AddNeighbours failed: %v", err)
	}
	if err := store.SetTrackMatch(ctx, a.ID, b.ID, 500); err != nil {
		t.Fatalf("SetTrackMatch failed: %v", err)
	}

	if err := store.DeleteTrack(ctx, b.ID); err != nil {
		t.Fatalf("DeleteTrack failed: %v", err)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats["distance"] != 0 || stats["track_2_track"] != 0 || stats["fingerprints"] != 1 {
		t.Fatalf("expected pruned rows, got %v", stats)
	}
}
