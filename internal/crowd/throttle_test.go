package crowd

import (
	"context"
	"errors"
	"testing"
	"time"
)

type recordingSource struct {
	calls []time.Time
}

func (r *recordingSource) SimilarTracks(ctx context.Context, artist, title string) ([]TrackMatch, error) {
	r.calls = append(r.calls, time.Now())
	return []TrackMatch{{Artist: artist, Title: title, Score: 9000}}, nil
}

func (r *recordingSource) SimilarArtists(ctx context.Context, artist string) ([]ArtistMatch, error) {
	r.calls = append(r.calls, time.Now())
	return nil, nil
}

func TestThrottledSpacesCalls(t *testing.T) {
	rec := &recordingSource{}
	src := Throttled(rec, 50*time.Millisecond)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := src.SimilarTracks(ctx, "a", "t"); err != nil {
			t.Fatalf("similar tracks: %v", err)
		}
	}
	if len(rec.calls) != 3 {
		t.Fatalf("got %d calls, want 3", len(rec.calls))
	}
	for i := 1; i < len(rec.calls); i++ {
		if gap := rec.calls[i].Sub(rec.calls[i-1]); gap < 40*time.Millisecond {
			t.Fatalf("calls %d and %d only %v apart", i-1, i, gap)
		}
	}
}

func TestThrottledHonorsCancellation(t *testing.T) {
	rec := &recordingSource{}
	src := Throttled(rec, time.Hour)

	ctx := context.Background()
	if _, err := src.SimilarArtists(ctx, "a"); err != nil {
		t.Fatalf("first call: %v", err)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := src.SimilarTracks(canceled, "a", "t"); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if len(rec.calls) != 1 {
		t.Fatalf("canceled call reached the source: %d calls", len(rec.calls))
	}
}
