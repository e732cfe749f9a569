package crowd

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLastFMSimilarTracks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("method"); got != "track.getsimilar" {
			t.Errorf("method = %q", got)
		}
		if r.URL.Query().Get("api_key") == "" {
			t.Error("api_key missing")
		}
		w.Write([]byte(`{"similartracks":{"track":[
			{"name":"Echoes","match":0.95,"artist":{"name":"Nearby Band"}},
			{"name":"Drift","match":0.5,"artist":{"name":"Tag Twin"}}
		]}}`))
	}))
	defer srv.Close()

	src := NewLastFMSource("key")
	src.BaseURL = srv.URL

	matches, err := src.SimilarTracks(context.Background(), "Seed", "Song")
	if err != nil {
		t.Fatalf("similar tracks: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].Artist != "Nearby Band" || matches[0].Score != 9500 {
		t.Fatalf("unexpected first match %+v", matches[0])
	}
}

func TestLastFMSimilarArtists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"similarartists":{"artist":[{"name":"Peer","match":"0.8"}]}}`))
	}))
	defer srv.Close()

	src := NewLastFMSource("key")
	src.BaseURL = srv.URL

	matches, err := src.SimilarArtists(context.Background(), "Seed")
	if err != nil {
		t.Fatalf("similar artists: %v", err)
	}
	if len(matches) != 1 || matches[0].Score != 8000 {
		t.Fatalf("unexpected matches %+v", matches)
	}
}

func TestLastFMUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := NewLastFMSource("key")
	src.BaseURL = srv.URL

	if _, err := src.SimilarTracks(context.Background(), "a", "t"); !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("got %v, want ErrSourceUnavailable", err)
	}
}
