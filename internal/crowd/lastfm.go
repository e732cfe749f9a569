package crowd

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"
)

const lastFMBaseURL = "https://ws.audioscrobbler.com/2.0/"

// LastFMSource fetches similarity data from the Last.fm web API. Match
// values come back in [0, 1] and are scaled onto the 0..10000 score range.
type LastFMSource struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// NewLastFMSource returns a source for the given API key.
func NewLastFMSource(apiKey string) *LastFMSource {
	return &LastFMSource{
		APIKey:  apiKey,
		BaseURL: lastFMBaseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type lastFMSimilarTracks struct {
	SimilarTracks struct {
		Track []struct {
			Name   string  `json:"name"`
			Match  float64 `json:"match"`
			Artist struct {
				Name string `json:"name"`
			} `json:"artist"`
		} `json:"track"`
	} `json:"similartracks"`
}

type lastFMSimilarArtists struct {
	SimilarArtists struct {
		Artist []struct {
			Name  string  `json:"name"`
			Match float64 `json:"match,string"`
		} `json:"artist"`
	} `json:"similarartists"`
}

// SimilarTracks implements Source.
func (s *LastFMSource) SimilarTracks(ctx context.Context, artist, title string) ([]TrackMatch, error) {
	params := url.Values{}
	params.Set("method", "track.getsimilar")
	params.Set("artist", artist)
	params.Set("track", title)
	params.Set("autocorrect", "1")

	var body lastFMSimilarTracks
	if err := s.call(ctx, params, &body); err != nil {
		return nil, err
	}

	matches := make([]TrackMatch, 0, len(body.SimilarTracks.Track))
	for _, t := range body.SimilarTracks.Track {
		matches = append(matches, TrackMatch{
			Artist: t.Artist.Name,
			Title:  t.Name,
			Score:  scaleMatch(t.Match),
		})
	}
	return matches, nil
}

// SimilarArtists implements Source.
func (s *LastFMSource) SimilarArtists(ctx context.Context, artist string) ([]ArtistMatch, error) {
	params := url.Values{}
	params.Set("method", "artist.getsimilar")
	params.Set("artist", artist)
	params.Set("autocorrect", "1")

	var body lastFMSimilarArtists
	if err := s.call(ctx, params, &body); err != nil {
		return nil, err
	}

	matches := make([]ArtistMatch, 0, len(body.SimilarArtists.Artist))
	for _, a := range body.SimilarArtists.Artist {
		matches = append(matches, ArtistMatch{
			Artist: a.Name,
			Score:  scaleMatch(a.Match),
		})
	}
	return matches, nil
}

func (s *LastFMSource) call(ctx context.Context, params url.Values, out any) error {
	params.Set("api_key", s.APIKey)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build lastfm request: %w", err)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %s", ErrSourceUnavailable, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode lastfm response: %w", err)
	}
	return nil
}

func scaleMatch(match float64) int64 {
	if match < 0 {
		return 0
	}
	if match > 1 {
		match = 1
	}
	return int64(math.Round(match * 10000))
}
