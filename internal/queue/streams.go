package queue

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"cadence/internal/logging"
	"cadence/internal/merge"
	"cadence/internal/player"
	"cadence/internal/similarity"
)

const (
	sourceAcoustic    = "acoustic"
	sourceCrowdTrack  = "crowd-track"
	sourceCrowdArtist = "crowd-artist"
	sourceTags        = "tags"
)

// assembleStreams builds the candidate sources for one decision. A failing
// source degrades to an empty stream; the decision carries on with the rest.
func (c *Controller) assembleStreams(ctx context.Context, seed player.Song, logger *slog.Logger) []merge.Stream {
	artist, err := c.store.GetOrCreateArtist(ctx, seed.Artist())
	if err != nil {
		logger.Warn("register artist failed", logging.Error(err))
		return []merge.Stream{c.tagStream(ctx, seed, logger)}
	}
	track, err := c.store.GetOrCreateTrack(ctx, seed.Artist(), seed.Title())
	if err != nil {
		logger.Warn("register track failed", logging.Error(err))
		return []merge.Stream{c.tagStream(ctx, seed, logger)}
	}

	return []merge.Stream{
		c.acousticStream(ctx, track, seed, logger),
		c.crowdTrackStream(ctx, track, logger),
		c.crowdArtistStream(ctx, artist, logger),
		c.tagStream(ctx, seed, logger),
	}
}

// acousticStream yields the seed's neighbour index, maintaining it first if
// the index is thin. A fingerprint failure skips the acoustic contribution
// for this track only.
func (c *Controller) acousticStream(ctx context.Context, track *similarity.Track, seed player.Song, logger *slog.Logger) merge.Stream {
	excluded, err := c.queuedTrackIDs(ctx)
	if err != nil {
		logger.Warn("queued track ids", logging.Error(err))
	}
	if err := c.ensureFingerprint(ctx, track, seed.Filename(), excluded); err != nil {
		logger.Warn("fingerprint unavailable",
			slog.Int64(logging.FieldTrackID, track.ID),
			logging.Error(err))
		return merge.NewSliceStream(nil)
	}

	edges, err := c.store.Neighbours(ctx, track.ID, c.cfg.Similarity.NeighbourCount)
	if err != nil {
		logger.Warn("neighbour lookup failed", logging.Error(err))
		return merge.NewSliceStream(nil)
	}

	pos := 0
	return merge.FuncStream(func() (merge.Candidate, bool) {
		for pos < len(edges) {
			edge := edges[pos]
			pos++
			peer, err := c.store.TrackByID(ctx, edge.OtherID)
			if err != nil || peer == nil {
				continue
			}
			return merge.Candidate{
				Score:  float64(edge.Distance),
				Artist: peer.Artist,
				Title:  peer.Title,
				Source: sourceAcoustic,
			}, true
		}
		return merge.Candidate{}, false
	})
}

// crowdTrackStream yields crowd-sourced similar tracks, refreshing stale
// cached rows first. Source failures degrade to whatever is cached.
func (c *Controller) crowdTrackStream(ctx context.Context, track *similarity.Track, logger *slog.Logger) merge.Stream {
	if c.crowd == nil {
		return merge.NewSliceStream(nil)
	}

	fetched, err := c.store.RefreshTrack(ctx, track, c.cfg.CacheHorizon(), func(ctx context.Context, artist, title string) ([]similarity.TrackResult, error) {
		matches, err := c.crowd.SimilarTracks(ctx, artist, title)
		if err != nil {
			return nil, err
		}
		results := make([]similarity.TrackResult, len(matches))
		for i, m := range matches {
			results[i] = similarity.TrackResult{Artist: m.Artist, Title: m.Title, Score: int(m.Score)}
		}
		return results, nil
	})
	if err != nil {
		logger.Warn("crowd track refresh failed", logging.Error(err))
	} else if fetched {
		logger.Debug("crowd track matches refreshed", slog.Int64(logging.FieldTrackID, track.ID))
	}

	matches, err := c.store.TrackMatches(ctx, track.ID)
	if err != nil {
		logger.Warn("track match lookup failed", logging.Error(err))
		return merge.NewSliceStream(nil)
	}

	pos := 0
	return merge.FuncStream(func() (merge.Candidate, bool) {
		for pos < len(matches) {
			m := matches[pos]
			pos++
			peer, err := c.store.TrackByID(ctx, m.ToID)
			if err != nil || peer == nil {
				continue
			}
			return merge.Candidate{
				Score:  float64(similarity.MaxMatchScore - m.Score),
				Artist: peer.Artist,
				Title:  peer.Title,
				Source: sourceCrowdTrack,
			}, true
		}
		return merge.Candidate{}, false
	})
}

// crowdArtistStream yields every known track of each crowd-similar artist,
// best-matched artists first.
func (c *Controller) crowdArtistStream(ctx context.Context, artist *similarity.Artist, logger *slog.Logger) merge.Stream {
	if c.crowd == nil {
		return merge.NewSliceStream(nil)
	}

	if _, err := c.store.RefreshArtist(ctx, artist, c.cfg.CacheHorizon(), func(ctx context.Context, name string) ([]similarity.ArtistResult, error) {
		matches, err := c.crowd.SimilarArtists(ctx, name)
		if err != nil {
			return nil, err
		}
		results := make([]similarity.ArtistResult, len(matches))
		for i, m := range matches {
			results[i] = similarity.ArtistResult{Name: m.Artist, Score: int(m.Score)}
		}
		return results, nil
	}); err != nil {
		logger.Warn("crowd artist refresh failed", logging.Error(err))
	}

	matches, err := c.store.ArtistMatches(ctx, artist.ID)
	if err != nil {
		logger.Warn("artist match lookup failed", logging.Error(err))
		return merge.NewSliceStream(nil)
	}

	var (
		pos     int
		pending []*similarity.Track
		score   float64
	)
	return merge.FuncStream(func() (merge.Candidate, bool) {
		for {
			if len(pending) > 0 {
				peer := pending[0]
				pending = pending[1:]
				return merge.Candidate{
					Score:  score,
					Artist: peer.Artist,
					Title:  peer.Title,
					Source: sourceCrowdArtist,
				}, true
			}
			if pos >= len(matches) {
				return merge.Candidate{}, false
			}
			m := matches[pos]
			pos++
			ids, err := c.store.TracksByArtist(ctx, m.ToID)
			if err != nil {
				continue
			}
			score = float64(similarity.MaxMatchScore - m.Score)
			for _, id := range ids {
				if peer, err := c.store.TrackByID(ctx, id); err == nil && peer != nil {
					pending = append(pending, peer)
				}
			}
		}
	})
}

// tagStream searches the player by the seed's tags and scores results by tag
// overlap. This is the last resort source and the only one that works with
// an empty similarity store.
func (c *Controller) tagStream(ctx context.Context, seed player.Song, logger *slog.Logger) merge.Stream {
	tags := seed.Tags()
	if len(tags) == 0 {
		return merge.NewSliceStream(nil)
	}

	songs, err := c.player.Search(ctx, player.Query{Tags: tags})
	if err != nil {
		logger.Warn("tag search failed", logging.Error(err))
		return merge.NewSliceStream(nil)
	}

	seedSet := tagSet(tags)
	candidates := make([]merge.Candidate, 0, len(songs))
	for _, song := range songs {
		if strings.EqualFold(song.Artist(), seed.Artist()) && strings.EqualFold(song.Title(), seed.Title()) {
			continue
		}
		match := tagOverlapScore(seedSet, tagSet(song.Tags()))
		if match == 0 {
			continue
		}
		candidates = append(candidates, merge.Candidate{
			Score:    float64(similarity.MaxMatchScore - match),
			Artist:   song.Artist(),
			Title:    song.Title(),
			Filename: song.Filename(),
			Tags:     song.Tags(),
			Source:   sourceTags,
			Loved:    song.Loved(),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score < candidates[j].Score })
	return merge.NewSliceStream(candidates)
}

func (c *Controller) queuedTrackIDs(ctx context.Context) ([]int64, error) {
	queued, err := c.player.QueuedSongs(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(queued))
	for _, song := range queued {
		track, err := c.store.GetOrCreateTrack(ctx, song.Artist(), song.Title())
		if err != nil {
			return nil, err
		}
		ids = append(ids, track.ID)
	}
	return ids, nil
}

func tagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	return set
}

// tagOverlapScore maps Jaccard overlap of two tag sets onto [0, 10000].
func tagOverlapScore(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for t := range a {
		if _, ok := b[t]; ok {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	if union == 0 {
		return 0
	}
	return shared * similarity.MaxMatchScore / union
}
