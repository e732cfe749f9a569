package similarity

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Artist is a stored artist row. Updated is nil until crowd-sourced
// neighbours have been fetched at least once.
type Artist struct {
	ID      int64
	Name    string
	Updated *time.Time
}

// Track is a stored track row, keyed by (artist, title).
type Track struct {
	ID       int64
	ArtistID int64
	Artist   string
	Title    string
	Updated  *time.Time
}

// Match is a directional pairwise similarity score in [0, 10000].
type Match struct {
	FromID int64
	ToID   int64
	Score  int
}

// Edge is one entry of a track's neighbour index. Incoming edges point at
// the track from another track's maintenance pass.
type Edge struct {
	TrackID  int64
	OtherID  int64
	Distance int64
	Incoming bool
}

// MaxMatchScore bounds pairwise match scores.
const MaxMatchScore = 10000

// distanceScale converts the float divergence into the stored integer
// distance, keeping two decimal places.
const distanceScale = 100

// NormalizeName canonicalizes a natural key: unicode NFKC, lower case,
// collapsed inner whitespace.
func NormalizeName(name string) string {
	folded := norm.NFKC.String(name)
	folded = strings.ToLower(strings.TrimSpace(folded))
	return strings.Join(strings.Fields(folded), " ")
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > MaxMatchScore {
		return MaxMatchScore
	}
	return score
}
