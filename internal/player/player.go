// Package player defines the host-player contract: how queued songs are
// described, searched for, and enqueued. The daemon never talks to a player
// protocol directly; the host supplies an implementation.
package player

import (
	"context"
	"time"
)

// Song is the capability view of a playable track. Implementations wrap
// whatever the host player uses internally.
type Song interface {
	Artist() string
	Title() string
	Filename() string
	Tags() []string
	Rating() float64
	Loved() bool
	Duration() time.Duration
}

// Query narrows a player search. Empty fields are unconstrained; how the
// player turns the fields into a search string is its own business.
type Query struct {
	Artist string
	Title  string
	Tags   []string
}

// Player is the host player surface the queue controller drives.
type Player interface {
	// Search resolves a query to playable songs; an empty result is not an
	// error.
	Search(ctx context.Context, q Query) ([]Song, error)
	Enqueue(ctx context.Context, song Song) error
	QueuedSongs(ctx context.Context) ([]Song, error)
	QueueSeconds(ctx context.Context) (int, error)
}
