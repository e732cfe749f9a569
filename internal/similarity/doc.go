// Package similarity persists artists, tracks, pairwise match scores,
// acoustic fingerprints, and the nearest-neighbour distance index in SQLite.
//
// Artist and track lookups use get-or-create semantics over case-normalized
// natural keys, so repeated inserts of the same name are idempotent. Pairwise
// match rows are directional; readers that want an undirected view take the
// maximum of both directions. Crowd-sourced match lists carry an updated
// timestamp and are refetched through a caller-supplied fetch function once
// they age past the configured cache horizon.
//
// The store is the single owner of its SQLite handle. Operations use
// short-lived statements or transactions; nothing holds a connection across a
// whole queueing decision.
package similarity
