// Package queue drives automatic queueing: it reacts to song-start and
// queue-length events, resolves the next song through the candidate merge
// and context engine, and enqueues it on the host player.
package queue
