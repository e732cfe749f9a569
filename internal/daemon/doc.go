// Package daemon ties the queue controller to a running player: it polls for
// song changes, keeps the queue topped up, and enforces single-instance
// execution with a file lock.
package daemon
