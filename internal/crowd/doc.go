// Package crowd defines the crowd-sourced similarity contract and the
// rate-limit wrapper applied to any network-backed implementation.
package crowd
