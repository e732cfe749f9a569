// Package config loads and validates cadence configuration from TOML.
//
// Configuration is resolved from an explicit path or the default location
// under ~/.config/cadence/config.toml, falling back to repository defaults
// when no file exists. Paths support ~ expansion. Validation runs after
// loading so every consumer can trust the values it receives.
package config
