// Package config loads, normalizes, and validates deckpatch's TOML
// configuration. Defaults work out of the box; a config file at
// ~/.config/deckpatch/config.toml or ./deckpatch.toml overrides them.
package config
