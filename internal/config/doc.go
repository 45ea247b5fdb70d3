// Package config loads, normalizes, and validates mural's TOML
// configuration. Defaults are applied first, then the on-disk file is
// decoded over them, then paths are expanded and values are checked so the
// rest of the system can treat the Config as trusted input.
package config
