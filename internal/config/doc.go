// Package config loads, normalizes, and validates sigmatch configuration.
//
// Configuration is a TOML file, by default at ~/.config/sigmatch/config.toml,
// with a project-local sigmatch.toml fallback. Load always starts from
// Default so omitted keys keep repository defaults.
package config
