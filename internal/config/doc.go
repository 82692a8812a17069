// Package config loads, normalizes, and validates collectord configuration.
//
// Configuration is TOML. Load resolves the config path (explicit flag, then
// ~/.config/collectord/config.toml, then ./collectord.toml), applies defaults
// for any omitted fields, expands ~ in path values, and validates the result.
// A sample config is embedded for 'collectord config init'.
package config
