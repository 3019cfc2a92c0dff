// Package config loads and validates Marquee's TOML configuration.
package config
