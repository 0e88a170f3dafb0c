// Package config loads, normalizes, and validates the TOML configuration
// shared by the daemon and the CLI. Path fields are tilde-expanded and made
// absolute during Load; secrets fall back to environment variables when not
// present in the file.
package config
