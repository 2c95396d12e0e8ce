// Package config handles configuration loading and management for factcheck.
//
// It provides functionality for:
//   - Loading configuration from .factcheck.json, factcheck.config.json or .factcheckrc
//   - Default configuration values
//   - Merging a file configuration with explicitly set flags
package config
