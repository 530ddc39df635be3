// Package config defines the snapback-server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values and the flattened defaults map for the loader
//   - verify.go: validation
//   - sanitize.go: masking for safe logging
//
// Configuration is loaded via internal/infra/confloader from a YAML file,
// SNAPBACK_ environment variables and command-line overrides.
package config
