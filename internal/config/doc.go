// Package config loads and validates the engine's runtime configuration.
//
// Values are gathered from three sources and merged in priority order:
// environment variables, command-line flags, and an optional JSON file.
// Missing values are filled from built-in defaults as the last step, so a
// bare `loreleaf` invocation starts with a usable local setup.
package config
