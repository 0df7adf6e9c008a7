// Package config loads the tool's own runtime configuration from multiple
// sources (YAML files, environment variables, CLI flags) with precedence:
// CLI flags > YAML config > Environment variables > Defaults. The Weblate
// environment contract itself is read by package settings, not here.
package config
