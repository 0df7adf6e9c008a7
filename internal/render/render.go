// Package render writes resolved settings in the formats consumers need: a
// Django settings module for Weblate itself, data documents (JSON, YAML,
// TOML) for tooling, and a dotenv file that reproduces the environment.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/weblate-settings/internal/settings"
)

// Format names an output format.
type Format string

const (
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatTOML   Format = "toml"
	FormatPython Format = "python"
	FormatEnv    Format = "env"
)

// ErrUnknownFormat is returned for a format name ParseFormat does not know.
var ErrUnknownFormat = errors.New("unknown format")

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatTOML, FormatPython, FormatEnv}
}

// ParseFormat maps a user supplied name, including common aliases, to a
// Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	case "python", "py", "django":
		return FormatPython, nil
	case "env", "dotenv":
		return FormatEnv, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// ContentType returns the media type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	case FormatTOML:
		return "application/toml"
	case FormatPython:
		return "text/x-python; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Options tune rendering.
type Options struct {
	// IncludeSecrets disables redaction.
	IncludeSecrets bool
	// OverrideHook appends the settings-override.py exec block to Python
	// output.
	OverrideHook bool
}

// Render writes s to w in format f.
func Render(w io.Writer, s *settings.Settings, f Format, opts Options) error {
	if !opts.IncludeSecrets {
		redacted, err := s.Redacted()
		if err != nil {
			return err
		}
		s = redacted
	}

	switch f {
	case FormatJSON:
		return renderJSON(w, s)
	case FormatYAML:
		return renderYAML(w, s)
	case FormatTOML:
		return renderTOML(w, s)
	case FormatPython:
		return renderPython(w, s, opts)
	case FormatEnv:
		return renderEnv(w, s)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// Tree converts s into generic maps keyed by the yaml field names. Every data
// format is produced from the tree so key names stay identical across them.
func Tree(s *settings.Settings) (map[string]any, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode settings tree: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("decode settings tree: %w", err)
	}
	return tree, nil
}

func renderJSON(w io.Writer, s *settings.Settings) error {
	tree, err := Tree(s)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tree); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func renderYAML(w io.Writer, s *settings.Settings) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return nil
}

func renderTOML(w io.Writer, s *settings.Settings) error {
	tree, err := Tree(s)
	if err != nil {
		return err
	}
	// TOML has no null; absent keys carry the same meaning.
	dropNulls(tree)
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	if err := enc.Encode(tree); err != nil {
		return fmt.Errorf("encode toml: %w", err)
	}
	return nil
}

func dropNulls(v any) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if child == nil {
				delete(t, k)
				continue
			}
			dropNulls(child)
		}
	case []any:
		for _, child := range t {
			dropNulls(child)
		}
	}
}
