// Package override applies an operator supplied document on top of resolved
// settings. It replaces the settings-override.py exec hook for consumers that
// cannot run Python.
package override

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/weblate-settings/internal/settings"
)

// Candidates are the file names looked up in the data directory, in order.
var Candidates = []string{
	"settings-override.yaml",
	"settings-override.yml",
	"settings-override.json",
	"settings-override.toml",
}

// PythonHook is the file the generated Django module executes when present.
const PythonHook = "settings-override.py"

var (
	// ErrFormat is returned for an extension Apply cannot decode.
	ErrFormat = errors.New("unsupported override format")
	// ErrDecode wraps parse failures and unknown keys.
	ErrDecode = errors.New("decode override")
)

// Find returns the first override candidate present in dataDir, or "".
func Find(dataDir string) string {
	for _, name := range Candidates {
		path := filepath.Join(dataDir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Apply decodes the file at path onto s. Keys absent from the file keep their
// resolved values, maps are merged per key, lists and scalars are replaced.
// A missing file is not an error and reports applied=false.
func Apply(s *settings.Settings, path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read override: %w", err)
	}
	return Decode(s, data, filepath.Ext(path))
}

// Decode applies data in the format named by ext (".yaml", ".yml", ".json"
// or ".toml") onto s.
func Decode(s *settings.Settings, data []byte, ext string) (bool, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml", ".json":
	case ".toml":
		converted, err := tomlToYAML(data)
		if err != nil {
			return false, err
		}
		data = converted
	default:
		return false, fmt.Errorf("%w: %q", ErrFormat, ext)
	}

	secret := s.SecretKey
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if s.SecretKey != secret {
		s.SecretSource = settings.SecretFromOverride
	}
	return true, nil
}

func tomlToYAML(data []byte) ([]byte, error) {
	var tree map[string]any
	if err := toml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if len(tree) == 0 {
		return nil, nil
	}
	out, err := yaml.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return out, nil
}
