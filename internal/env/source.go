package env

import (
	"fmt"
	"os"

	"github.com/subosito/gotenv"
)

// Source looks up raw environment values.
type Source interface {
	Lookup(name string) (string, bool)
}

type osSource struct{}

// OS returns a Source backed by the process environment.
func OS() Source {
	return osSource{}
}

func (osSource) Lookup(name string) (string, bool) {
	return os.LookupEnv(name)
}

// Map is a Source backed by a plain map.
type Map map[string]string

// Lookup implements Source.
func (m Map) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

type chain []Source

// Chain consults sources in order and returns the first hit.
func Chain(sources ...Source) Source {
	out := make(chain, 0, len(sources))
	for _, src := range sources {
		if src != nil {
			out = append(out, src)
		}
	}
	return out
}

func (c chain) Lookup(name string) (string, bool) {
	for _, src := range c {
		if v, ok := src.Lookup(name); ok {
			return v, true
		}
	}
	return "", false
}

// LoadFile parses a dotenv file such as the environment file handed to
// docker compose.
func LoadFile(path string) (Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open env file: %w", err)
	}
	defer f.Close()

	parsed, err := gotenv.StrictParse(f)
	if err != nil {
		return nil, fmt.Errorf("parse env file %s: %w", path, err)
	}
	return Map(parsed), nil
}
