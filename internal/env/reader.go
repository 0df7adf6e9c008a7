package env

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"go.uber.org/multierr"
)

// Reader resolves typed values from a Source and accumulates errors.
type Reader struct {
	src  Source
	errs error
}

// NewReader wraps src. A nil source behaves like an empty environment.
func NewReader(src Source) *Reader {
	if src == nil {
		src = Map(nil)
	}
	return &Reader{src: src}
}

// Has reports whether the variable is present, even when empty.
func (r *Reader) Has(name string) bool {
	_, ok := r.src.Lookup(name)
	return ok
}

// Lookup returns the raw value.
func (r *Reader) Lookup(name string) (string, bool) {
	return r.src.Lookup(name)
}

// String returns the value when present (empty included) or def.
func (r *Reader) String(name, def string) string {
	if v, ok := r.src.Lookup(name); ok {
		return v
	}
	return def
}

// Optional returns nil when the variable is absent.
func (r *Reader) Optional(name string) *string {
	v, ok := r.src.Lookup(name)
	if !ok {
		return nil
	}
	return &v
}

// Required returns the value and records ErrMissing when it is absent.
func (r *Reader) Required(name string) string {
	v, ok := r.src.Lookup(name)
	if !ok {
		r.fail(fmt.Errorf("%w: %s", ErrMissing, name))
		return ""
	}
	return v
}

// Flag follows the "1 means on" convention; def applies when absent.
func (r *Reader) Flag(name string, def bool) bool {
	v, ok := r.src.Lookup(name)
	if !ok {
		return def
	}
	return strings.TrimSpace(v) == "1"
}

// Int parses a base 10 integer value, recording ErrMalformed on failure.
// Leading zeros are allowed and radix prefixes are not.
func (r *Reader) Int(name string, def int) int {
	v, ok := r.src.Lookup(name)
	if !ok {
		return def
	}
	n, err := cast.ToIntE(decimal(strings.TrimSpace(v)))
	if err != nil {
		r.fail(fmt.Errorf("%w: %s=%q is not an integer", ErrMalformed, name, v))
		return def
	}
	return n
}

// List splits a comma separated value. Empty items are dropped.
func (r *Reader) List(name string, def []string) []string {
	v, ok := r.src.Lookup(name)
	if !ok {
		return clone(def)
	}
	return splitList(v)
}

// Map parses "key:value,key:value". An absent or empty variable yields def.
func (r *Reader) Map(name string, def map[string]string) map[string]string {
	v, ok := r.src.Lookup(name)
	if !ok || strings.TrimSpace(v) == "" {
		out := make(map[string]string, len(def))
		for k, val := range def {
			out[k] = val
		}
		return out
	}

	out := make(map[string]string)
	for _, item := range splitList(v) {
		parts := strings.Split(item, ":")
		if len(parts) != 2 {
			r.fail(fmt.Errorf("%w: %s item %q must be key:value", ErrMalformed, name, item))
			continue
		}
		out[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return out
}

// Err returns every error recorded so far, combined.
func (r *Reader) Err() error {
	return r.errs
}

func (r *Reader) fail(err error) {
	r.errs = multierr.Append(r.errs, err)
}

// decimal strips leading zeros so cast does not read the value as octal. A
// "0x", "0o" or "0b" prefix is left without its zero and fails to parse.
func decimal(v string) string {
	sign := ""
	if v != "" && (v[0] == '+' || v[0] == '-') {
		sign, v = v[:1], v[1:]
	}
	if !strings.HasPrefix(v, "0") {
		return sign + v
	}
	v = strings.TrimLeft(v, "0")
	if v == "" {
		v = "0"
	}
	return sign + v
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func clone(src []string) []string {
	if src == nil {
		return []string{}
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}
