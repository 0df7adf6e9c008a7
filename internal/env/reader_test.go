package env

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"go.uber.org/multierr"
)

func TestReaderStringAndOptional(t *testing.T) {
	r := NewReader(Map{"SET": "value", "EMPTY": ""})

	if got := r.String("SET", "def"); got != "value" {
		t.Fatalf("expected value, got %q", got)
	}
	if got := r.String("EMPTY", "def"); got != "" {
		t.Fatalf("expected present empty value to win, got %q", got)
	}
	if got := r.String("MISSING", "def"); got != "def" {
		t.Fatalf("expected default, got %q", got)
	}
	if r.Optional("MISSING") != nil {
		t.Fatalf("expected nil for absent variable")
	}
	if p := r.Optional("EMPTY"); p == nil || *p != "" {
		t.Fatalf("expected pointer to empty string, got %v", p)
	}
	if err := r.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReaderFlag(t *testing.T) {
	r := NewReader(Map{"ON": "1", "OFF": "0", "TEXT": "true", "PADDED": " 1 "})

	cases := []struct {
		name string
		def  bool
		want bool
	}{
		{"ON", false, true},
		{"OFF", true, false},
		{"TEXT", true, false},
		{"PADDED", false, true},
		{"MISSING", true, true},
		{"MISSING", false, false},
	}
	for _, tc := range cases {
		if got := r.Flag(tc.name, tc.def); got != tc.want {
			t.Fatalf("Flag(%s, %v) = %v, want %v", tc.name, tc.def, got, tc.want)
		}
	}
}

func TestReaderRequiredCollectsAllMissing(t *testing.T) {
	r := NewReader(Map{"PRESENT": "x"})

	r.Required("PRESENT")
	r.Required("FIRST")
	r.Required("SECOND")

	err := r.Err()
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, ErrMissing) {
		t.Fatalf("expected ErrMissing, got %v", err)
	}
	if n := len(multierr.Errors(err)); n != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", n, err)
	}
}

func TestReaderInt(t *testing.T) {
	r := NewReader(Map{"PORT": " 587 ", "BAD": "abc"})

	if got := r.Int("PORT", 25); got != 587 {
		t.Fatalf("expected 587, got %d", got)
	}
	if got := r.Int("MISSING", 25); got != 25 {
		t.Fatalf("expected default 25, got %d", got)
	}
	if got := r.Int("BAD", 25); got != 25 {
		t.Fatalf("expected fallback to default on error, got %d", got)
	}
	if !errors.Is(r.Err(), ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", r.Err())
	}
}

func TestReaderIntDecimal(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: "025", want: 25},
		{raw: "0587", want: 587},
		{raw: "0", want: 0},
		{raw: "000", want: 0},
		{raw: "-010", want: -10},
		{raw: "+8", want: 8},
		{raw: "0x19", wantErr: true},
		{raw: "0o17", wantErr: true},
		{raw: "0b1", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			r := NewReader(Map{"PORT": tt.raw})
			got := r.Int("PORT", -1)
			if tt.wantErr {
				if !errors.Is(r.Err(), ErrMalformed) {
					t.Fatalf("expected ErrMalformed for %q, got %d", tt.raw, got)
				}
				return
			}
			if r.Err() != nil {
				t.Fatalf("unexpected error: %v", r.Err())
			}
			if got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestReaderList(t *testing.T) {
	r := NewReader(Map{"HOSTS": "a.example, b.example,,", "EMPTY": ""})

	if got := r.List("HOSTS", nil); !slices.Equal(got, []string{"a.example", "b.example"}) {
		t.Fatalf("unexpected list: %v", got)
	}
	if got := r.List("EMPTY", []string{"*"}); len(got) != 0 {
		t.Fatalf("expected empty list for empty value, got %v", got)
	}

	def := []string{"*"}
	got := r.List("MISSING", def)
	got[0] = "mutated"
	if def[0] != "*" {
		t.Fatalf("expected default to be copied")
	}
}

func TestReaderMap(t *testing.T) {
	def := map[string]string{"full_name": "name", "email": "mail"}

	t.Run("default when absent or empty", func(t *testing.T) {
		r := NewReader(Map{"EMPTY": ""})
		if got := r.Map("MISSING", def); len(got) != 2 || got["email"] != "mail" {
			t.Fatalf("unexpected map: %v", got)
		}
		if got := r.Map("EMPTY", def); len(got) != 2 {
			t.Fatalf("unexpected map: %v", got)
		}
	})

	t.Run("parses pairs", func(t *testing.T) {
		r := NewReader(Map{"ATTRS": "full_name:cn, email:userPrincipalName"})
		got := r.Map("ATTRS", def)
		if got["full_name"] != "cn" || got["email"] != "userPrincipalName" || len(got) != 2 {
			t.Fatalf("unexpected map: %v", got)
		}
		if r.Err() != nil {
			t.Fatalf("unexpected error: %v", r.Err())
		}
	})

	t.Run("rejects malformed items", func(t *testing.T) {
		r := NewReader(Map{"ATTRS": "full_name,email:mail:x"})
		r.Map("ATTRS", def)
		if n := len(multierr.Errors(r.Err())); n != 2 {
			t.Fatalf("expected 2 errors, got %d", n)
		}
	})
}

func TestChainFirstHitWins(t *testing.T) {
	src := Chain(Map{"A": "first"}, nil, Map{"A": "second", "B": "only"})

	if v, _ := src.Lookup("A"); v != "first" {
		t.Fatalf("expected first, got %s", v)
	}
	if v, _ := src.Lookup("B"); v != "only" {
		t.Fatalf("expected only, got %s", v)
	}
	if _, ok := src.Lookup("C"); ok {
		t.Fatalf("expected miss")
	}
}

func TestOSSource(t *testing.T) {
	t.Setenv("WEBLATE_SETTINGS_TEST_VAR", "x")

	if v, ok := OS().Lookup("WEBLATE_SETTINGS_TEST_VAR"); !ok || v != "x" {
		t.Fatalf("expected value from process environment, got %q %v", v, ok)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "environment")
	content := "# comment\nPOSTGRES_HOST=database\nWEBLATE_ADMIN_NAME=\"Weblate Admin\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	m, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if m["POSTGRES_HOST"] != "database" {
		t.Fatalf("unexpected POSTGRES_HOST: %q", m["POSTGRES_HOST"])
	}
	if m["WEBLATE_ADMIN_NAME"] != "Weblate Admin" {
		t.Fatalf("unexpected WEBLATE_ADMIN_NAME: %q", m["WEBLATE_ADMIN_NAME"])
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
