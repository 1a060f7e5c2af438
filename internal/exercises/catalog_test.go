package exercises

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestNormalize verifies names reduce to lowercase ASCII alphanumerics.
func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"Push-ups":          "pushups",
		"Bench Press":       "benchpress",
		"  Romanian DL (3)": "romaniandl3",
		"Übung":             "bung",
		"":                  "",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestDefaultCatalogCoversFallbackExercises verifies every exercise in the
// fallback workout has metadata.
func TestDefaultCatalogCoversFallbackExercises(t *testing.T) {
	c := Default()
	for _, name := range []string{"Dynamic Stretching", "Squats", "Push-ups", "Static Stretching"} {
		ex, ok := c.Lookup(name)
		if !ok {
			t.Errorf("Lookup(%q) missing", name)
			continue
		}
		if len(ex.Instructions) == 0 {
			t.Errorf("%q has no instructions", name)
		}
	}
}

// TestLookupIsExact verifies there is no fuzzy matching beyond normalisation.
func TestLookupIsExact(t *testing.T) {
	c := Default()
	if _, ok := c.Lookup("squat"); ok {
		t.Error("Lookup(squat) matched squats; want exact match only")
	}
	if _, ok := c.Lookup("SQUATS!"); !ok {
		t.Error("Lookup(SQUATS!) should match after normalisation")
	}
}

// TestLoadFile verifies a catalog file on disk is parsed and keys normalised.
func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exercise_database.json")
	data := `{"exercises": {"Goblet Squat": {"type": "strength", "muscle_groups": ["quadriceps"]}}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ex, ok := c.Lookup("goblet-squat")
	if !ok {
		t.Fatal("goblet squat not found")
	}
	if ex.Name != "Goblet Squat" {
		t.Errorf("name = %q, want key fallback %q", ex.Name, "Goblet Squat")
	}
	if keys := c.Keys(); len(keys) != 1 || keys[0] != "gobletsquat" {
		t.Errorf("keys = %v", keys)
	}
}

// TestParseInvalid verifies malformed input is rejected.
func TestParseInvalid(t *testing.T) {
	if _, err := Parse(strings.NewReader(`{"exercises": [}`)); err == nil {
		t.Error("expected decode error")
	}
	if _, err := Parse(strings.NewReader(`{"exercises": {"--": {}}}`)); err == nil {
		t.Error("expected error for empty key")
	}
}
