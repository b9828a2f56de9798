package testutil

import (
	"embed"
	"os"
	"path/filepath"
	"testing"

	"github.com/firefly-engineering/flatjail/internal/config"
	"github.com/firefly-engineering/flatjail/internal/metadata"
)

//go:embed fixtures/*
var fixturesFS embed.FS

// LoadFixture loads a fixture file by name.
func LoadFixture(name string) ([]byte, error) {
	return fixturesFS.ReadFile("fixtures/" + name)
}

// WriteFixture copies a fixture into dir and returns its path.
func WriteFixture(t *testing.T, name, dir string) string {
	t.Helper()

	data, err := LoadFixture(name)
	if err != nil {
		t.Fatalf("Failed to load fixture %s: %v", name, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", path, err)
	}
	return path
}

// LoadConfigFixture loads a TOML config fixture for a fixed test identity.
func LoadConfigFixture(t *testing.T, name string) (*config.Config, error) {
	t.Helper()

	home := t.TempDir()
	path := WriteFixture(t, name, t.TempDir())
	env := map[string]string{"HOME": home, "SUDO_USER": "alice", "SUDO_UID": "1001"}
	return config.Load(path, func(k string) string { return env[k] })
}

// CalculatorMetadata returns the parsed calculator app metadata fixture.
func CalculatorMetadata() (*metadata.Metadata, error) {
	data, err := LoadFixture("calculator.metadata")
	if err != nil {
		return nil, err
	}
	return metadata.Parse(data)
}
