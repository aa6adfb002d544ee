package checkconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "tycheck.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadParsesBaseFields(t *testing.T) {
	path := writeConfig(t, `
python_version: "3.10"
platform: darwin
search_paths:
  - /src
  - /vendor
`)
	f, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, err := f.BaseConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Runtime.PythonVersion != [3]int{3, 10, 0} {
		t.Fatalf("unexpected version: %v", cfg.Runtime.PythonVersion)
	}
	if cfg.Runtime.Platform != "darwin" {
		t.Fatalf("unexpected platform: %q", cfg.Runtime.Platform)
	}
	if len(cfg.SearchPaths) != 2 {
		t.Fatalf("unexpected search paths: %v", cfg.SearchPaths)
	}
}

func TestConfigForAppliesLongestMatchingOverride(t *testing.T) {
	path := writeConfig(t, `
platform: linux
search_paths: ["/src"]
overrides:
  /src/legacy:
    python_version: "3.8"
  /src/legacy/vendored:
    python_version: "3.6"
`)
	f, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, err := f.ConfigFor("/src/legacy/vendored/thing.py")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Runtime.PythonVersion[1] != 6 {
		t.Fatalf("expected the deeper override to win, got %v", cfg.Runtime.PythonVersion)
	}

	cfg, err = f.ConfigFor("/src/legacy/other.py")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Runtime.PythonVersion[1] != 8 {
		t.Fatalf("expected the shallower override to apply, got %v", cfg.Runtime.PythonVersion)
	}
}

func TestConfigForFallsBackToBaseOutsideOverrides(t *testing.T) {
	path := writeConfig(t, `
platform: linux
overrides:
  /src/legacy:
    python_version: "3.8"
`)
	f, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, err := f.ConfigFor("/other/mod.py")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Runtime.PythonVersion != [3]int{3, 11, 0} {
		t.Fatalf("expected default python version, got %v", cfg.Runtime.PythonVersion)
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
