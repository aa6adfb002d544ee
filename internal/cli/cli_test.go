package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestCheckReportsParseErrorsThroughStubParser(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mod.py")
	if err := os.WriteFile(path, []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stderr bytes.Buffer
	code := Check(context.Background(), []string{path}, Options{}, nil, &stderr)
	if code != ExitTypeErrors {
		t.Fatalf("expected ExitTypeErrors (no real parser is wired in), got %d; stderr=%s", code, stderr.String())
	}
	if !bytes.Contains(stderr.Bytes(), []byte("Found 1 error")) {
		t.Fatalf("expected a one-error summary, got %q", stderr.String())
	}
}

func TestCheckRequiresAtLeastOneFile(t *testing.T) {
	var stderr bytes.Buffer
	code := Check(context.Background(), nil, Options{}, nil, &stderr)
	if code != ExitFailure {
		t.Fatalf("expected ExitFailure for no input files, got %d", code)
	}
}

func TestBuckCheckWritesLegacyJSONOutput(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "mod.py")
	if err := os.WriteFile(srcPath, []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	manifestPath := filepath.Join(dir, "sources.manifest")
	if err := os.WriteFile(manifestPath, []byte("mod\t"+srcPath+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	inputPath := filepath.Join(dir, "input.json")
	input := `{"sources": ["` + manifestPath + `"], "dependencies": [], "typeshed": [], "py_version": "3.11"}`
	if err := os.WriteFile(inputPath, []byte(input), 0o644); err != nil {
		t.Fatal(err)
	}
	outputPath := filepath.Join(dir, "out.json")

	var stderr bytes.Buffer
	code := BuckCheck(context.Background(), inputPath, outputPath, Options{}, &stderr)
	if code != ExitTypeErrors {
		t.Fatalf("expected ExitTypeErrors, got %d; stderr=%s", code, stderr.String())
	}

	out, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("expected output file to be written: %v", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(out, &rows); err != nil {
		t.Fatalf("expected valid JSON, got %s: %v", out, err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one diagnostic row, got %d", len(rows))
	}
}

func TestBuckCheckReusesCacheOnSecondRunWithOutputDir(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "mod.py")
	if err := os.WriteFile(srcPath, []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	manifestPath := filepath.Join(dir, "sources.manifest")
	if err := os.WriteFile(manifestPath, []byte("mod\t"+srcPath+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	inputPath := filepath.Join(dir, "input.json")
	input := `{"sources": ["` + manifestPath + `"], "dependencies": [], "typeshed": [], "py_version": "3.11"}`
	if err := os.WriteFile(inputPath, []byte(input), 0o644); err != nil {
		t.Fatal(err)
	}
	outputPath := filepath.Join(dir, "out.json")
	opts := Options{OutputDir: dir}

	var stderr bytes.Buffer
	if code := BuckCheck(context.Background(), inputPath, outputPath, opts, &stderr); code != ExitTypeErrors {
		t.Fatalf("first run: expected ExitTypeErrors, got %d; stderr=%s", code, stderr.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "answers.sqlite")); err != nil {
		t.Fatalf("expected an on-disk answer cache to be created: %v", err)
	}

	stderr.Reset()
	if code := BuckCheck(context.Background(), inputPath, outputPath, opts, &stderr); code != ExitTypeErrors {
		t.Fatalf("second (warm) run: expected ExitTypeErrors, got %d; stderr=%s", code, stderr.String())
	}

	out, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("expected output file to be written: %v", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(out, &rows); err != nil {
		t.Fatalf("expected valid JSON, got %s: %v", out, err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected the warm run to still report one diagnostic (served from cache), got %d", len(rows))
	}
}

func TestModuleNameForPathStripsDirAndExtension(t *testing.T) {
	if got := moduleNameForPath("a/b/c.py"); got != "c" {
		t.Fatalf("unexpected module name: %q", got)
	}
	if got := moduleNameForPath("c.py"); got != "c" {
		t.Fatalf("unexpected module name: %q", got)
	}
}
