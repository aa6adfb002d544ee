package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/gradualtype/tycheck/internal/diag"
	"github.com/gradualtype/tycheck/internal/modname"
	"github.com/gradualtype/tycheck/internal/pyast"
)

func sampleDiagnostics() []diag.Diagnostic {
	collector := diag.NewCollector(modname.NewName("pkg.mod"), modname.NewFilesystemPath("pkg/mod.py"), nil)
	collector.Errorf(diag.UnknownName, pyast.Range{Start: 1, End: 4}, "name 'x' is not defined", nil)
	return collector.Diagnostics()
}

func TestJSONRoundTripsLegacyShape(t *testing.T) {
	out, err := JSON(sampleDiagnostics(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(out, &rows); err != nil {
		t.Fatalf("unexpected error unmarshaling: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	if rows[0]["name"] != string(diag.UnknownName) {
		t.Fatalf("unexpected name: %v", rows[0]["name"])
	}
	if rows[0]["path"] != "pkg/mod.py" {
		t.Fatalf("unexpected path: %v", rows[0]["path"])
	}
}

func TestJSONEmptyListEncodesAsEmptyArray(t *testing.T) {
	out, err := JSON(nil, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "[]" {
		t.Fatalf("expected an empty JSON array, got %s", out)
	}
}

func TestTerminalPrintReportsNoErrorsWhenEmpty(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)
	if term.Print(nil) {
		t.Fatal("expected hadErrors=false for an empty diagnostic list")
	}
	if !bytes.Contains(buf.Bytes(), []byte("No errors!")) {
		t.Fatalf("expected a no-errors message, got %q", buf.String())
	}
}

func TestTerminalPrintReportsErrorsWhenPresent(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)
	if !term.Print(sampleDiagnostics()) {
		t.Fatal("expected hadErrors=true for a non-empty diagnostic list")
	}
	if !bytes.Contains(buf.Bytes(), []byte("pkg/mod.py")) {
		t.Fatalf("expected the diagnostic's path in the output, got %q", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("Found 1 error")) {
		t.Fatalf("expected a one-error summary, got %q", buf.String())
	}
}
