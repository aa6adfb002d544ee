package answercache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gradualtype/tycheck/internal/answers"
	"github.com/gradualtype/tycheck/internal/diag"
	"github.com/gradualtype/tycheck/internal/modname"
	"github.com/gradualtype/tycheck/internal/pyast"
)

func testHandle() modname.Handle {
	cfg := modname.NewConfig(modname.NewRuntimeMetadata(), "/src")
	return modname.NewHandle(modname.NewName("pkg.mod"), cfg, "first-party")
}

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	path := filepath.Join(t.TempDir(), "answers.sqlite")
	c, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error opening cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestLookupMissReportsNotOK(t *testing.T) {
	c := openTestCache(t)
	h := testHandle()
	_, ok, err := c.Lookup(context.Background(), h, "digest-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected a miss on an empty cache")
	}
}

func TestPutThenLookupRoundTripsDiagnostics(t *testing.T) {
	c := openTestCache(t)
	h := testHandle()

	collector := diag.NewCollector(h.Module, modname.NewFilesystemPath("pkg/mod.py"), nil)
	collector.Errorf(diag.AssignmentTypeMismatch, pyast.Range{Start: 3, End: 9}, "expected str, got int", nil)
	a := answers.Answers{Diagnostics: collector.Diagnostics()}

	if err := c.Put(context.Background(), h, "digest-1", a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok, err := c.Lookup(context.Background(), h, "digest-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected a hit after Put with the matching digest")
	}
	if len(got) != 1 || got[0].Code != diag.AssignmentTypeMismatch {
		t.Fatalf("unexpected diagnostics: %+v", got)
	}
}

func TestLookupDigestMismatchReportsNotOK(t *testing.T) {
	c := openTestCache(t)
	h := testHandle()
	a := answers.Answers{}
	if err := c.Put(context.Background(), h, "digest-1", a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, ok, err := c.Lookup(context.Background(), h, "digest-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected a stale digest to miss")
	}
}

func TestInvalidateRemovesEntry(t *testing.T) {
	c := openTestCache(t)
	h := testHandle()
	if err := c.Put(context.Background(), h, "digest-1", answers.Answers{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Invalidate(context.Background(), h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, ok, err := c.Lookup(context.Background(), h, "digest-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected Invalidate to remove the cached row")
	}
}
