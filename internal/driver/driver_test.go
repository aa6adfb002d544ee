package driver

import (
	"context"
	"testing"

	"github.com/gradualtype/tycheck/internal/answers"
	"github.com/gradualtype/tycheck/internal/classmodel"
	"github.com/gradualtype/tycheck/internal/diag"
	"github.com/gradualtype/tycheck/internal/loader"
	"github.com/gradualtype/tycheck/internal/modname"
	"github.com/gradualtype/tycheck/internal/pyast"
)

// fixtureParser is a test-only stand-in for the external parser spec §1
// assumes; it recognizes a tiny fixed vocabulary of source strings used by
// the tests below rather than parsing real syntax.
type fixtureParser struct {
	programs map[string][]pyast.Stmt
}

func (p *fixtureParser) Parse(module modname.Name, path modname.Path, source string) ([]pyast.Stmt, []ParseError) {
	if body, ok := p.programs[source]; ok {
		return body, nil
	}
	return nil, []ParseError{{Message: "unrecognized fixture source"}}
}

type fixtureDB struct {
	sources map[string]string
}

func (db *fixtureDB) Resolve(name modname.Name, cfg modname.Config) (modname.Path, string, error) {
	src, ok := db.sources[name.String()]
	if !ok {
		return modname.Path{}, "", errNotFound(name.String())
	}
	return modname.NewFilesystemPath(name.String() + ".py"), src, nil
}

type errNotFound string

func (e errNotFound) Error() string { return "module not found: " + string(e) }

func newTestState(sources map[string]string, programs map[string][]pyast.Stmt) *State {
	l := loader.New(&fixtureDB{sources: sources})
	p := &fixtureParser{programs: programs}
	return NewState(l, p, classmodel.NewRegistry(), answers.NewBuiltins())
}

func TestRunOneShotSingleHandleProducesAnswers(t *testing.T) {
	cfg := modname.NewConfig(modname.NewRuntimeMetadata())
	h := modname.NewHandle(modname.NewName("m"), cfg, "first-party")

	body := []pyast.Stmt{
		pyast.Assign{Targets: []pyast.Expr{pyast.Name{Id: "x"}}, Value: pyast.Constant{Value: int64(1)}},
	}
	s := newTestState(map[string]string{"m": "src-m"}, map[string][]pyast.Stmt{"src-m": body})

	out, err := s.RunOneShot(context.Background(), []modname.Handle{h}, Options{Parallelism: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, ok := out[h]
	if !ok {
		t.Fatal("expected an Answers entry for the root handle")
	}
	if _, ok := a.Exports["x"]; !ok {
		t.Fatalf("expected x to be exported, got %+v", a.Exports)
	}
}

func TestRunOneShotResolvesImportedModule(t *testing.T) {
	cfg := modname.NewConfig(modname.NewRuntimeMetadata())
	hMain := modname.NewHandle(modname.NewName("main"), cfg, "first-party")

	depBody := []pyast.Stmt{
		pyast.AnnAssign{Target: pyast.Name{Id: "n"}, Annotation: pyast.Name{Id: "int"}, Value: pyast.Constant{Value: int64(1)}},
	}
	mainBody := []pyast.Stmt{
		pyast.ImportFrom{Module: "dep", Names: []string{"n"}},
		pyast.Assign{Targets: []pyast.Expr{pyast.Name{Id: "y"}}, Value: pyast.Name{Id: "n"}},
	}

	s := newTestState(
		map[string]string{"main": "src-main", "dep": "src-dep"},
		map[string][]pyast.Stmt{"src-main": mainBody, "src-dep": depBody},
	)

	out, err := s.RunOneShot(context.Background(), []modname.Handle{hMain}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := out[hMain]
	if hasCode(a.Diagnostics, diag.UnknownName) {
		t.Fatalf("expected n to resolve via the imported module, got %+v", a.Diagnostics)
	}
	yt, ok := a.Exports["y"]
	if !ok {
		t.Fatal("expected y to be exported from main")
	}
	_ = yt

	deps := s.Dependencies(hMain)
	if len(deps) != 1 {
		t.Fatalf("expected one dependency edge recorded, got %v", deps)
	}
}

func TestRunOneShotBreaksImportCycle(t *testing.T) {
	cfg := modname.NewConfig(modname.NewRuntimeMetadata())
	hA := modname.NewHandle(modname.NewName("a"), cfg, "first-party")

	bodyA := []pyast.Stmt{pyast.ImportFrom{Module: "b"}}
	bodyB := []pyast.Stmt{pyast.ImportFrom{Module: "a"}}

	s := newTestState(
		map[string]string{"a": "src-a", "b": "src-b"},
		map[string][]pyast.Stmt{"src-a": bodyA, "src-b": bodyB},
	)

	out, err := s.RunOneShot(context.Background(), []modname.Handle{hA}, Options{})
	if err != nil {
		t.Fatalf("expected the cycle to resolve without a fatal error, got %v", err)
	}
	if _, ok := out[hA]; !ok {
		t.Fatal("expected a's analysis to complete despite the import cycle")
	}
}

func TestRunOneShotUnresolvedModuleReportsDiagnostic(t *testing.T) {
	cfg := modname.NewConfig(modname.NewRuntimeMetadata())
	h := modname.NewHandle(modname.NewName("missing"), cfg, "first-party")
	s := newTestState(map[string]string{}, map[string][]pyast.Stmt{})

	out, err := s.RunOneShot(context.Background(), []modname.Handle{h}, Options{})
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if !hasCode(out[h].Diagnostics, diag.UnresolvedImport) {
		t.Fatalf("expected UnresolvedImport diagnostic, got %+v", out[h].Diagnostics)
	}
}

func TestMarkDirtyInvalidatesMemo(t *testing.T) {
	cfg := modname.NewConfig(modname.NewRuntimeMetadata())
	h := modname.NewHandle(modname.NewName("m"), cfg, "first-party")
	body := []pyast.Stmt{pyast.Assign{Targets: []pyast.Expr{pyast.Name{Id: "x"}}, Value: pyast.Constant{Value: int64(1)}}}
	s := newTestState(map[string]string{"m": "src-m"}, map[string][]pyast.Stmt{"src-m": body})

	s.RunOneShot(context.Background(), []modname.Handle{h}, Options{})
	s.MarkDirty(h, true, false)

	s.mu.Lock()
	_, stillMemoized := s.memo[h.Key()]
	s.mu.Unlock()
	if stillMemoized {
		t.Fatal("expected MarkDirty to evict the memo entry")
	}
}

func TestDirtyReflectsMarkDirtyFlags(t *testing.T) {
	cfg := modname.NewConfig(modname.NewRuntimeMetadata())
	h := modname.NewHandle(modname.NewName("m"), cfg, "first-party")
	s := newTestState(map[string]string{"m": "src-m"}, map[string][]pyast.Stmt{"src-m": nil})

	if s.Dirty(h).IsDirty() {
		t.Fatal("expected a never-marked handle to report clean")
	}
	s.MarkDirty(h, true, false)
	if !s.Dirty(h).IsDirty() || !s.Dirty(h).Load {
		t.Fatalf("expected Load dirty flag to be set, got %+v", s.Dirty(h))
	}
}

func hasCode(ds []diag.Diagnostic, code diag.Code) bool {
	for _, d := range ds {
		if d.Code == code {
			return true
		}
	}
	return false
}
