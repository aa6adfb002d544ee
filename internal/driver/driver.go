// Package driver implements spec §4.11/§5: the incremental graph of module
// analyses ("handles"), their dependency edges, and the parallel scheduler
// that drives them to a fixed point. It is grounded on the teacher's
// internal/loader.ModuleLoader (per-key caching under a mutex) and
// internal/module/resolver.go's dependency-walk shape, generalized from a
// single-process interpreter load to the incremental memo/dirty-set model
// pyre2/pyre2/bin/state/handle.rs and dirty.rs describe.
package driver

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-set/v3"
	"golang.org/x/sync/errgroup"

	"github.com/gradualtype/tycheck/internal/answers"
	"github.com/gradualtype/tycheck/internal/diag"
	"github.com/gradualtype/tycheck/internal/loader"
	"github.com/gradualtype/tycheck/internal/modname"
	"github.com/gradualtype/tycheck/internal/pyast"
	"github.com/gradualtype/tycheck/internal/pytype"
)

// Parser is the external collaborator spec §1 assumes the driver is handed:
// "an external parser produces an AST with byte ranges." The driver never
// parses source itself — it resolves text via the loader and passes it to
// whatever Parser the caller wires in (internal/cli for the production
// binary; a fixture parser in tests).
type Parser interface {
	Parse(module modname.Name, path modname.Path, source string) ([]pyast.Stmt, []ParseError)
}

// ParseError reports a failure inside Parser.Parse; the driver turns these
// into diag.ParseError diagnostics rather than failing the whole run.
type ParseError struct {
	Message string
	Range   pyast.Range
}

// DirtyFlags is the two-flag dirty bit spec §4.11 names: dirty_load (the
// module's source changed) and dirty_find (module resolution — its search
// path outcome — changed).
type DirtyFlags struct {
	Load bool
	Find bool
}

func (d DirtyFlags) any() bool { return d.Load || d.Find }

// handleResult is one handle's memoized analysis plus the fatal (non-user)
// error, if any, encountered producing it.
type handleResult struct {
	handle  modname.Handle
	answers answers.Answers
	err     error
}

// State holds spec §4.11's driver state: the memo, the per-handle dirty
// set, and the dependency edges (dependent -> dependency). It is safe for
// concurrent use; a single State is shared by every worker in a run.
type State struct {
	mu      sync.Mutex
	memo    map[string]handleResult
	dirty   map[string]DirtyFlags
	deps    map[string]*set.Set[string] // dependent key -> dependency keys
	handles map[string]modname.Handle   // key -> handle, recovered for iteration

	loader  *loader.Loader
	parser  Parser
	env     pytype.ClassEnv
	classes answers.ClassNames

	// cyclesSeen accumulates handle keys whose analysis hit a back edge
	// during the most recent pass, per spec §5 "Recursion / cycles" — these
	// are recomputed again in the fixed-point loop.
	cyclesSeen *set.Set[string]
}

// NewState builds driver state around a module loader, an external parser,
// and the class environment / bootstrap name table the solver needs.
func NewState(l *loader.Loader, p Parser, env pytype.ClassEnv, classes answers.ClassNames) *State {
	return &State{
		memo:       map[string]handleResult{},
		dirty:      map[string]DirtyFlags{},
		deps:       map[string]*set.Set[string]{},
		handles:    map[string]modname.Handle{},
		loader:     l,
		parser:     p,
		env:        env,
		classes:    classes,
		cyclesSeen: set.New[string](0),
	}
}

// MarkDirty records that a handle's source (load) or resolution (find)
// changed, invalidating its memo entry and, for load changes, the loader's
// cached module text.
func (s *State) MarkDirty(h modname.Handle, load, find bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := h.Key()
	s.handles[key] = h
	d := s.dirty[key]
	d.Load = d.Load || load
	d.Find = d.Find || find
	s.dirty[key] = d
	delete(s.memo, key)
	if load {
		s.loader.Invalidate(h.Module, h.Cfg)
	}
}

func (s *State) clearDirty(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.dirty, key)
}

// Dirty reports h's current dirty flags; a zero DirtyFlags means h has no
// pending invalidation (either never marked, or already recomputed).
func (s *State) Dirty(h modname.Handle) DirtyFlags {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty[h.Key()]
}

// IsDirty reports whether either flag is set.
func (d DirtyFlags) IsDirty() bool { return d.any() }

// Options configures a RunOneShot call.
type Options struct {
	// Parallelism is the worker pool size. 0 means the host CPU count,
	// matching spec §5's "default: the host CPU count; j=1 forces
	// sequential".
	Parallelism int
}

// RunOneShot implements spec §4.11's run_one_shot: it dispatches the
// requested root handles across a worker pool; each worker resolves its
// root's dependencies recursively on its own goroutine (dependencies are
// not dispatched to the pool themselves), and cycles are broken by
// resolve's ancestor check inside a loop of at most three passes. It
// returns the roots' Answers only, or the first error a worker reports;
// FatalErrors aggregates recorded fatal errors with go-multierror. User
// diagnostics never become errors (they live inside each
// Answers.Diagnostics).
func (s *State) RunOneShot(ctx context.Context, roots []modname.Handle, opts Options) (map[modname.Handle]answers.Answers, error) {
	initTracing()

	workers := opts.Parallelism
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	const maxFixedPointPasses = 3
	for pass := 0; pass < maxFixedPointPasses; pass++ {
		s.mu.Lock()
		s.cyclesSeen = set.New[string](0)
		s.mu.Unlock()

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		inflight := &inflightTable{entries: map[string]*inflightEntry{}}

		for _, h := range roots {
			h := h
			g.Go(func() error {
				_, err := s.resolve(gctx, h, newAncestorSet(), inflight)
				return err
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}

		s.mu.Lock()
		stable := s.cyclesSeen.Empty()
		s.mu.Unlock()
		if stable {
			break
		}
	}

	out := map[modname.Handle]answers.Answers{}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range roots {
		if r, ok := s.memo[h.Key()]; ok {
			out[h] = r.answers
		}
	}
	return out, nil
}

// ancestorSet tracks the handle keys currently being resolved on one
// goroutine's call chain, so a dependency cycle is detected as a repeat
// visit rather than infinite recursion.
type ancestorSet map[string]bool

func newAncestorSet() ancestorSet { return ancestorSet{} }

func (a ancestorSet) with(key string) ancestorSet {
	cp := make(ancestorSet, len(a)+1)
	for k := range a {
		cp[k] = true
	}
	cp[key] = true
	return cp
}

// inflightEntry is the "one producer, many waiters" monitor spec §5's
// Suspension points section describes: a worker resolving handle h holds
// this entry; any other worker that reaches h while it is in flight blocks
// on done instead of starting a redundant analysis.
type inflightEntry struct {
	done   chan struct{}
	result answers.Answers
	err    error
}

type inflightTable struct {
	mu      sync.Mutex
	entries map[string]*inflightEntry
}

func (t *inflightTable) claim(key string) (*inflightEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[key]; ok {
		return e, false
	}
	e := &inflightEntry{done: make(chan struct{})}
	t.entries[key] = e
	return e, true
}

// resolve produces the Answers for h, consulting the memo first, then
// suspending on an in-flight sibling analysis, then running the solver
// itself. ancestors breaks cycles: a handle already on the current call
// chain is treated as Any for this pass (spec §5 "Recursion / cycles") and
// queued for another pass via cyclesSeen.
func (s *State) resolve(ctx context.Context, h modname.Handle, ancestors ancestorSet, inflight *inflightTable) (answers.Answers, error) {
	key := h.Key()

	if ancestors[key] {
		s.mu.Lock()
		s.cyclesSeen.Insert(key)
		s.mu.Unlock()
		return answers.Answers{Exports: map[string]pytype.Type{}}, nil
	}

	s.mu.Lock()
	if r, ok := s.memo[key]; ok {
		s.mu.Unlock()
		return r.answers, r.err
	}
	s.mu.Unlock()

	entry, owner := inflight.claim(key)
	if !owner {
		select {
		case <-entry.done:
			return entry.result, entry.err
		case <-ctx.Done():
			return answers.Answers{}, ctx.Err()
		}
	}

	a, err := s.runOne(ctx, h, ancestors.with(key), inflight)

	s.mu.Lock()
	s.handles[key] = h
	s.memo[key] = handleResult{handle: h, answers: a, err: err}
	s.mu.Unlock()
	s.clearDirty(key)

	entry.result, entry.err = a, err
	close(entry.done)
	return a, err
}

// addDependencyEdge records that dependentKey's analysis required
// dependencyKey's, per spec §4.11's "dependency edge set from dependent
// handle to dependency handle".
func (s *State) addDependencyEdge(dependentKey, dependencyKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	edges, ok := s.deps[dependentKey]
	if !ok {
		edges = set.New[string](0)
		s.deps[dependentKey] = edges
	}
	edges.Insert(dependencyKey)
}

// Dependencies returns the dependency handle keys recorded for h's most
// recent analysis.
func (s *State) Dependencies(h modname.Handle) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	edges, ok := s.deps[h.Key()]
	if !ok {
		return nil
	}
	return edges.Slice()
}

// runOne loads, parses, resolves dependencies, and solves a single handle.
// Parse failures and loader failures become diag.ParseError /
// diag.UnresolvedImport diagnostics inside the returned Answers rather than
// a fatal error, per spec §7 ("the solver never halts on a type error");
// only a context cancellation propagates as a Go error.
func (s *State) runOne(ctx context.Context, h modname.Handle, ancestors ancestorSet, inflight *inflightTable) (answers.Answers, error) {
	if err := ctx.Err(); err != nil {
		return answers.Answers{}, err
	}

	info, err := s.loader.Load(h.Module, h.Cfg)
	if err != nil {
		c := diag.NewCollector(h.Module, modname.Path{}, nil)
		c.Errorf(diag.UnresolvedImport, pyast.Range{}, err.Error(), nil)
		return answers.Answers{Diagnostics: c.Diagnostics(), Exports: map[string]pytype.Type{}}, nil
	}

	collector := diag.NewCollector(h.Module, info.Path, info)

	body, perrs := s.parser.Parse(h.Module, info.Path, info.Source)
	for _, pe := range perrs {
		collector.Errorf(diag.ParseError, pe.Range, pe.Message, nil)
	}

	globals := map[string]pytype.Type{}
	for _, depHandle := range importedHandles(body, h.Cfg, h.Loader) {
		s.addDependencyEdge(h.Key(), depHandle.Key())
		depAnswers, err := s.resolve(ctx, depHandle, ancestors, inflight)
		if err != nil {
			return answers.Answers{}, err
		}
		for name, t := range depAnswers.Exports {
			globals[name] = t
		}
	}

	a := answers.Check(s.env, s.classes, info, globals, body, collector)
	return a, nil
}

// importedHandles scans a module body's Import/ImportFrom statements for
// the module names it depends on, building a Handle for each under the
// same Config and LoaderId as the dependent handle.
func importedHandles(body []pyast.Stmt, cfg modname.Config, loaderID modname.LoaderId) []modname.Handle {
	var out []modname.Handle
	seen := map[string]bool{}
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, modname.NewHandle(modname.NewName(name), cfg, loaderID))
	}
	for _, stmt := range body {
		switch st := stmt.(type) {
		case pyast.Import:
			for _, m := range st.Modules {
				add(m)
			}
		case pyast.ImportFrom:
			add(st.Module)
		}
	}
	return out
}

// CollectErrors implements spec §4.11's collect_errors(): the union of
// every analyzed handle's diagnostics, in a stable order (spec §5:
// "(module path, range, message)").
func (s *State) CollectErrors() []diag.Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []diag.Diagnostic
	for _, r := range s.memo {
		all = append(all, r.answers.Diagnostics...)
	}
	return diag.SortDiagnostics(all)
}

// FatalErrors aggregates any process-level failures (I/O, config) recorded
// for the handles in this State, distinct from user-facing diagnostics.
func (s *State) FatalErrors() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var merr *multierror.Error
	for _, r := range s.memo {
		if r.err != nil {
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", r.handle, r.err))
		}
	}
	return merr.ErrorOrNil()
}
