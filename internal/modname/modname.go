// Package modname holds the identity types described in spec §3: module
// names and paths, the analysis Config, and the Handle that keys a single
// module analysis.
package modname

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Name is a dotted module identifier such as "a.b.c". Two Names compare
// equal iff their NFC-normalized dotted forms match, so modules whose
// identifiers differ only by a combining-character encoding are treated as
// the same module — the analogue of the teacher's lexer-level identifier
// normalization, generalized to whole module paths.
type Name struct {
	canonical string
}

// NewName constructs a Name from a dotted string, canonicalizing Unicode
// form. Empty segments (leading/trailing/double dots) are preserved as
// written; NewName does not validate well-formedness.
func NewName(dotted string) Name {
	return Name{canonical: norm.NFC.String(dotted)}
}

func (n Name) String() string { return n.canonical }

// Parts splits the canonical form on '.'.
func (n Name) Parts() []string {
	if n.canonical == "" {
		return nil
	}
	return strings.Split(n.canonical, ".")
}

// Parent returns the enclosing package name ("a.b" for "a.b.c"), and false
// if n has no parent (a top-level module).
func (n Name) Parent() (Name, bool) {
	idx := strings.LastIndexByte(n.canonical, '.')
	if idx < 0 {
		return Name{}, false
	}
	return Name{canonical: n.canonical[:idx]}, true
}

// Equals compares canonical forms.
func (n Name) Equals(o Name) bool { return n.canonical == o.canonical }

// Less gives Name a total, deterministic order for sorting diagnostics.
func (n Name) Less(o Name) bool { return n.canonical < o.canonical }

// PathKind discriminates the two sources a ModulePath may refer to.
type PathKind int

const (
	// PathFilesystem is a path on disk.
	PathFilesystem PathKind = iota
	// PathStdlibFixture is a reference into the embedded typeshed fixture
	// (see internal/stdfixture), keyed by the fixture's pseudo-module name.
	PathStdlibFixture
)

// Path is either a filesystem path or a reference into the stdlib fixture.
type Path struct {
	Kind  PathKind
	Value string // absolute/relative filesystem path, or fixture module key
}

func NewFilesystemPath(p string) Path { return Path{Kind: PathFilesystem, Value: p} }
func NewFixturePath(key string) Path  { return Path{Kind: PathStdlibFixture, Value: key} }

func (p Path) String() string {
	if p.Kind == PathStdlibFixture {
		return "<stdlib:" + p.Value + ">"
	}
	return p.Value
}

func (p Path) Equals(o Path) bool { return p.Kind == o.Kind && p.Value == o.Value }
func (p Path) Less(o Path) bool {
	if p.Kind != o.Kind {
		return p.Kind < o.Kind
	}
	return p.Value < o.Value
}

// RuntimeMetadata is the target language version and platform a module is
// checked against.
type RuntimeMetadata struct {
	PythonVersion [3]int // major, minor, micro; micro may be 0 meaning "any"
	Platform      string // e.g. "linux", "darwin", "windows"
}

// NewRuntimeMetadata builds metadata with sane defaults (version 3.11.0,
// platform "linux").
func NewRuntimeMetadata() RuntimeMetadata {
	return RuntimeMetadata{PythonVersion: [3]int{3, 11, 0}, Platform: "linux"}
}

func (r RuntimeMetadata) Equals(o RuntimeMetadata) bool {
	return r.PythonVersion == o.PythonVersion && r.Platform == o.Platform
}

// Config bundles RuntimeMetadata with the search paths used to resolve
// imports. Config is a value type: two Configs with identical fields compare
// equal, and identical Configs must yield identical Handles for the same
// module, per spec §3 ("Handles are value-typed and hashable").
type Config struct {
	Runtime     RuntimeMetadata
	SearchPaths []string
}

func NewConfig(runtime RuntimeMetadata, searchPaths ...string) Config {
	paths := append([]string(nil), searchPaths...)
	return Config{Runtime: runtime, SearchPaths: paths}
}

func (c Config) Equals(o Config) bool {
	if !c.Runtime.Equals(o.Runtime) || len(c.SearchPaths) != len(o.SearchPaths) {
		return false
	}
	for i := range c.SearchPaths {
		if c.SearchPaths[i] != o.SearchPaths[i] {
			return false
		}
	}
	return true
}

// key returns a string usable as a Go map key representing this Config's
// value (Config itself is not comparable with == because SearchPaths is a
// slice).
func (c Config) key() string {
	var b strings.Builder
	b.WriteString(c.Runtime.Platform)
	b.WriteByte('|')
	for i, v := range c.Runtime.PythonVersion {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(v))
	}
	b.WriteByte('|')
	b.WriteString(strings.Join(c.SearchPaths, ":"))
	return b.String()
}

// LoaderId identifies which loader resolved a module (distinct loaders may
// be in play for, e.g., first-party sources versus the buck-check manifest
// loader versus the stdlib fixture loader).
type LoaderId string

// Handle is the triple (ModuleName, Config, LoaderId) that uniquely keys a
// module analysis, per spec §3.
type Handle struct {
	Module Name
	Cfg    Config
	Loader LoaderId
}

func NewHandle(module Name, cfg Config, loader LoaderId) Handle {
	return Handle{Module: module, Cfg: cfg, Loader: loader}
}

// Key returns a comparable, hashable string form suitable for use as a Go
// map key — Handle itself contains a slice (via Config.SearchPaths) and so
// is not a valid map key directly.
func (h Handle) Key() string {
	return h.Module.String() + "\x00" + h.Cfg.key() + "\x00" + string(h.Loader)
}

func (h Handle) Equals(o Handle) bool { return h.Key() == o.Key() }

func (h Handle) String() string {
	return h.Module.String() + "@" + string(h.Loader)
}
