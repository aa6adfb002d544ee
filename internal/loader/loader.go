// Package loader implements spec §6's "Loader & source DB": resolving a
// module name under a Config to a source path and contents, grounded on the
// teacher's internal/loader.ModuleLoader (cache keyed by canonical module
// id) and internal/module/resolver.go (search-path walking), generalized to
// also serve the embedded stdlib fixture (internal/stdfixture) when no
// on-disk stub shadows it.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gradualtype/tycheck/internal/modname"
	"github.com/gradualtype/tycheck/internal/stdfixture"
)

// SourceDB is the minimal collaborator the driver needs: given a module
// name and config, produce its path and text. Implementations: Filesystem
// (below) for first-party sources, and a manifest-backed DB for buck-check
// (internal/cli builds one from the JSON manifest files).
type SourceDB interface {
	Resolve(name modname.Name, cfg modname.Config) (modname.Path, string, error)
}

// Filesystem resolves modules by walking Config.SearchPaths, falling back to
// the embedded stdlib fixture for builtins/typing/types/enum.
type Filesystem struct{}

func NewFilesystem() *Filesystem { return &Filesystem{} }

func (f *Filesystem) Resolve(name modname.Name, cfg modname.Config) (modname.Path, string, error) {
	if src, ok := stdfixture.Source(name.String()); ok {
		// An on-disk stub with the same name takes priority over the
		// fixture, per spec §6 ("served via the loader when no on-disk
		// stub shadows them").
		if path, src2, err := findOnDisk(name, cfg); err == nil {
			return path, src2, nil
		}
		return modname.NewFixturePath(name.String()), src, nil
	}
	return findOnDisk(name, cfg)
}

func findOnDisk(name modname.Name, cfg modname.Config) (modname.Path, string, error) {
	rel := strings.ReplaceAll(name.String(), ".", string(filepath.Separator)) + ".py"
	relInit := filepath.Join(strings.ReplaceAll(name.String(), ".", string(filepath.Separator)), "__init__.py")
	for _, dir := range cfg.SearchPaths {
		for _, candidate := range []string{filepath.Join(dir, rel), filepath.Join(dir, relInit)} {
			data, err := os.ReadFile(candidate)
			if err == nil {
				return modname.NewFilesystemPath(candidate), string(data), nil
			}
		}
	}
	return modname.Path{}, "", fmt.Errorf("LDR001: module %s not found in search paths %v", name, cfg.SearchPaths)
}

// Loader caches resolved modules keyed by (module, config), matching spec
// §3's Handle identity. A single mutex guards the whole cache.
type Loader struct {
	db    SourceDB
	mu    sync.Mutex
	cache map[string]*modname.Info
}

func New(db SourceDB) *Loader {
	return &Loader{db: db, cache: map[string]*modname.Info{}}
}

// Load resolves and caches a module's Info. Concurrent calls for the same
// (name, cfg) share one Info allocation — critical for QName's identity
// equality mode, which compares by *Info pointer.
func (l *Loader) Load(name modname.Name, cfg modname.Config) (*modname.Info, error) {
	key := cacheKey(name, cfg)
	l.mu.Lock()
	if info, ok := l.cache[key]; ok {
		l.mu.Unlock()
		return info, nil
	}
	l.mu.Unlock()

	path, src, err := l.db.Resolve(name, cfg)
	if err != nil {
		return nil, err
	}

	info := modname.NewInfo(name, path, src)

	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.cache[key]; ok {
		return existing, nil
	}
	l.cache[key] = info
	return info, nil
}

// Invalidate drops a cached module, e.g. when the driver's dirty_load flag
// is set for its handle (spec §4.11).
func (l *Loader) Invalidate(name modname.Name, cfg modname.Config) {
	key := cacheKey(name, cfg)
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cache, key)
}

func cacheKey(name modname.Name, cfg modname.Config) string {
	return modname.NewHandle(name, cfg, "loader").Key()
}
