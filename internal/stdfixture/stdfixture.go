// Package stdfixture embeds the read-only typeshed fixture (builtins,
// typing, types, enum) that the loader serves as pseudo-modules whenever no
// on-disk stub shadows them (spec §6 "Stdlib fixture").
package stdfixture

import (
	"embed"
	"io/fs"
)

//go:embed fixtures/*.pyi
var fixturesFS embed.FS

// Names lists the fixture pseudo-modules in a stable order.
var Names = []string{"builtins", "typing", "types", "enum"}

// Source returns the embedded stub text for one of Names, and false if name
// is not a fixture module.
func Source(name string) (string, bool) {
	data, err := fixturesFS.ReadFile("fixtures/" + name + ".pyi")
	if err != nil {
		return "", false
	}
	return string(data), true
}

// All returns every fixture module's source, keyed by module name, for
// loaders that want to preload the whole fixture set.
func All() map[string]string {
	out := make(map[string]string, len(Names))
	for _, n := range Names {
		if src, ok := Source(n); ok {
			out[n] = src
		}
	}
	return out
}

// Walk visits every embedded fixture file; used by tests to assert the
// embed matches Names.
func Walk(f func(name string, content []byte) error) error {
	return fs.WalkDir(fixturesFS, "fixtures", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, rerr := fixturesFS.ReadFile(path)
		if rerr != nil {
			return rerr
		}
		return f(path, data)
	})
}
