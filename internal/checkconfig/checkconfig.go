// Package checkconfig loads the project-level checker configuration spec §3
// names (Config / RuntimeMetadata: target language version, platform,
// search paths) from a YAML file, grounded on the teacher's
// internal/eval_harness/models.go LoadModelsConfig (read file, yaml.Unmarshal
// into a tagged struct, wrap errors with %w) generalized from model pricing
// data to per-directory checker overrides.
package checkconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gradualtype/tycheck/internal/modname"
)

// File is the on-disk shape of a project's tycheck.yaml.
type File struct {
	PythonVersion string            `yaml:"python_version"`
	Platform      string            `yaml:"platform"`
	SearchPaths   []string          `yaml:"search_paths"`
	Overrides     map[string]Override `yaml:"overrides"` // directory prefix -> override
}

// Override replaces one or more fields of the project-level Config for
// modules under a given directory prefix.
type Override struct {
	PythonVersion string   `yaml:"python_version"`
	Platform      string   `yaml:"platform"`
	SearchPaths   []string `yaml:"search_paths"`
}

// Load reads and parses path into a File.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("checkconfig: failed to read %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("checkconfig: failed to parse %s: %w", path, err)
	}
	return &f, nil
}

// BaseConfig builds the project-wide modname.Config from the file's
// top-level fields, defaulting anything unset to modname.NewRuntimeMetadata.
func (f *File) BaseConfig() (modname.Config, error) {
	rt := modname.NewRuntimeMetadata()
	if f.PythonVersion != "" {
		v, err := ParsePythonVersion(f.PythonVersion)
		if err != nil {
			return modname.Config{}, err
		}
		rt.PythonVersion = v
	}
	if f.Platform != "" {
		rt.Platform = f.Platform
	}
	return modname.NewConfig(rt, f.SearchPaths...), nil
}

// ConfigFor resolves the effective Config for a module whose on-disk path is
// modPath, applying the longest-matching directory-prefix override, per
// spec §3 ("a set of search paths" plus "per-directory overrides" named in
// SPEC_FULL.md's ambient-stack YAML configuration item).
func (f *File) ConfigFor(modPath string) (modname.Config, error) {
	base, err := f.BaseConfig()
	if err != nil {
		return modname.Config{}, err
	}

	var prefixes []string
	cleanPath := filepath.Clean(modPath)
	for prefix := range f.Overrides {
		dir := filepath.Clean(prefix)
		if cleanPath == dir || strings.HasPrefix(cleanPath, strings.TrimSuffix(dir, string(filepath.Separator))+string(filepath.Separator)) {
			prefixes = append(prefixes, prefix)
		}
	}
	if len(prefixes) == 0 {
		return base, nil
	}
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })
	ov := f.Overrides[prefixes[0]]

	rt := base.Runtime
	if ov.PythonVersion != "" {
		v, err := ParsePythonVersion(ov.PythonVersion)
		if err != nil {
			return modname.Config{}, err
		}
		rt.PythonVersion = v
	}
	if ov.Platform != "" {
		rt.Platform = ov.Platform
	}
	searchPaths := base.SearchPaths
	if len(ov.SearchPaths) > 0 {
		searchPaths = ov.SearchPaths
	}
	return modname.NewConfig(rt, searchPaths...), nil
}

// ParsePythonVersion parses "major.minor[.micro]" into the [3]int
// modname.RuntimeMetadata expects.
func ParsePythonVersion(s string) ([3]int, error) {
	var out [3]int
	parts := strings.Split(s, ".")
	if len(parts) < 2 || len(parts) > 3 {
		return out, fmt.Errorf("checkconfig: invalid python_version %q", s)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return out, fmt.Errorf("checkconfig: invalid python_version %q: %w", s, err)
		}
		out[i] = n
	}
	return out, nil
}
