package modname

import "sort"

// Info bundles a module's source text with a byte-offset-to-line index, so
// that any downstream component holding a byte range can recover line/column
// without re-scanning the text. One Info is created per loaded module (see
// internal/loader) and shared by pointer — it is the defining-module side of
// a QName.
type Info struct {
	Name       Name
	Path       Path
	Source     string
	lineStarts []int // byte offset of the first byte of each line
}

// NewInfo builds an Info and precomputes the line index.
func NewInfo(name Name, path Path, source string) *Info {
	info := &Info{Name: name, Path: path, Source: source}
	info.lineStarts = append(info.lineStarts, 0)
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			info.lineStarts = append(info.lineStarts, i+1)
		}
	}
	return info
}

// LineCol converts a 0-based byte offset into a 1-based (line, column) pair.
func (m *Info) LineCol(offset int) (line, col int) {
	if offset < 0 {
		offset = 0
	}
	// lineStarts is sorted; find the last start <= offset.
	i := sort.Search(len(m.lineStarts), func(i int) bool { return m.lineStarts[i] > offset })
	lineIdx := i - 1
	if lineIdx < 0 {
		lineIdx = 0
	}
	return lineIdx + 1, offset - m.lineStarts[lineIdx] + 1
}

// QName is a qualified name: a local identifier paired with the module that
// defines it. Equality has two modes, per spec §3:
//
//   - ImmutableEquals compares by textual name and module identity (by
//     Name.Equals — stable across runs, usable for caching / diffing).
//   - IdentityEquals compares by the defining *Info pointer, so two
//     QNames that happen to share a textual name in the same module path but
//     come from different loaded Info allocations (e.g. across incremental
//     re-runs before the old Info is discarded) are distinct. This mode is
//     what type-variable freshness relies on.
type QName struct {
	Local  string
	Module *Info
}

func NewQName(local string, module *Info) QName {
	return QName{Local: local, Module: module}
}

func (q QName) ImmutableEquals(o QName) bool {
	if q.Module == nil || o.Module == nil {
		return q.Module == o.Module && q.Local == o.Local
	}
	return q.Local == o.Local && q.Module.Name.Equals(o.Module.Name)
}

func (q QName) IdentityEquals(o QName) bool {
	return q.Local == o.Local && q.Module == o.Module
}

func (q QName) String() string {
	if q.Module == nil {
		return q.Local
	}
	return q.Module.Name.String() + "." + q.Local
}
