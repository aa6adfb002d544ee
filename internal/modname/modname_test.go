package modname

import "testing"

func TestNameEqualityIgnoresUnicodeForm(t *testing.T) {
	// "e" + combining acute vs precomposed "é" must compare equal.
	decomposed := NewName("café.utils")
	precomposed := NewName("café.utils")
	if !decomposed.Equals(precomposed) {
		t.Fatalf("expected NFC-normalized module names to be equal")
	}
}

func TestNameParent(t *testing.T) {
	n := NewName("a.b.c")
	p, ok := n.Parent()
	if !ok || p.String() != "a.b" {
		t.Fatalf("expected parent a.b, got %q ok=%v", p.String(), ok)
	}
	top := NewName("a")
	if _, ok := top.Parent(); ok {
		t.Fatalf("top-level module must have no parent")
	}
}

func TestHandleKeyStability(t *testing.T) {
	cfg1 := NewConfig(NewRuntimeMetadata(), "/a", "/b")
	cfg2 := NewConfig(NewRuntimeMetadata(), "/a", "/b")
	h1 := NewHandle(NewName("pkg.mod"), cfg1, "first-party")
	h2 := NewHandle(NewName("pkg.mod"), cfg2, "first-party")
	if h1.Key() != h2.Key() {
		t.Fatalf("identical handles must share the same key")
	}
	if !h1.Equals(h2) {
		t.Fatalf("identical handles must be Equal")
	}
}

func TestHandleKeyDiffersOnSearchPaths(t *testing.T) {
	cfg1 := NewConfig(NewRuntimeMetadata(), "/a")
	cfg2 := NewConfig(NewRuntimeMetadata(), "/b")
	h1 := NewHandle(NewName("pkg.mod"), cfg1, "first-party")
	h2 := NewHandle(NewName("pkg.mod"), cfg2, "first-party")
	if h1.Equals(h2) {
		t.Fatalf("handles with different search paths must differ")
	}
}

func TestInfoLineCol(t *testing.T) {
	src := "line1\nline2\nline3"
	info := NewInfo(NewName("m"), NewFilesystemPath("m.py"), src)
	line, col := info.LineCol(0)
	if line != 1 || col != 1 {
		t.Fatalf("offset 0 should be line 1 col 1, got %d:%d", line, col)
	}
	line, col = info.LineCol(6)
	if line != 2 || col != 1 {
		t.Fatalf("offset 6 should be line 2 col 1, got %d:%d", line, col)
	}
}

func TestQNameEqualityModes(t *testing.T) {
	infoA := NewInfo(NewName("m"), NewFilesystemPath("m.py"), "")
	infoB := NewInfo(NewName("m"), NewFilesystemPath("m.py"), "")
	q1 := NewQName("T", infoA)
	q2 := NewQName("T", infoB)
	if !q1.ImmutableEquals(q2) {
		t.Fatalf("same local name + same module name should be immutable-equal across allocations")
	}
	if q1.IdentityEquals(q2) {
		t.Fatalf("distinct Info allocations must not be identity-equal")
	}
}
