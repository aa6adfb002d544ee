package classmodel

import (
	"fmt"
)

// MROError reports a C3 linearization failure (spec §7: AmbiguousMRO).
type MROError struct {
	Class ClassRef
	Msg   string
}

func (e *MROError) Error() string { return e.Msg }

// directBases returns the ordinary (non-special) base classes of c, in
// declaration order — the linearization input.
func directBases(c *ClassData) []ClassRef {
	var out []ClassRef
	for _, b := range c.Bases {
		if b.Kind == BaseOrdinary && !b.Class.IsZero() {
			out = append(out, b.Class)
		}
	}
	return out
}

// ComputeMRO linearizes cls's ancestors via C3, per spec §4.2 step 4. On
// ambiguity (or an inheritance cycle) it returns the left-to-right
// declaration order together with an MROError, which the caller
// (internal/answers) reports before continuing analysis per spec §7
// ("the solver never halts on a type error").
func ComputeMRO(cls ClassRef) ([]ClassRef, error) {
	data := cls.Get()
	if data.mro != nil || data.mroErr != nil {
		return data.mro, data.mroErr
	}
	mro, err := linearize(cls, map[string]bool{})
	data.mro = mro
	data.mroErr = err
	return mro, err
}

func linearize(cls ClassRef, inProgress map[string]bool) ([]ClassRef, error) {
	key := cls.String()
	if inProgress[key] {
		return nil, &MROError{Class: cls, Msg: fmt.Sprintf("AmbiguousMRO: inheritance cycle involving %s", cls.Get().QName)}
	}
	inProgress[key] = true
	defer delete(inProgress, key)

	bases := directBases(cls.Get())
	if len(bases) == 0 {
		return []ClassRef{cls}, nil
	}

	var sequences [][]ClassRef
	for _, b := range bases {
		seq, err := linearize(b, inProgress)
		if err != nil {
			return leftToRightFallback(cls, bases), err
		}
		sequences = append(sequences, seq)
	}
	sequences = append(sequences, bases)

	merged, err := c3Merge(sequences)
	if err != nil {
		return leftToRightFallback(cls, bases), &MROError{Class: cls, Msg: fmt.Sprintf("AmbiguousMRO: cannot create a consistent MRO for %s: %s", cls.Get().QName, err.Error())}
	}
	return append([]ClassRef{cls}, merged...), nil
}

// leftToRightFallback is the spec §4.2-step-4 fallback: depth-first,
// left-to-right, de-duplicated by first occurrence.
func leftToRightFallback(cls ClassRef, bases []ClassRef) []ClassRef {
	seen := map[string]bool{cls.String(): true}
	out := []ClassRef{cls}
	var walk func(ClassRef)
	walk = func(c ClassRef) {
		if seen[c.String()] {
			return
		}
		seen[c.String()] = true
		out = append(out, c)
		for _, b := range directBases(c.Get()) {
			walk(b)
		}
	}
	for _, b := range bases {
		walk(b)
	}
	return out
}

// c3Merge merges the linearizations of a class's bases plus the base list
// itself, per the standard C3 algorithm used by the source language's MRO.
func c3Merge(sequences [][]ClassRef) ([]ClassRef, error) {
	seqs := make([][]ClassRef, 0, len(sequences))
	for _, s := range sequences {
		if len(s) > 0 {
			seqs = append(seqs, append([]ClassRef(nil), s...))
		}
	}

	var result []ClassRef
	for len(seqs) > 0 {
		candidate, ok := nextGoodHead(seqs)
		if !ok {
			return nil, fmt.Errorf("no consistent merge order found")
		}
		result = append(result, candidate)
		seqs = removeHead(seqs, candidate)
	}
	return result, nil
}

func nextGoodHead(seqs [][]ClassRef) (ClassRef, bool) {
	for _, seq := range seqs {
		head := seq[0]
		if !appearsInTail(seqs, head) {
			return head, true
		}
	}
	var zero ClassRef
	return zero, false
}

func appearsInTail(seqs [][]ClassRef, candidate ClassRef) bool {
	for _, seq := range seqs {
		for _, c := range seq[1:] {
			if c.Equals(candidate) {
				return true
			}
		}
	}
	return false
}

func removeHead(seqs [][]ClassRef, head ClassRef) [][]ClassRef {
	var out [][]ClassRef
	for _, seq := range seqs {
		if seq[0].Equals(head) {
			seq = seq[1:]
		}
		if len(seq) > 0 {
			out = append(out, seq)
		}
	}
	return out
}
