// Package diag implements spec §7's diagnostic taxonomy and the per-handle
// error collector, grounded on the teacher's internal/errors (structured
// Report values that survive errors.As unwrapping, deterministic JSON).
package diag

import (
	"encoding/json"
	"sort"

	"github.com/gradualtype/tycheck/internal/modname"
	"github.com/gradualtype/tycheck/internal/pyast"
)

// Code enumerates the diagnostic taxonomy from spec §7.
type Code string

const (
	ParseError             Code = "ParseError"
	UnresolvedImport        Code = "UnresolvedImport"
	UnknownName             Code = "UnknownName"
	AssignmentTypeMismatch  Code = "AssignmentTypeMismatch"
	ArgumentMismatch        Code = "ArgumentMismatch"
	ReturnTypeMismatch      Code = "ReturnTypeMismatch"
	MissingAttribute        Code = "MissingAttribute"
	ExpectedCallable        Code = "ExpectedCallable"
	ExpectedAsync           Code = "ExpectedAsync"
	InvalidBaseClass        Code = "InvalidBaseClass"
	InvalidGenericArguments Code = "InvalidGenericArguments"
	BadProtocolBase         Code = "BadProtocolBase"
	UnboundTypeVar          Code = "UnboundTypeVar"
	AmbiguousOverload       Code = "AmbiguousOverload"
	AmbiguousMRO            Code = "AmbiguousMRO"
	BadContextManager       Code = "BadContextManager"
	BadExitReturn           Code = "BadExitReturn"
	EnumMisuse              Code = "EnumMisuse"
	DataclassFieldError     Code = "DataclassFieldError"
	TypedDictKeyError       Code = "TypedDictKeyError"
	InternalError           Code = "InternalError"
)

// Diagnostic is the canonical structured error type, analogous to the
// teacher's errors.Report.
type Diagnostic struct {
	Module  modname.Name  `json:"-"`
	Path    modname.Path  `json:"-"`
	Code    Code          `json:"code"`
	Message string        `json:"message"`
	Range   pyast.Range   `json:"-"`
	Line    int           `json:"line"`
	Column  int           `json:"column"`
	StopLine   int        `json:"stop_line"`
	StopColumn int        `json:"stop_column"`
	Data    map[string]any `json:"data,omitempty"`
}

// New builds a Diagnostic; line/column are filled in by Collector.Add using
// the module's modname.Info, matching spec §6's legacy JSON schema (line,
// column, stop_line, stop_column).
func New(code Code, message string, r pyast.Range, data map[string]any) Diagnostic {
	return Diagnostic{Code: code, Message: message, Range: r, Data: data}
}

// Collector accumulates diagnostics for a single handle's analysis, per
// spec §4.10/§4.11: "Errors: a list of diagnostics", "the error collector
// is per-handle and merged at the end".
type Collector struct {
	module modname.Name
	path   modname.Path
	info   *modname.Info
	diags  []Diagnostic
}

func NewCollector(module modname.Name, path modname.Path, info *modname.Info) *Collector {
	return &Collector{module: module, path: path, info: info}
}

// Add appends d to the collector, resolving line/column from the module's
// Info if available.
func (c *Collector) Add(d Diagnostic) {
	d.Module = c.module
	d.Path = c.path
	if c.info != nil {
		d.Line, d.Column = c.info.LineCol(int(d.Range.Start))
		d.StopLine, d.StopColumn = c.info.LineCol(int(d.Range.End))
	}
	c.diags = append(c.diags, d)
}

// Errorf is a convenience wrapper around Add + New.
func (c *Collector) Errorf(code Code, r pyast.Range, message string, data map[string]any) {
	c.Add(New(code, message, r, data))
}

// Diagnostics returns the accumulated diagnostics in insertion order (AST
// program order within this handle, per spec §5 "Ordering guarantees").
func (c *Collector) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), c.diags...)
}

func (c *Collector) HasErrors() bool { return len(c.diags) > 0 }

// SortDiagnostics orders a merged diagnostic list by (module path, range,
// message), per spec §5: "errors are sorted at output time by (module
// path, range, message)".
func SortDiagnostics(ds []Diagnostic) []Diagnostic {
	out := append([]Diagnostic(nil), ds...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Path.String() != b.Path.String() {
			return a.Path.String() < b.Path.String()
		}
		if a.Range.Start != b.Range.Start {
			return a.Range.Start < b.Range.Start
		}
		if a.Range.End != b.Range.End {
			return a.Range.End < b.Range.End
		}
		return a.Message < b.Message
	})
	return out
}

// LegacyJSON encodes a Diagnostic into spec §6's legacy Output JSON shape.
func (d Diagnostic) LegacyJSON() ([]byte, error) {
	type legacy struct {
		Path        string `json:"path"`
		Line        int    `json:"line"`
		Column      int    `json:"column"`
		StopLine    int    `json:"stop_line"`
		StopColumn  int    `json:"stop_column"`
		Code        int    `json:"code"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	return json.Marshal(legacy{
		Path:        d.Path.String(),
		Line:        d.Line,
		Column:      d.Column,
		StopLine:    d.StopLine,
		StopColumn:  d.StopColumn,
		Code:        numericCode(d.Code),
		Name:        string(d.Code),
		Description: d.Message,
	})
}

// numericCode assigns a stable small integer to each taxonomy Code, for the
// legacy output's numeric `code` field (spec §6).
func numericCode(c Code) int {
	order := []Code{
		ParseError, UnresolvedImport, UnknownName, AssignmentTypeMismatch,
		ArgumentMismatch, ReturnTypeMismatch, MissingAttribute, ExpectedCallable,
		ExpectedAsync, InvalidBaseClass, InvalidGenericArguments, BadProtocolBase,
		UnboundTypeVar, AmbiguousOverload, AmbiguousMRO, BadContextManager,
		BadExitReturn, EnumMisuse, DataclassFieldError, TypedDictKeyError,
		InternalError,
	}
	for i, oc := range order {
		if oc == c {
			return i + 1
		}
	}
	return 0
}
