// Package extparser is the placeholder for spec §1's explicitly
// out-of-scope collaborator: "the source parser and lexical representation
// (assumed: an external parser produces an AST with byte ranges)." Nothing
// in SPEC_FULL.md asks for a source-language lexer/parser — internal/pyast
// is the contract such a parser is assumed to satisfy, and internal/driver
// depends only on the driver.Parser interface, never on a concrete
// implementation.
//
// Stub implements that interface by reporting every module as an
// unparsed-source diagnostic rather than silently returning an empty body,
// so a wiring mistake (forgetting to inject a real parser) surfaces as a
// visible ParseError instead of phantom "no errors" output.
package extparser

import (
	"github.com/gradualtype/tycheck/internal/driver"
	"github.com/gradualtype/tycheck/internal/modname"
	"github.com/gradualtype/tycheck/internal/pyast"
)

// Stub is a driver.Parser that never produces an AST.
type Stub struct{}

func (Stub) Parse(module modname.Name, path modname.Path, source string) ([]pyast.Stmt, []driver.ParseError) {
	return nil, []driver.ParseError{{
		Message: "no source parser is wired in: internal/extparser.Stub is a placeholder for the external parser spec §1 assumes the driver is handed",
		Range:   pyast.Range{},
	}}
}
