// Package report formats a run's diagnostics for the two external shapes
// spec §6 names: the legacy JSON array consumed by tooling, and a
// human-readable terminal rendering for the `check` command, grounded on
// the teacher's internal/errors.Report.ToJSON (compact vs indented
// json.Marshal) and cmd/ailang/main.go's color.New(...).SprintFunc() palette.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/gradualtype/tycheck/internal/diag"
)

// JSON encodes ds as spec §6's legacy Output JSON array.
func JSON(ds []diag.Diagnostic, indent bool) ([]byte, error) {
	raw := make([]json.RawMessage, len(ds))
	for i, d := range ds {
		b, err := d.LegacyJSON()
		if err != nil {
			return nil, fmt.Errorf("report: encode diagnostic %d: %w", i, err)
		}
		raw[i] = b
	}
	if indent {
		return json.MarshalIndent(raw, "", "  ")
	}
	return json.Marshal(raw)
}

// Terminal renders ds as colored human-readable text to w, one line per
// diagnostic, followed by a summary line. Color is enabled only when w is
// an *os.File attached to a terminal (spec §6's "colored terminal output"
// ambient-stack item), matching the teacher's fatih/color + go-isatty pairing.
type Terminal struct {
	w       io.Writer
	bold    func(a ...interface{}) string
	red     func(a ...interface{}) string
	yellow  func(a ...interface{}) string
	green   func(a ...interface{}) string
	cyan    func(a ...interface{}) string
}

// NewTerminal builds a Terminal writing to w, auto-detecting whether to
// colorize based on whether w is a terminal.
func NewTerminal(w io.Writer) *Terminal {
	colorize := false
	if f, ok := w.(*os.File); ok {
		colorize = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	c := color.New()
	c.EnableColor()
	if !colorize {
		c.DisableColor()
	}
	mk := func(attrs ...color.Attribute) func(a ...interface{}) string {
		cc := color.New(attrs...)
		if !colorize {
			cc.DisableColor()
		}
		return cc.SprintFunc()
	}
	return &Terminal{
		w:      w,
		bold:   mk(color.Bold),
		red:    mk(color.FgRed, color.Bold),
		yellow: mk(color.FgYellow),
		green:  mk(color.FgGreen, color.Bold),
		cyan:   mk(color.FgCyan),
	}
}

// Print writes ds followed by a one-line summary, and reports whether any
// diagnostic was printed (the `check` command uses this for its exit code,
// spec §6: "exit 0 on success, 1 on type errors").
func (t *Terminal) Print(ds []diag.Diagnostic) (hadErrors bool) {
	for _, d := range ds {
		fmt.Fprintf(t.w, "%s:%d:%d: %s %s: %s\n",
			d.Path.String(), d.Line, d.Column,
			t.red("error"), t.cyan(string(d.Code)), d.Message)
	}
	if len(ds) == 0 {
		fmt.Fprintln(t.w, t.green("No errors!"))
		return false
	}
	noun := "errors"
	if len(ds) == 1 {
		noun = "error"
	}
	fmt.Fprintf(t.w, "%s\n", t.yellow(fmt.Sprintf("Found %d %s", len(ds), noun)))
	return true
}
