// Package answercache implements the optional on-disk acceleration layer
// named in SPEC_FULL.md's DOMAIN STACK: a sqlite-backed memo of
// Handle -> digest(Answers) for warm incremental re-runs across process
// invocations. It is never consulted for correctness — internal/driver's
// in-memory memo (spec §4.11) is authoritative within one run; a cache miss
// or a stale digest simply means the handle is recomputed.
package answercache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go sqlite driver, grounded on the funxy pack's database/sql usage

	"github.com/gradualtype/tycheck/internal/answers"
	"github.com/gradualtype/tycheck/internal/diag"
	"github.com/gradualtype/tycheck/internal/modname"
)

const schema = `
CREATE TABLE IF NOT EXISTS answers_cache (
	handle_key   TEXT PRIMARY KEY,
	digest       TEXT NOT NULL,
	diagnostics  TEXT NOT NULL,
	updated_unix INTEGER NOT NULL
);
`

// Cache wraps a sqlite database storing one row per Handle.Key().
type Cache struct {
	db *sql.DB
}

// Open opens (creating if absent) the sqlite database at path and ensures
// its schema exists.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("answercache: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("answercache: migrate %s: %w", path, err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error { return c.db.Close() }

// diagnosticRecord is one entry of the on-disk projection of answers.Answers
// this cache keeps: diagnostics only, in their legacy JSON shape (spec §6). Bindings
// are not persisted — they are a per-process working set the driver's
// in-memory memo already owns within one run, and this cache's sole purpose
// is letting a later process skip re-solving an unchanged handle's
// diagnostics, per spec §4.12's warning never to leak interning order into
// serialized output (Bindings keys carry pyast.Range values tied to one
// parse's AST, not a stable cross-process identity).
type diagnosticRecord struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Legacy  json.RawMessage `json:"legacy"`
}

// Put stores digest (a caller-computed fingerprint of the handle's source
// plus its dependencies' digests) and a's diagnostics for handle h,
// replacing any prior entry.
func (c *Cache) Put(ctx context.Context, h modname.Handle, digest string, a answers.Answers) error {
	records := make([]diagnosticRecord, 0, len(a.Diagnostics))
	for _, d := range a.Diagnostics {
		legacy, err := d.LegacyJSON()
		if err != nil {
			return fmt.Errorf("answercache: encode diagnostic: %w", err)
		}
		records = append(records, diagnosticRecord{Code: string(d.Code), Message: d.Message, Legacy: legacy})
	}
	blob, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("answercache: encode diagnostics: %w", err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO answers_cache (handle_key, digest, diagnostics, updated_unix)
		 VALUES (?, ?, ?, unixepoch())
		 ON CONFLICT(handle_key) DO UPDATE SET digest = excluded.digest,
		   diagnostics = excluded.diagnostics, updated_unix = excluded.updated_unix`,
		h.Key(), digest, string(blob))
	if err != nil {
		return fmt.Errorf("answercache: write %s: %w", h, err)
	}
	return nil
}

// Lookup returns the cached diagnostics for h if a row exists whose stored
// digest matches wantDigest. A digest mismatch or a missing row both report
// ok=false — the caller (internal/cli's BuckCheck) must then recompute.
func (c *Cache) Lookup(ctx context.Context, h modname.Handle, wantDigest string) (diagnostics []diag.Diagnostic, ok bool, err error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT digest, diagnostics FROM answers_cache WHERE handle_key = ?`, h.Key())

	var gotDigest, blob string
	switch err := row.Scan(&gotDigest, &blob); err {
	case sql.ErrNoRows:
		return nil, false, nil
	case nil:
		// fall through
	default:
		return nil, false, fmt.Errorf("answercache: read %s: %w", h, err)
	}
	if gotDigest != wantDigest {
		return nil, false, nil
	}

	var records []diagnosticRecord
	if err := json.Unmarshal([]byte(blob), &records); err != nil {
		return nil, false, fmt.Errorf("answercache: decode diagnostics for %s: %w", h, err)
	}
	out := make([]diag.Diagnostic, len(records))
	for i, r := range records {
		var legacy struct {
			Path       string `json:"path"`
			Line       int    `json:"line"`
			Column     int    `json:"column"`
			StopLine   int    `json:"stop_line"`
			StopColumn int    `json:"stop_column"`
		}
		if err := json.Unmarshal(r.Legacy, &legacy); err != nil {
			return nil, false, fmt.Errorf("answercache: decode legacy fields for %s: %w", h, err)
		}
		out[i] = diag.Diagnostic{
			Module:     h.Module,
			Path:       modname.NewFilesystemPath(legacy.Path),
			Code:       diag.Code(r.Code),
			Message:    r.Message,
			Line:       legacy.Line,
			Column:     legacy.Column,
			StopLine:   legacy.StopLine,
			StopColumn: legacy.StopColumn,
		}
	}
	return out, true, nil
}

// Invalidate drops h's cached row, e.g. alongside internal/driver's
// MarkDirty.
func (c *Cache) Invalidate(ctx context.Context, h modname.Handle) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM answers_cache WHERE handle_key = ?`, h.Key())
	if err != nil {
		return fmt.Errorf("answercache: invalidate %s: %w", h, err)
	}
	return nil
}
