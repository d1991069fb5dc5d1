// Package journal records Outcome Records in a local SQLite database as
// write-only audit history. Entries are never read back to short-circuit a
// reconciliation.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"duoctl/internal/db"
	"duoctl/internal/domain"
)

// timeLayout is fixed width so created_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one recorded reconciliation.
type Entry struct {
	ID         string           `json:"id"`
	Kind       domain.Kind      `json:"kind"`
	Tenant     string           `json:"tenant,omitempty"`
	AccountID  string           `json:"account_id,omitempty"`
	State      domain.State     `json:"state"`
	Mode       string           `json:"mode"`
	Changed    bool             `json:"changed"`
	Verdict    domain.Verdict   `json:"verdict"`
	Operation  domain.Operation `json:"operation,omitempty"`
	Attributes map[string]any   `json:"attributes"`
	Error      string           `json:"error,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Journal appends and lists entries.
type Journal struct {
	write *sql.DB
	read  *sql.DB
	now   func() time.Time
}

// Open opens (creating if needed) the journal at path and applies migrations.
func Open(ctx context.Context, path string) (*Journal, error) {
	writeDB, readDB, err := db.OpenSQLitePair(path, 2)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := db.RunMigrations(ctx, writeDB); err != nil {
		_ = writeDB.Close()
		_ = readDB.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return New(writeDB, readDB), nil
}

// New wraps already migrated pools.
func New(writeDB, readDB *sql.DB) *Journal {
	return &Journal{write: writeDB, read: readDB, now: time.Now}
}

// Close closes both pools.
func (j *Journal) Close() error {
	rerr := j.read.Close()
	if err := j.write.Close(); err != nil {
		return err
	}
	return rerr
}

// Record appends an outcome and returns the stored entry.
func (j *Journal) Record(ctx context.Context, out domain.Outcome) (Entry, error) {
	mode := domain.ModeEnforce
	if out.DryRun {
		mode = domain.ModeDryRun
	}
	e := Entry{
		ID:         domain.NewID(),
		Kind:       out.Kind,
		Tenant:     out.Tenant,
		AccountID:  out.AccountID,
		State:      out.State,
		Mode:       mode.String(),
		Changed:    out.Changed,
		Verdict:    out.Verdict,
		Operation:  out.Operation,
		Attributes: out.Attributes,
		Error:      out.Error,
		CreatedAt:  j.now().UTC(),
	}
	e.Attributes = redact(e.Attributes)

	attrs, err := json.Marshal(e.Attributes)
	if err != nil {
		return Entry{}, fmt.Errorf("encode attributes: %w", err)
	}
	verdict, _ := e.Verdict.MarshalText()

	_, err = j.write.ExecContext(ctx, `INSERT INTO reconcile_runs
		(id, kind, tenant, account_id, state, mode, changed, verdict, operation, attributes, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Kind), e.Tenant, e.AccountID, string(e.State), e.Mode, e.Changed,
		string(verdict), string(e.Operation), string(attrs), e.Error, e.CreatedAt.Format(timeLayout))
	if err != nil {
		return Entry{}, fmt.Errorf("insert run: %w", err)
	}
	return e, nil
}

// List returns the most recent entries, newest first. limit <= 0 means 50.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.read.QueryContext(ctx, `SELECT
		id, kind, tenant, account_id, state, mode, changed, verdict, operation, attributes, error, created_at
		FROM reconcile_runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []Entry
	for rows.Next() {
		var (
			e                        Entry
			kind, state, verdict, op string
			attrs, created           string
		)
		if err := rows.Scan(&e.ID, &kind, &e.Tenant, &e.AccountID, &state, &e.Mode, &e.Changed,
			&verdict, &op, &attrs, &e.Error, &created); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		e.Kind, e.State, e.Operation = domain.Kind(kind), domain.State(state), domain.Operation(op)
		if err := e.Verdict.UnmarshalText([]byte(verdict)); err != nil {
			return nil, fmt.Errorf("run %s: %w", e.ID, err)
		}
		if err := json.Unmarshal([]byte(attrs), &e.Attributes); err != nil {
			return nil, fmt.Errorf("run %s attributes: %w", e.ID, err)
		}
		if e.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("run %s created_at: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// secretAttributes are never written to disk.
var secretAttributes = map[string]bool{"secret_key": true}

func redact(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		if secretAttributes[k] {
			v = "[redacted]"
		}
		out[k] = v
	}
	return out
}
