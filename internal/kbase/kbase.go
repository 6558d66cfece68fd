// Package kbase is the supervisor's knowledge base (component A3): an
// in-memory mirror of the k-true table, the invariant set, and property
// status, queryable via SQL. Grounded on
// _examples/sentra-language-sentra/internal/database/db_manager.go's
// database/sql + modernc.org/sqlite wiring, narrowed to one fixed
// in-memory schema instead of a multi-backend connection manager, since
// kbase never persists across runs (spec.md §6: no persisted state) and
// never talks to anything but sqlite.
package kbase

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/AdrienChampion/kino/internal/technique"
	"github.com/AdrienChampion/kino/internal/term"
)

const schema = `
CREATE TABLE properties (
	sym    TEXT PRIMARY KEY,
	status TEXT NOT NULL
);
CREATE TABLE k_true (
	sym    TEXT NOT NULL,
	tek    TEXT NOT NULL,
	offset INTEGER NOT NULL,
	PRIMARY KEY (sym, tek)
);
CREATE TABLE invariants (
	sys  TEXT NOT NULL,
	skey INTEGER NOT NULL,
	text TEXT NOT NULL,
	PRIMARY KEY (sys, skey)
);
`

// Store is the supervisor's knowledge base: one private in-memory sqlite
// connection, created fresh per run and closed at teardown.
type Store struct {
	db *sql.DB
}

// Open creates a fresh in-memory knowledge base and applies its schema.
func Open() (*Store, error) {
	db, err := sql.Open("sqlite", "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("kbase: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("kbase: schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

// UpsertProperty records or updates a property's status.
func (s *Store) UpsertProperty(sym *term.Sym, status string) error {
	_, err := s.db.Exec(
		`INSERT INTO properties (sym, status) VALUES (?, ?)
		 ON CONFLICT(sym) DO UPDATE SET status = excluded.status`,
		sym.Name(), status,
	)
	if err != nil {
		return fmt.Errorf("kbase: upsert property: %w", err)
	}
	return nil
}

// PropertyStatus looks up a property's recorded status.
func (s *Store) PropertyStatus(sym *term.Sym) (string, bool, error) {
	var status string
	err := s.db.QueryRow(`SELECT status FROM properties WHERE sym = ?`, sym.Name()).Scan(&status)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kbase: property status: %w", err)
	}
	return status, true, nil
}

// SetKTrue records that tek has shown sym k-true through offset,
// overwriting any earlier (necessarily lower) offset for the same pair.
func (s *Store) SetKTrue(sym *term.Sym, tek technique.Technique, offset term.Offset) error {
	_, err := s.db.Exec(
		`INSERT INTO k_true (sym, tek, offset) VALUES (?, ?, ?)
		 ON CONFLICT(sym, tek) DO UPDATE SET offset = excluded.offset`,
		sym.Name(), tek.Tag(), int64(offset),
	)
	if err != nil {
		return fmt.Errorf("kbase: set k-true: %w", err)
	}
	return nil
}

// AddInvariant records a newly published invariant for a system, keyed by
// its STerm hash so re-publication is a no-op.
func (s *Store) AddInvariant(sysSym *term.Sym, inv term.STerm) error {
	_, err := s.db.Exec(
		`INSERT INTO invariants (sys, skey, text) VALUES (?, ?, ?)
		 ON CONFLICT(sys, skey) DO NOTHING`,
		sysSym.Name(), int64(inv.Key()), inv.String(),
	)
	if err != nil {
		return fmt.Errorf("kbase: add invariant: %w", err)
	}
	return nil
}

// InvariantCount reports how many invariants are recorded for a system.
func (s *Store) InvariantCount(sysSym *term.Sym) (int, error) {
	return s.InvariantCountByName(sysSym.Name())
}

// InvariantCountByName is InvariantCount keyed by the system's bare name,
// for callers (e.g. internal/inspect) that only have a string to work
// with, not an interned *term.Sym.
func (s *Store) InvariantCountByName(sysName string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM invariants WHERE sys = ?`, sysName).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("kbase: invariant count: %w", err)
	}
	return n, nil
}

// OpenProperties returns the symbols of every property still in "open"
// status, for the CLI's final report and the inspection service.
func (s *Store) OpenProperties() ([]string, error) {
	rows, err := s.db.Query(`SELECT sym FROM properties WHERE status = 'open'`)
	if err != nil {
		return nil, fmt.Errorf("kbase: open properties: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("kbase: open properties: %w", err)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}
