// Package baseline persists document fingerprints in SQLite so a document
// can be re-checked against a recorded shape later, in another process.
//
// A stored key is only meaningful under a hash algorithm that produces the
// same key in every process, so Record rejects algorithms that do not (see
// keys.Stable). Each record remembers the algorithm it was computed with
// and Verify refuses to compare across algorithms.
package baseline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hazyhaar/domkey/dbopen"
	"github.com/hazyhaar/domkey/idgen"
	"github.com/hazyhaar/domkey/keys"
	"github.com/hazyhaar/domkey/safeio"
)

// Baseline is one recorded document fingerprint.
type Baseline struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Source    string   `json:"source,omitempty"`
	Format    string   `json:"format"`
	Algo      string   `json:"algo"`
	Key       keys.Key `json:"key"`
	NodeCount int      `json:"node_count"`
	CreatedAt int64    `json:"created_at"`
	UpdatedAt int64    `json:"updated_at"`
}

// ErrNotFound is returned when no baseline exists under the given name.
var ErrNotFound = errors.New("baseline: not found")

// ErrAlgoMismatch is returned when a candidate key was computed under a
// different algorithm than the one the baseline was recorded with.
var ErrAlgoMismatch = errors.New("baseline: algorithm mismatch")

// Store is the baseline database handle.
type Store struct {
	DB    *sql.DB
	newID idgen.Generator
}

// Option customises a Store.
type Option func(*Store)

// WithIDGenerator substitutes the generator used for new record IDs.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(s *Store) { s.newID = gen }
}

// Open opens (or creates) the baseline SQLite database at path and applies
// the schema. Extra dbopen options are appended after the defaults.
func Open(path string, opts ...dbopen.Option) (*Store, error) {
	base := []dbopen.Option{dbopen.WithMkdirAll(), dbopen.WithSchema(Schema)}
	db, err := dbopen.Open(path, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// New wraps an already opened database handle. The schema must have been
// applied.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{DB: db, newID: idgen.Prefixed("bl_", idgen.Default)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}

// Record stores b under its name, creating or replacing the fingerprint.
// The record's ID and creation time survive re-recording under the same
// name; everything else is overwritten. On return b carries the stored
// identity and timestamps.
func (s *Store) Record(ctx context.Context, b *Baseline) error {
	if err := safeio.ValidateName(b.Name); err != nil {
		return err
	}
	if !keys.Stable(b.Algo) {
		return fmt.Errorf("baseline: algo %q does not produce stable keys", b.Algo)
	}

	now := time.Now().UnixMilli()
	return dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		var id string
		var created int64
		err := tx.QueryRowContext(ctx,
			`SELECT id, created_at FROM baselines WHERE name = ?`, b.Name).Scan(&id, &created)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			id, created = s.newID(), now
		case err != nil:
			return err
		}
		b.ID, b.CreatedAt, b.UpdatedAt = id, created, now

		_, err = tx.ExecContext(ctx, `
			INSERT INTO baselines (id, name, source, format, algo, key, node_count, created_at, updated_at)
			VALUES (?,?,?,?,?,?,?,?,?)
			ON CONFLICT(name) DO UPDATE SET
				source=excluded.source, format=excluded.format, algo=excluded.algo,
				key=excluded.key, node_count=excluded.node_count, updated_at=excluded.updated_at`,
			b.ID, b.Name, b.Source, b.Format, b.Algo, b.Key.String(), b.NodeCount, b.CreatedAt, b.UpdatedAt,
		)
		return err
	})
}

// Get retrieves a baseline by name.
func (s *Store) Get(ctx context.Context, name string) (*Baseline, error) {
	b := &Baseline{}
	var key string

	err := s.DB.QueryRowContext(ctx, `
		SELECT id, name, source, format, algo, key, node_count, created_at, updated_at
		FROM baselines WHERE name = ?`, name).Scan(
		&b.ID, &b.Name, &b.Source, &b.Format, &b.Algo, &key, &b.NodeCount, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	if b.Key, err = keys.Parse(key); err != nil {
		return nil, fmt.Errorf("baseline: corrupt key for %s: %w", name, err)
	}
	return b, nil
}

// List returns all baselines ordered by name.
func (s *Store) List(ctx context.Context) ([]*Baseline, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, name, source, format, algo, key, node_count, created_at, updated_at
		FROM baselines ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var baselines []*Baseline
	for rows.Next() {
		b := &Baseline{}
		var key string
		if err := rows.Scan(&b.ID, &b.Name, &b.Source, &b.Format, &b.Algo, &key,
			&b.NodeCount, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		if b.Key, err = keys.Parse(key); err != nil {
			return nil, fmt.Errorf("baseline: corrupt key for %s: %w", b.Name, err)
		}
		baselines = append(baselines, b)
	}
	return baselines, rows.Err()
}

// Delete removes a baseline by name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM baselines WHERE name = ?`, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// Verification is the outcome of checking a candidate key against a
// recorded baseline.
type Verification struct {
	Baseline *Baseline `json:"baseline"`
	Key      keys.Key  `json:"key"`
	Match    bool      `json:"match"`
}

// Verify compares a candidate key, computed with algo, against the
// baseline recorded under name. The algorithms must agree or the
// comparison is meaningless.
func (s *Store) Verify(ctx context.Context, name, algo string, key keys.Key) (*Verification, error) {
	b, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if b.Algo != algo {
		return nil, fmt.Errorf("%w: %s was recorded with algo %q, candidate used %q", ErrAlgoMismatch, name, b.Algo, algo)
	}
	return &Verification{Baseline: b, Key: key, Match: b.Key == key}, nil
}
