// Package sqlite persists volume calculation results in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/chazu/csgeom/pkg/volume"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// ErrNotFound is returned by Load when no volumes of the requested domain
// type are stored.
var ErrNotFound = errors.New("volume store: no results stored")

// Store persists volume results keyed by domain type and id.
type Store struct {
	sqlDB  *sql.DB
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for store events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open opens (creating if needed) a SQLite volume store at path.
func Open(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	s := &Store{sqlDB: sqlDB, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "volume-store")
	return s, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Save writes every volume and atom count in r, replacing stored values for
// the same domains. Domains not present in r are left untouched.
func (s *Store) Save(ctx context.Context, r *volume.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if r == nil {
		return fmt.Errorf("result is required")
	}
	if !r.DomainType.Valid() {
		return fmt.Errorf("invalid domain type %q", r.DomainType)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().UnixMilli()
	dt := string(r.DomainType)
	for _, id := range r.IDs() {
		est := r.Volumes[id]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO volumes (domain_type, domain_id, volume, volume_std, updated_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (domain_type, domain_id) DO UPDATE SET
			   volume = excluded.volume,
			   volume_std = excluded.volume_std,
			   updated_at = excluded.updated_at`,
			dt, id, est.Value, est.StdDev, now,
		); err != nil {
			return fmt.Errorf("save volume %s %d: %w", dt, id, err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM atoms WHERE domain_type = ? AND domain_id = ?`, dt, id,
		); err != nil {
			return fmt.Errorf("clear atoms %s %d: %w", dt, id, err)
		}
		for nuclide, a := range r.Atoms[id] {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO atoms (domain_type, domain_id, nuclide, atoms, atoms_std)
				 VALUES (?, ?, ?, ?, ?)`,
				dt, id, nuclide, a.Value, a.StdDev,
			); err != nil {
				return fmt.Errorf("save atoms %s %d %s: %w", dt, id, nuclide, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Info("saved volume results", "domain_type", dt, "domains", len(r.Volumes))
	return nil
}

// Load returns every stored result for domain type d.
func (s *Store) Load(ctx context.Context, d volume.DomainType) (*volume.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if !d.Valid() {
		return nil, fmt.Errorf("invalid domain type %q", d)
	}

	r := volume.NewResult(d)
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT domain_id, volume, volume_std FROM volumes WHERE domain_type = ? ORDER BY domain_id`,
		string(d),
	)
	if err != nil {
		return nil, fmt.Errorf("query volumes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int
		var est volume.Estimate
		if err := rows.Scan(&id, &est.Value, &est.StdDev); err != nil {
			return nil, fmt.Errorf("scan volume: %w", err)
		}
		r.Volumes[id] = est
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate volumes: %w", err)
	}
	if len(r.Volumes) == 0 {
		return nil, fmt.Errorf("%w for domain type %s", ErrNotFound, d)
	}

	atomRows, err := s.sqlDB.QueryContext(ctx,
		`SELECT domain_id, nuclide, atoms, atoms_std FROM atoms WHERE domain_type = ?`,
		string(d),
	)
	if err != nil {
		return nil, fmt.Errorf("query atoms: %w", err)
	}
	defer atomRows.Close()
	for atomRows.Next() {
		var id int
		var nuclide string
		var est volume.Estimate
		if err := atomRows.Scan(&id, &nuclide, &est.Value, &est.StdDev); err != nil {
			return nil, fmt.Errorf("scan atoms: %w", err)
		}
		r.SetAtoms(id, nuclide, est)
	}
	if err := atomRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate atoms: %w", err)
	}

	s.logger.Debug("loaded volume results", "domain_type", string(d), "domains", len(r.Volumes))
	return r, nil
}
