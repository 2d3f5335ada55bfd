package postgres

import (
	"cmp"
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

var ErrSchemaOutdated = errors.New("database schema is outdated, run the migrate command")

// Migration is one versioned SQL file. Files are named NNNN_description.sql.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrations returns the embedded migrations ordered by version.
func Migrations() ([]Migration, error) {
	return loadMigrations(migrationFiles, "migrations")
}

func loadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	var out []Migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		prefix, _, _ := strings.Cut(e.Name(), "_")
		v, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("migration %s: version prefix: %w", e.Name(), err)
		}
		body, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		out = append(out, Migration{Version: v, Name: e.Name(), SQL: string(body)})
	}

	slices.SortFunc(out, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })
	for i := 1; i < len(out); i++ {
		if out[i].Version == out[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version %d", out[i].Version)
		}
	}
	return out, nil
}

// Pool is the part of *pgxpool.Pool the schema upgrader needs.
type Pool interface {
	DBTX
	TxBeginner
}

// Schema applies embedded migrations and tracks the current version in the
// schema_version table.
type Schema struct {
	pool Pool
	log  *zap.Logger
}

func NewSchema(pool Pool, log *zap.Logger) *Schema {
	return &Schema{pool: pool, log: log}
}

// Version returns the applied schema version, 0 for an empty database.
func (s *Schema) Version(ctx context.Context) (int, error) {
	var version *int
	err := s.pool.QueryRow(ctx, `SELECT max(version) FROM schema_version`).Scan(&version)
	if err != nil {
		if pgErr := new(pgconn.PgError); errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable {
			return 0, nil
		}
		return -1, fmt.Errorf("read schema version: %w", err)
	}
	if version == nil {
		return 0, nil
	}
	return *version, nil
}

// Upgrade applies every pending migration in a single transaction and
// returns the number of migrations applied.
func (s *Schema) Upgrade(ctx context.Context) (int, error) {
	migrations, err := Migrations()
	if err != nil {
		return 0, err
	}

	applied := 0
	err = NewTransactor(s.pool).WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		// serialize concurrent migrate runs
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(4711)`); err != nil {
			return fmt.Errorf("lock schema: %w", err)
		}
		if _, err := tx.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
			return fmt.Errorf("create schema_version: %w", err)
		}

		var current int
		if err := tx.QueryRow(ctx, `SELECT COALESCE(max(version), 0) FROM schema_version`).Scan(&current); err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}

		for _, m := range migrations {
			if m.Version <= current {
				continue
			}
			if _, err := tx.Exec(ctx, m.SQL); err != nil {
				return fmt.Errorf("apply %s: %w", m.Name, err)
			}
			if _, err := tx.Exec(ctx, `DELETE FROM schema_version`); err != nil {
				return fmt.Errorf("clear schema version: %w", err)
			}
			if _, err := tx.Exec(ctx, `INSERT INTO schema_version (version) VALUES ($1)`, m.Version); err != nil {
				return fmt.Errorf("record schema version: %w", err)
			}
			s.log.Info("migration applied", zap.String("name", m.Name), zap.Int("version", m.Version))
			applied++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return applied, nil
}

// Check returns ErrSchemaOutdated when migrations are pending.
func (s *Schema) Check(ctx context.Context) error {
	migrations, err := Migrations()
	if err != nil {
		return err
	}
	current, err := s.Version(ctx)
	if err != nil {
		return err
	}
	if latest := migrations[len(migrations)-1].Version; current < latest {
		return fmt.Errorf("%w: at version %d, latest is %d", ErrSchemaOutdated, current, latest)
	}
	return nil
}
