// Package postgres reads scenario samples from PostgreSQL via pgx.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"dayahead-sim/internal/scenario"
	"dayahead-sim/internal/source/codec"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Querier is the subset of pgxpool.Pool the source uses.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

// Source is a scenario.DataSource over PostgreSQL. A query that fails with
// a connection-class error is retried once after the pool answers a ping;
// any second failure is returned to the caller.
type Source struct {
	db     Querier
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Open connects a pool to dsn and applies pending migrations.
func Open(ctx context.Context, dsn string, maxConns int, logger *slog.Logger) (*Source, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	s := &Source{db: pool, pool: pool, logger: logger.With(slog.String("component", "postgres"))}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing querier. Migrations are the caller's concern.
func New(db Querier, logger *slog.Logger) *Source {
	return &Source{db: db, logger: logger.With(slog.String("component", "postgres"))}
}

func (s *Source) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Source) migrate(ctx context.Context) error {
	const createTracker = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`
	if _, err := s.pool.Exec(ctx, createTracker); err != nil {
		return fmt.Errorf("postgres: create schema_migrations table: %w", err)
	}
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("postgres: read migrations dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		var exists bool
		err := s.pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE filename = $1)", entry.Name(),
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("postgres: check migration %s: %w", entry.Name(), err)
		}
		if exists {
			continue
		}
		data, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("postgres: read migration %s: %w", entry.Name(), err)
		}
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("postgres: begin tx for %s: %w", entry.Name(), err)
		}
		if _, err := tx.Exec(ctx, string(data)); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("postgres: exec migration %s: %w", entry.Name(), err)
		}
		if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (filename) VALUES ($1)", entry.Name()); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("postgres: record migration %s: %w", entry.Name(), err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("postgres: commit migration %s: %w", entry.Name(), err)
		}
		s.logger.Info("applied migration", slog.String("file", entry.Name()))
	}
	return nil
}

func (s *Source) FetchYearlySamples(ctx context.Context, scenarioID string, f scenario.Filter) (map[int]float64, error) {
	const query = `
		SELECT year, value FROM yearly_samples
		WHERE scenario_id = $1 AND dataset = $2 AND area = $3 AND series_key = $4`

	var out map[int]float64
	err := s.withRetry(ctx, f, func() error {
		rows, err := s.db.Query(ctx, query, scenarioID, f.Dataset, f.Area, f.Key)
		if err != nil {
			return err
		}
		defer rows.Close()
		out = make(map[int]float64)
		for rows.Next() {
			var year int
			var v float64
			if err := rows.Scan(&year, &v); err != nil {
				return err
			}
			out[year] = v
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: yearly %s: %w", f, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("postgres: %s %s: %w", scenarioID, f, scenario.ErrDataUnavailable)
	}
	return out, nil
}

func (s *Source) FetchHourlyProfile(ctx context.Context, scenarioID string, f scenario.Filter) (map[int][]float64, error) {
	const query = `
		SELECT year, profile FROM hourly_samples
		WHERE scenario_id = $1 AND dataset = $2 AND area = $3 AND series_key = $4`

	var out map[int][]float64
	err := s.withRetry(ctx, f, func() error {
		rows, err := s.db.Query(ctx, query, scenarioID, f.Dataset, f.Area, f.Key)
		if err != nil {
			return err
		}
		defer rows.Close()
		out = make(map[int][]float64)
		for rows.Next() {
			var year int
			var blob []byte
			if err := rows.Scan(&year, &blob); err != nil {
				return err
			}
			p, err := codec.DecodeProfile(blob)
			if err != nil {
				return fmt.Errorf("year %d: %w", year, err)
			}
			out[year] = p
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: profile %s: %w", f, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("postgres: %s %s: %w", scenarioID, f, scenario.ErrDataUnavailable)
	}
	return out, nil
}

// withRetry runs fn, and once more if the first failure looked like a lost
// connection and the pool answers a ping in between.
func (s *Source) withRetry(ctx context.Context, f scenario.Filter, fn func() error) error {
	err := fn()
	if err == nil || !isConnectionError(err) || ctx.Err() != nil {
		return err
	}
	s.logger.Warn("query failed, reconnecting", slog.String("series", f.String()), slog.Any("error", err))
	if pingErr := s.db.Ping(ctx); pingErr != nil {
		return errors.Join(err, fmt.Errorf("reconnect: %w", pingErr))
	}
	return fn()
}

// isConnectionError reports failures worth one reconnect: network errors,
// pgx errors it considers safe to retry and SQLSTATE class 08.
func isConnectionError(err error) bool {
	if pgconn.SafeToRetry(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "08")
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Import upserts every series of src in one batch. It needs a pool opened
// by Open.
func (s *Source) Import(ctx context.Context, src *scenario.MemorySource) (int, error) {
	if s.pool == nil {
		return 0, errors.New("postgres: import needs an open pool")
	}
	const yearly = `
		INSERT INTO yearly_samples (scenario_id, dataset, area, series_key, year, value)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (scenario_id, dataset, area, series_key, year) DO UPDATE SET value = EXCLUDED.value`
	const hourly = `
		INSERT INTO hourly_samples (scenario_id, dataset, area, series_key, year, profile)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (scenario_id, dataset, area, series_key, year) DO UPDATE SET profile = EXCLUDED.profile`

	batch := &pgx.Batch{}
	err := src.Entries(func(id string, f scenario.Filter, ys map[int]float64, ps map[int][]float64) error {
		for year, v := range ys {
			batch.Queue(yearly, id, f.Dataset, f.Area, f.Key, year, v)
		}
		for year, p := range ps {
			blob, err := codec.EncodeProfile(p)
			if err != nil {
				return fmt.Errorf("%s year %d: %w", f, year, err)
			}
			batch.Queue(hourly, id, f.Dataset, f.Area, f.Key, year, blob)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("postgres: import: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: import: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("postgres: import: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres: import: commit: %w", err)
	}
	s.logger.Info("imported scenario data", slog.Int("rows", batch.Len()))
	return batch.Len(), nil
}
