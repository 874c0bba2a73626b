// Package sqlite stores scenario samples in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"dayahead-sim/internal/scenario"
	"dayahead-sim/internal/source/codec"
)

// Source is a scenario.DataSource over SQLite.
type Source struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at path and runs migrations. Use
// ":memory:" for a throwaway database.
func Open(path string, logger *slog.Logger) (*Source, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	if path == ":memory:" {
		// Every pooled connection would see its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping %s: %w", path, err)
	}
	s := &Source{db: db, logger: logger.With(slog.String("component", "sqlite"))}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	s.logger.Debug("opened", slog.String("path", path))
	return s, nil
}

func (s *Source) Close() error {
	return s.db.Close()
}

func (s *Source) migrate() error {
	version := 0
	// Missing table on a fresh database leaves version at 0.
	_ = s.db.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := s.db.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS yearly_samples (
				scenario_id TEXT    NOT NULL,
				dataset     TEXT    NOT NULL,
				area        TEXT    NOT NULL,
				series_key  TEXT    NOT NULL DEFAULT '',
				year        INTEGER NOT NULL,
				value       REAL    NOT NULL,
				PRIMARY KEY (scenario_id, dataset, area, series_key, year)
			);

			CREATE TABLE IF NOT EXISTS hourly_samples (
				scenario_id TEXT    NOT NULL,
				dataset     TEXT    NOT NULL,
				area        TEXT    NOT NULL,
				series_key  TEXT    NOT NULL DEFAULT '',
				year        INTEGER NOT NULL,
				profile     BLOB    NOT NULL,
				PRIMARY KEY (scenario_id, dataset, area, series_key, year)
			);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
		s.logger.Info("applied migration v1")
	}

	if version < 2 {
		_, err := s.db.Exec(`
			CREATE TABLE IF NOT EXISTS scenarios (
				scenario_id TEXT PRIMARY KEY,
				imported_at TEXT NOT NULL DEFAULT (datetime('now'))
			);
			INSERT OR IGNORE INTO scenarios (scenario_id)
				SELECT DISTINCT scenario_id FROM yearly_samples
				UNION SELECT DISTINCT scenario_id FROM hourly_samples;

			INSERT OR IGNORE INTO schema_version (version) VALUES (2);
		`)
		if err != nil {
			return fmt.Errorf("migration v2: %w", err)
		}
		s.logger.Info("applied migration v2 (scenario index)")
	}
	return nil
}

func (s *Source) FetchYearlySamples(ctx context.Context, scenarioID string, f scenario.Filter) (map[int]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT year, value FROM yearly_samples
		WHERE scenario_id = ? AND dataset = ? AND area = ? AND series_key = ?`,
		scenarioID, f.Dataset, f.Area, f.Key)
	if err != nil {
		return nil, fmt.Errorf("sqlite: yearly %s: %w", f, err)
	}
	defer rows.Close()

	out := make(map[int]float64)
	for rows.Next() {
		var year int
		var v float64
		if err := rows.Scan(&year, &v); err != nil {
			return nil, fmt.Errorf("sqlite: yearly %s: %w", f, err)
		}
		out[year] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: yearly %s: %w", f, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("sqlite: %s %s: %w", scenarioID, f, scenario.ErrDataUnavailable)
	}
	return out, nil
}

func (s *Source) FetchHourlyProfile(ctx context.Context, scenarioID string, f scenario.Filter) (map[int][]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT year, profile FROM hourly_samples
		WHERE scenario_id = ? AND dataset = ? AND area = ? AND series_key = ?`,
		scenarioID, f.Dataset, f.Area, f.Key)
	if err != nil {
		return nil, fmt.Errorf("sqlite: profile %s: %w", f, err)
	}
	defer rows.Close()

	out := make(map[int][]float64)
	for rows.Next() {
		var year int
		var blob []byte
		if err := rows.Scan(&year, &blob); err != nil {
			return nil, fmt.Errorf("sqlite: profile %s: %w", f, err)
		}
		p, err := codec.DecodeProfile(blob)
		if err != nil {
			return nil, fmt.Errorf("sqlite: profile %s year %d: %w", f, year, err)
		}
		out[year] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: profile %s: %w", f, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("sqlite: %s %s: %w", scenarioID, f, scenario.ErrDataUnavailable)
	}
	return out, nil
}

// Scenarios lists the imported scenario ids.
func (s *Source) Scenarios(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT scenario_id FROM scenarios ORDER BY scenario_id")
	if err != nil {
		return nil, fmt.Errorf("sqlite: scenarios: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scenarios: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Import copies every series of src into the database in one transaction,
// replacing rows with the same key. It returns the number of rows written.
func (s *Source) Import(ctx context.Context, src *scenario.MemorySource) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: import: %w", err)
	}
	defer tx.Rollback()

	yearly, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO yearly_samples (scenario_id, dataset, area, series_key, year, value)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("sqlite: import: %w", err)
	}
	defer yearly.Close()
	hourly, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO hourly_samples (scenario_id, dataset, area, series_key, year, profile)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("sqlite: import: %w", err)
	}
	defer hourly.Close()

	n := 0
	seen := make(map[string]bool)
	err = src.Entries(func(id string, f scenario.Filter, ys map[int]float64, ps map[int][]float64) error {
		seen[id] = true
		for year, v := range ys {
			if _, err := yearly.ExecContext(ctx, id, f.Dataset, f.Area, f.Key, year, v); err != nil {
				return fmt.Errorf("%s year %d: %w", f, year, err)
			}
			n++
		}
		for year, p := range ps {
			blob, err := codec.EncodeProfile(p)
			if err != nil {
				return fmt.Errorf("%s year %d: %w", f, year, err)
			}
			if _, err := hourly.ExecContext(ctx, id, f.Dataset, f.Area, f.Key, year, blob); err != nil {
				return fmt.Errorf("%s year %d: %w", f, year, err)
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("sqlite: import: %w", err)
	}
	for id := range seen {
		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO scenarios (scenario_id) VALUES (?)", id); err != nil {
			return 0, fmt.Errorf("sqlite: import: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: import: commit: %w", err)
	}
	s.logger.Info("imported scenario data", slog.Int("rows", n), slog.Int("scenarios", len(seen)))
	return n, nil
}
