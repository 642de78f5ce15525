package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store and applies migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS builds (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		git_sha     TEXT NOT NULL,
		git_branch  TEXT,
		build_type  TEXT NOT NULL DEFAULT 'Release',
		cmake_args  TEXT,
		built_at    DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS benchmark_runs (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id        INTEGER NOT NULL REFERENCES builds(id),
		benchmark_name  TEXT NOT NULL,
		hardware_id     TEXT NOT NULL,
		cpu             TEXT NOT NULL,
		gpu             TEXT NOT NULL,
		num_procs       INTEGER NOT NULL DEFAULT 1,
		started_at      DATETIME NOT NULL,
		finished_at     DATETIME,
		wall_time_s     REAL,
		success         INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS timing_scopes (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id          INTEGER NOT NULL REFERENCES benchmark_runs(id),
		scope           TEXT NOT NULL,
		elapsed_ms      REAL NOT NULL,
		percent_total   REAL
	);

	CREATE TABLE IF NOT EXISTS aggregate_results (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		benchmark_name  TEXT NOT NULL,
		hardware_id     TEXT NOT NULL,
		git_sha         TEXT NOT NULL,
		num_runs        INTEGER NOT NULL,
		mean_wall_time_s    REAL NOT NULL,
		stddev_wall_time_s  REAL,
		computed_at     DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS aggregate_scopes (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		aggregate_id    INTEGER NOT NULL REFERENCES aggregate_results(id),
		scope           TEXT NOT NULL,
		mean_elapsed_ms REAL NOT NULL,
		stddev_elapsed_ms REAL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return err
	}

	// Migration for databases created before the sweep recorded its
	// process count alongside the aggregate.
	return s.addColumnIfMissing("aggregate_results", "num_procs", "INTEGER NOT NULL DEFAULT 1")
}

func (s *SQLiteStore) addColumnIfMissing(table, column, columnDef string) error {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return err
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		var (
			cid       int
			name, typ string
			notNull   int
			dflt      sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return err
		}
		if name == column {
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if found {
		return nil
	}

	_, err = s.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, columnDef))
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// InsertBuild records a completed build and returns its id.
func (s *SQLiteStore) InsertBuild(gitSHA, gitBranch, buildType, cmakeArgs string) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO builds (git_sha, git_branch, build_type, cmake_args, built_at)
		 VALUES (?, ?, ?, ?, ?)`,
		gitSHA, gitBranch, buildType, cmakeArgs, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// FindBuild returns the most recent build for the given SHA and build type,
// or nil when none exists.
func (s *SQLiteStore) FindBuild(gitSHA, buildType string) (*Build, error) {
	row := s.db.QueryRow(
		`SELECT id, git_sha, git_branch, build_type, IFNULL(cmake_args, ''), built_at
		 FROM builds WHERE git_sha = ? AND build_type = ? ORDER BY id DESC LIMIT 1`,
		gitSHA, buildType)

	var b Build
	err := row.Scan(&b.ID, &b.GitSHA, &b.GitBranch, &b.BuildType, &b.CMakeArgs, &b.BuiltAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// InsertRun records the start of a benchmark execution and returns its id.
func (s *SQLiteStore) InsertRun(buildID int64, benchmarkName, hardwareID, cpu, gpu string, numProcs int) (int64, error) {
	if numProcs < 1 {
		numProcs = 1
	}
	res, err := s.db.Exec(
		`INSERT INTO benchmark_runs
		 (build_id, benchmark_name, hardware_id, cpu, gpu, num_procs, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		buildID, benchmarkName, hardwareID, cpu, gpu, numProcs, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// FinishRun records the outcome of a benchmark execution.
func (s *SQLiteStore) FinishRun(runID int64, wallTimeS float64, success bool) error {
	_, err := s.db.Exec(
		`UPDATE benchmark_runs SET finished_at = ?, wall_time_s = ?, success = ? WHERE id = ?`,
		time.Now().UTC(), wallTimeS, success, runID)
	return err
}

// InsertTimingScopes stores a run's parsed timing-report rows.
func (s *SQLiteStore) InsertTimingScopes(runID int64, scopes []ScopeTiming) error {
	if len(scopes) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(
		`INSERT INTO timing_scopes (run_id, scope, elapsed_ms, percent_total) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, sc := range scopes {
		if _, err := stmt.Exec(runID, sc.Scope, sc.ElapsedMS, sc.PercentTotal); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// InsertAggregate stores a sweep aggregate with its per-scope stats.
func (s *SQLiteStore) InsertAggregate(agg Aggregate, scopeStats []ScopeStat) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	res, err := tx.Exec(
		`INSERT INTO aggregate_results
		 (benchmark_name, hardware_id, git_sha, num_procs, num_runs,
		  mean_wall_time_s, stddev_wall_time_s, computed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		agg.BenchmarkName, agg.HardwareID, agg.GitSHA, agg.NumProcs, agg.NumRuns,
		agg.MeanWallTimeS, agg.StddevWallTimeS, time.Now().UTC())
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	aggID, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	for _, sc := range scopeStats {
		if _, err := tx.Exec(
			`INSERT INTO aggregate_scopes (aggregate_id, scope, mean_elapsed_ms, stddev_elapsed_ms)
			 VALUES (?, ?, ?, ?)`,
			aggID, sc.Scope, sc.MeanElapsedMS, sc.StddevElapsedMS); err != nil {
			tx.Rollback()
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return aggID, nil
}

// LatestAggregates retrieves the most recent aggregates, newest first.
func (s *SQLiteStore) LatestAggregates(filter AggregateFilter) ([]Aggregate, error) {
	query := `SELECT id, benchmark_name, hardware_id, git_sha, num_procs, num_runs,
	                 mean_wall_time_s, stddev_wall_time_s, computed_at
	          FROM aggregate_results WHERE 1=1`
	var params []any
	if filter.BenchmarkName != "" {
		query += " AND benchmark_name = ?"
		params = append(params, filter.BenchmarkName)
	}
	if filter.HardwareID != "" {
		query += " AND hardware_id = ?"
		params = append(params, filter.HardwareID)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	query += " ORDER BY id DESC LIMIT ?"
	params = append(params, limit)

	rows, err := s.db.Query(query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Aggregate
	for rows.Next() {
		var a Aggregate
		if err := rows.Scan(&a.ID, &a.BenchmarkName, &a.HardwareID, &a.GitSHA,
			&a.NumProcs, &a.NumRuns, &a.MeanWallTimeS, &a.StddevWallTimeS, &a.ComputedAt); err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

// AggregateScopes returns the per-scope stats of an aggregate, slowest first.
func (s *SQLiteStore) AggregateScopes(aggregateID int64) ([]ScopeStat, error) {
	rows, err := s.db.Query(
		`SELECT scope, mean_elapsed_ms, stddev_elapsed_ms
		 FROM aggregate_scopes WHERE aggregate_id = ? ORDER BY mean_elapsed_ms DESC`,
		aggregateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []ScopeStat
	for rows.Next() {
		var sc ScopeStat
		if err := rows.Scan(&sc.Scope, &sc.MeanElapsedMS, &sc.StddevElapsedMS); err != nil {
			return nil, err
		}
		stats = append(stats, sc)
	}
	return stats, rows.Err()
}
