package db

import (
	"database/sql"
	"fmt"
	"time"
)

// Run represents one rendered page
type Run struct {
	RunID            int64
	Source           string
	Base             string
	Output           string
	CreatedAt        time.Time
	PlaceholderCount int
	SplicedCount     int
	RemovedCount     int
	DurationMS       int64
}

// IncludeResult is the stored outcome of a single placeholder
type IncludeResult struct {
	ResultID     int64
	RunID        int64
	Position     int
	Locator      string
	Status       string
	NodeCount    int
	ErrorMessage string
}

const (
	StatusSpliced = "spliced"
	StatusRemoved = "removed"
)

// InsertRun creates a run record and returns its run_id.
func (db *DB) InsertRun(source, base, output string) (int64, error) {
	result, err := db.Exec(`
		INSERT INTO runs (source, base, output)
		VALUES (?, ?, ?)
	`, source, base, output)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}
	return runID, nil
}

// FinishRun stores the aggregate counts for a run.
func (db *DB) FinishRun(runID int64, placeholders, spliced, removed int, duration time.Duration) error {
	_, err := db.Exec(`
		UPDATE runs
		SET placeholder_count = ?, spliced_count = ?, removed_count = ?, duration_ms = ?
		WHERE run_id = ?
	`, placeholders, spliced, removed, duration.Milliseconds(), runID)
	if err != nil {
		return fmt.Errorf("failed to update run stats: %w", err)
	}
	return nil
}

// InsertIncludeResult records the outcome of one placeholder.
func (db *DB) InsertIncludeResult(runID int64, position int, locator, status string, nodeCount int, errorMessage string) error {
	var errMsg interface{}
	if errorMessage != "" {
		errMsg = errorMessage
	}

	_, err := db.Exec(`
		INSERT INTO include_results (run_id, position, locator, status, node_count, error_message)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runID, position, locator, status, nodeCount, errMsg)
	if err != nil {
		return fmt.Errorf("failed to insert include result: %w", err)
	}
	return nil
}

// GetRunByID retrieves a run by its ID
func (db *DB) GetRunByID(runID int64) (*Run, error) {
	var run Run
	var base, output sql.NullString
	err := db.QueryRow(`
		SELECT run_id, source, base, output, created_at, placeholder_count,
		       spliced_count, removed_count, duration_ms
		FROM runs
		WHERE run_id = ?
	`, runID).Scan(
		&run.RunID,
		&run.Source,
		&base,
		&output,
		&run.CreatedAt,
		&run.PlaceholderCount,
		&run.SplicedCount,
		&run.RemovedCount,
		&run.DurationMS,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	run.Base = base.String
	run.Output = output.String
	return &run, nil
}

// ListRuns retrieves runs ordered by most recent first
func (db *DB) ListRuns(limit int) ([]Run, error) {
	query := `
		SELECT run_id, source, base, output, created_at, placeholder_count,
		       spliced_count, removed_count, duration_ms
		FROM runs
		ORDER BY run_id DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var base, output sql.NullString
		if err := rows.Scan(&r.RunID, &r.Source, &base, &output, &r.CreatedAt,
			&r.PlaceholderCount, &r.SplicedCount, &r.RemovedCount, &r.DurationMS); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Base = base.String
		r.Output = output.String
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// GetRunResults retrieves the include results of a run in document order
func (db *DB) GetRunResults(runID int64) ([]IncludeResult, error) {
	rows, err := db.Query(`
		SELECT result_id, run_id, position, locator, status, node_count, error_message
		FROM include_results
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run results: %w", err)
	}
	defer rows.Close()

	var results []IncludeResult
	for rows.Next() {
		var r IncludeResult
		var errMsg sql.NullString
		if err := rows.Scan(&r.ResultID, &r.RunID, &r.Position, &r.Locator, &r.Status,
			&r.NodeCount, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan include result: %w", err)
		}
		r.ErrorMessage = errMsg.String
		results = append(results, r)
	}

	return results, rows.Err()
}
