package db

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;

-- Runs: one row per page rendered by the CLI
CREATE TABLE IF NOT EXISTS runs (
    run_id INTEGER PRIMARY KEY AUTOINCREMENT,
    source TEXT NOT NULL,         -- input page path
    base TEXT,                    -- base URL or directory for relative locators
    output TEXT,                  -- output path, empty for stdout
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    placeholder_count INTEGER DEFAULT 0,
    spliced_count INTEGER DEFAULT 0,
    removed_count INTEGER DEFAULT 0,
    duration_ms INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);

-- Include results: one row per placeholder in a run
CREATE TABLE IF NOT EXISTS include_results (
    result_id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL,
    position INTEGER NOT NULL,    -- document order at discovery
    locator TEXT NOT NULL,
    status TEXT NOT NULL,         -- spliced, removed
    node_count INTEGER DEFAULT 0,
    error_message TEXT,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_results_run ON include_results(run_id);
CREATE INDEX IF NOT EXISTS idx_results_locator ON include_results(locator);
`
