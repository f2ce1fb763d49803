package db

import (
	"testing"
	"time"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	database := &DB{path: ":memory:"}
	var err error
	database.DB, err = openDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	// Every pooled connection would otherwise get its own empty database.
	database.SetMaxOpenConns(1)

	if err := database.InitSchema(); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}

	return database
}

func TestInsertRun(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	runID, err := db.InsertRun("site/index.html", "https://example.com/", "out/index.html")
	if err != nil {
		t.Fatalf("InsertRun() error = %v", err)
	}
	if runID == 0 {
		t.Fatal("InsertRun() returned 0 ID")
	}

	if err := db.FinishRun(runID, 3, 2, 1, 1500*time.Millisecond); err != nil {
		t.Fatalf("FinishRun() error = %v", err)
	}

	run, err := db.GetRunByID(runID)
	if err != nil {
		t.Fatalf("GetRunByID() error = %v", err)
	}

	if run.Source != "site/index.html" {
		t.Errorf("run.Source = %q, want %q", run.Source, "site/index.html")
	}
	if run.Base != "https://example.com/" {
		t.Errorf("run.Base = %q, want %q", run.Base, "https://example.com/")
	}
	if run.PlaceholderCount != 3 || run.SplicedCount != 2 || run.RemovedCount != 1 {
		t.Errorf("counts = %d/%d/%d, want 3/2/1", run.PlaceholderCount, run.SplicedCount, run.RemovedCount)
	}
	if run.DurationMS != 1500 {
		t.Errorf("run.DurationMS = %d, want 1500", run.DurationMS)
	}
}

func TestGetRunByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if _, err := db.GetRunByID(42); err == nil {
		t.Error("GetRunByID() error = nil, want not found")
	}
}

func TestListRuns(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	sources := []string{"a.html", "b.html", "c.html"}
	for _, src := range sources {
		if _, err := db.InsertRun(src, "", ""); err != nil {
			t.Fatalf("InsertRun(%q) error = %v", src, err)
		}
	}

	tests := []struct {
		name      string
		limit     int
		wantCount int
		wantFirst string
	}{
		{name: "no limit", limit: 0, wantCount: 3, wantFirst: "c.html"},
		{name: "limited", limit: 2, wantCount: 2, wantFirst: "c.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := db.ListRuns(tt.limit)
			if err != nil {
				t.Fatalf("ListRuns() error = %v", err)
			}
			if len(runs) != tt.wantCount {
				t.Fatalf("len(runs) = %d, want %d", len(runs), tt.wantCount)
			}
			if runs[0].Source != tt.wantFirst {
				t.Errorf("runs[0].Source = %q, want %q", runs[0].Source, tt.wantFirst)
			}
		})
	}
}

func TestIncludeResults(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	runID, err := db.InsertRun("index.html", "", "")
	if err != nil {
		t.Fatalf("InsertRun() error = %v", err)
	}

	if err := db.InsertIncludeResult(runID, 1, "footer.html", StatusRemoved, 0, "failed to load footer.html: 404 Not Found"); err != nil {
		t.Fatalf("InsertIncludeResult() error = %v", err)
	}
	if err := db.InsertIncludeResult(runID, 0, "header.html", StatusSpliced, 2, ""); err != nil {
		t.Fatalf("InsertIncludeResult() error = %v", err)
	}

	results, err := db.GetRunResults(runID)
	if err != nil {
		t.Fatalf("GetRunResults() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}

	if results[0].Locator != "header.html" || results[0].Status != StatusSpliced || results[0].NodeCount != 2 {
		t.Errorf("results[0] = %+v, want spliced header.html with 2 nodes", results[0])
	}
	if results[0].ErrorMessage != "" {
		t.Errorf("results[0].ErrorMessage = %q, want empty", results[0].ErrorMessage)
	}
	if results[1].Status != StatusRemoved || results[1].ErrorMessage == "" {
		t.Errorf("results[1] = %+v, want removed with error message", results[1])
	}
}

func TestInsertIncludeResult_UnknownRun(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if err := db.InsertIncludeResult(999, 0, "x.html", StatusSpliced, 1, ""); err == nil {
		t.Error("InsertIncludeResult() error = nil, want foreign key violation")
	}
}
