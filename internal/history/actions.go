package history

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	dbpkg "github.com/dtnitsch/html-includer/pkg/db"
)

// HistoryAction lists recent runs, or the include results of one run when a
// run ID is given.
func HistoryAction(c *cli.Context) error {
	database, err := dbpkg.Open(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if c.NArg() > 0 {
		var runID int64
		if _, err := fmt.Sscanf(c.Args().First(), "%d", &runID); err != nil {
			return fmt.Errorf("invalid run ID: %s", c.Args().First())
		}
		return printRun(c, database, runID)
	}

	runs, err := database.ListRuns(c.Int("limit"))
	if err != nil {
		return err
	}

	w := c.App.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found")
		return nil
	}

	fmt.Fprintf(w, "%-6s %-14s %-8s %-8s %-8s %-30s\n",
		"ID", "Created", "Total", "Spliced", "Removed", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, r := range runs {
		fmt.Fprintf(w, "%-6d %-14s %-8d %-8d %-8d %-30s\n",
			r.RunID,
			humanize.Time(r.CreatedAt),
			r.PlaceholderCount,
			r.SplicedCount,
			r.RemovedCount,
			r.Source,
		)
	}

	fmt.Fprintf(w, "\nTotal: %d runs\n", len(runs))
	fmt.Fprintf(w, "\nTip: Use 'html-includer history <id>' to see include results\n")
	return nil
}

func printRun(c *cli.Context, database *dbpkg.DB, runID int64) error {
	run, err := database.GetRunByID(runID)
	if err != nil {
		return err
	}
	results, err := database.GetRunResults(runID)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Run %d: %s\n", run.RunID, run.Source)
	if run.Base != "" {
		fmt.Fprintf(w, "Base: %s\n", run.Base)
	}
	fmt.Fprintf(w, "Includes: %d spliced, %d removed (%dms)\n\n", run.SplicedCount, run.RemovedCount, run.DurationMS)

	for _, r := range results {
		line := fmt.Sprintf("  %d. [%s] %s", r.Position+1, r.Status, r.Locator)
		if r.ErrorMessage != "" {
			line += " - " + r.ErrorMessage
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
