package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/html-includer/models"
	"github.com/dtnitsch/html-includer/pkg/db"
	"github.com/dtnitsch/html-includer/pkg/fetcher"
	"github.com/dtnitsch/html-includer/pkg/includer"
	"github.com/dtnitsch/html-includer/pkg/storage"
)

func RenderAction(c *cli.Context) error {
	s := storage.New(nil)

	config, err := models.LoadConfig(s.Fs(), c.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	applyFlags(c, config)

	logLevel := slog.LevelInfo
	if config.Quiet {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	if config.Input == "" {
		fmt.Fprintln(os.Stderr, "Error: No input page provided")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, `  html-includer render --in site/index.html --out dist/index.html`)
		fmt.Fprintln(os.Stderr, `  html-includer render --in index.html --base https://example.com/partials/`)
		return cli.Exit("", 1)
	}

	var database *db.DB
	if config.History != "" {
		database, err = db.Open(config.History)
		if err != nil {
			logger.Error("failed to open history database", "error", err)
			return cli.Exit("", 2)
		}
		defer database.Close()
	}

	finalOutput, rendered, err := Run(logger, s, config, database)
	if err != nil {
		logger.Error("render failed", "error", err)
		return cli.Exit("", 2)
	}

	reportW := io.Writer(os.Stdout)
	if config.Output == "" {
		if _, err := os.Stdout.Write(rendered); err != nil {
			return cli.Exit(fmt.Sprintf("failed to write output: %v", err), 2)
		}
		reportW = os.Stderr
	}

	if !config.Quiet {
		fmt.Fprintf(os.Stderr, "Rendered %s (%s): %d/%d includes spliced in %s\n",
			finalOutput.Source,
			humanize.Bytes(uint64(finalOutput.Stats.OutputBytes)),
			finalOutput.Stats.Spliced,
			finalOutput.Stats.Placeholders,
			time.Duration(finalOutput.Stats.TotalTimeSeconds*float64(time.Second)).Round(time.Millisecond),
		)
	}

	outputData, err := marshalReport(finalOutput, config.Format)
	if err != nil {
		logger.Error("failed to marshal final output", "error", err)
		return cli.Exit("", 2)
	}
	fmt.Fprintln(reportW, string(outputData))

	// Failed includes degrade to removed placeholders; they never fail the run.
	return nil
}

// Run loads the input page, resolves its includes and writes the result to
// config.Output when set. The rendered HTML is returned either way.
func Run(logger *slog.Logger, s *storage.Storage, config *models.RenderConfig, database *db.DB) (*FinalOutput, []byte, error) {
	startTime := time.Now()

	raw, err := s.ReadFile(config.Input)
	if err != nil {
		return nil, nil, err
	}

	base := config.Base
	if base == "" {
		base = filepath.Dir(config.Input)
	}
	f, err := fetcher.New(base, fetcher.WithFs(s.Fs()))
	if err != nil {
		return nil, nil, err
	}

	var runID int64
	if database != nil {
		runID, err = database.InsertRun(config.Input, base, config.Output)
		if err != nil {
			logger.Warn("Failed to insert run to DB", "error", err)
		}
	}

	page := includer.LoadPage(bytes.NewReader(raw))
	inc := includer.New(f, logger)
	if err := inc.Activate(page).Wait(context.Background()); err != nil {
		return nil, nil, err
	}
	if err := page.Err(); err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, nil, err
	}
	if config.Output != "" {
		if err := s.SaveFile(config.Output, buf.Bytes()); err != nil {
			return nil, nil, err
		}
	}

	finalOutput := buildOutput(config, inc.Outcomes())
	finalOutput.RunID = runID
	finalOutput.Stats.OutputBytes = buf.Len()
	finalOutput.Stats.TotalTimeSeconds = time.Since(startTime).Seconds()

	if database != nil && runID > 0 {
		recordRun(logger, database, runID, inc.Outcomes(), finalOutput.Stats, time.Since(startTime))
	}

	logger.Info("Render finished", "source", config.Input, "placeholders", finalOutput.Stats.Placeholders,
		"spliced", finalOutput.Stats.Spliced, "removed", finalOutput.Stats.Removed)
	return finalOutput, buf.Bytes(), nil
}

func buildOutput(config *models.RenderConfig, outcomes []includer.Outcome) *FinalOutput {
	finalOutput := &FinalOutput{
		Status:  "success",
		Source:  config.Input,
		Output:  config.Output,
		Results: []ResultOutput{},
	}

	for _, o := range outcomes {
		result := ResultOutput{Locator: o.Locator}
		if o.Spliced() {
			result.Status = db.StatusSpliced
			result.Nodes = o.Nodes
			finalOutput.Stats.Spliced++
		} else {
			result.Status = db.StatusRemoved
			result.Error = o.Err.Error()
			finalOutput.Stats.Removed++
		}
		finalOutput.Results = append(finalOutput.Results, result)
	}
	finalOutput.Stats.Placeholders = len(outcomes)

	if finalOutput.Stats.Removed > 0 {
		finalOutput.Status = "partial_failure"
	}
	return finalOutput
}

func recordRun(logger *slog.Logger, database *db.DB, runID int64, outcomes []includer.Outcome, stats Stats, elapsed time.Duration) {
	for _, o := range outcomes {
		status := db.StatusSpliced
		errorMessage := ""
		if !o.Spliced() {
			status = db.StatusRemoved
			errorMessage = o.Err.Error()
		}
		if err := database.InsertIncludeResult(runID, o.Index, o.Locator, status, o.Nodes, errorMessage); err != nil {
			logger.Warn("Failed to insert include result", "path", o.Locator, "error", err)
		}
	}

	if err := database.FinishRun(runID, stats.Placeholders, stats.Spliced, stats.Removed, elapsed); err != nil {
		logger.Warn("Failed to update run stats in DB", "run_id", runID, "error", err)
	}
}

func marshalReport(finalOutput *FinalOutput, format string) ([]byte, error) {
	if strings.ToLower(format) == "yaml" {
		return yaml.Marshal(finalOutput)
	}
	return json.MarshalIndent(finalOutput, "", "  ")
}

// applyFlags overrides config file values with explicitly set flags.
func applyFlags(c *cli.Context, config *models.RenderConfig) {
	if c.IsSet("in") {
		config.Input = c.String("in")
	}
	if c.IsSet("out") {
		config.Output = c.String("out")
	}
	if c.IsSet("base") {
		config.Base = c.String("base")
	}
	if c.IsSet("format") || config.Format == "" {
		config.Format = c.String("format")
	}
	if c.IsSet("history") {
		config.History = c.String("history")
	}
	if c.IsSet("quiet") {
		config.Quiet = c.Bool("quiet")
	}
}
