package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/html-includer/internal/history"
	"github.com/dtnitsch/html-includer/internal/render"
	"github.com/dtnitsch/html-includer/models"
	"github.com/dtnitsch/html-includer/pkg/db"
)

func main() {
	app := &cli.App{
		Name:  "html-includer",
		Usage: "Splice HTML fragments into pages at data-include placeholders",
		Commands: []*cli.Command{
			{
				Name:   "render",
				Usage:  "Resolve every data-include placeholder in a page",
				Action: render.RenderAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "in",
						Aliases: []string{"i"},
						Usage:   "Input HTML page",
					},
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Write the rendered page here instead of stdout",
					},
					&cli.StringFlag{
						Name:  "base",
						Usage: "Base URL or directory for relative locators (default: the input's directory)",
					},
					&cli.StringFlag{
						Name:  "config",
						Value: models.DefaultConfigFile,
						Usage: "Optional YAML config file; flags override its values",
					},
					&cli.StringFlag{
						Name:  "format",
						Value: "json",
						Usage: "Report format: json or yaml",
					},
					&cli.StringFlag{
						Name:  "history",
						Usage: "Record the run in this SQLite database",
					},
					&cli.BoolFlag{
						Name:    "quiet",
						Aliases: []string{"q"},
						Usage:   "Only log errors",
					},
				},
			},
			{
				Name:      "history",
				Usage:     "List recorded runs, or the include results of one run",
				ArgsUsage: "[run-id]",
				Action:    history.HistoryAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "db",
						Value: db.DefaultDBName,
						Usage: "History database path",
					},
					&cli.IntFlag{
						Name:  "limit",
						Value: 20,
						Usage: "Maximum number of runs to list",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
