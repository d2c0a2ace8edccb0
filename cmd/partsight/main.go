package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/andresuchdata/partsight/internal/config"
	"github.com/andresuchdata/partsight/internal/repository/source"
	"github.com/andresuchdata/partsight/internal/service"
	"github.com/andresuchdata/partsight/pkg/logger"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db-url",
		Usage:   "Database connection string (defaults to the DB_* settings)",
		EnvVars: []string{"DATABASE_URL"},
	}
}

func newSnapshotFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "snapshot",
		Usage:   "Read the snapshot from a .json, .yaml or .xlsx file, s3://bucket/key or gdrive://folder/file instead of the database",
		EnvVars: []string{"FORECAST_SNAPSHOT"},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("partsight failed")
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "partsight",
		Usage: "Forecast part demand, flag reorders and score suppliers",
		Flags: []cli.Flag{
			newDBURLFlag(),
			newSnapshotFlag(),
			&cli.StringFlag{
				Name:  "now",
				Usage: "Reference time as RFC3339 or YYYY-MM-DD (defaults to the current time)",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: table or json",
				Value: formatTable,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.ConfigureWriter(os.Stderr, "console", c.String("log-level"))
			return checkFormat(c.String("format"))
		},
		Commands: []*cli.Command{
			{
				Name:  "forecast",
				Usage: "Forecast next-period usage, reorder point and EOQ per item",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "part", Usage: "Only forecast this part number"},
				},
				Action: runForecast,
			},
			{
				Name:  "health",
				Usage: "Show current stock health per item",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "alerts", Usage: "Only items at or below their minimum, most urgent first"},
				},
				Action: runHealth,
			},
			{
				Name:  "suppliers",
				Usage: "Score suppliers on delivery, quality, lead time and response",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "Only score this supplier"},
				},
				Action: runSuppliers,
			},
			{
				Name:  "snapshot",
				Usage: "Move snapshots between the database, files and object storage",
				Subcommands: []*cli.Command{
					{
						Name:  "export",
						Usage: "Write the current snapshot to a .json or .yaml file or s3://bucket/key",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "out", Usage: "Destination", Required: true},
						},
						Action: runExport,
					},
					{
						Name:  "import",
						Usage: "Load the --snapshot file into the database",
						Flags: []cli.Flag{
							&cli.BoolFlag{Name: "init-schema", Usage: "Create missing tables first"},
						},
						Action: runImport,
					},
					{
						Name:  "list",
						Usage: "List snapshot files in object storage or Google Drive",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "bucket", Usage: "Bucket (defaults to STORAGE_BUCKET)"},
							&cli.StringFlag{Name: "prefix", Usage: "Key prefix, or folder path with --drive"},
							&cli.BoolFlag{Name: "drive", Usage: "List the Google Drive folder instead of the bucket"},
						},
						Action: runList,
					},
				},
			},
		},
	}
}

// openService builds a forecast service over the selected snapshot source.
// One-shot commands do not use the redis cache.
func openService(c *cli.Context) (*service.ForecastService, io.Closer, error) {
	cfg := config.Load()

	repo, closer, err := source.Open(cfg, source.Options{
		Location:    c.String("snapshot"),
		DatabaseURL: c.String("db-url"),
	})
	if err != nil {
		return nil, nil, err
	}

	return service.NewForecastService(repo, nil, cfg.Forecast.Workers), closer, nil
}

var nowLayouts = []string{time.RFC3339, "2006-01-02"}

// referenceTime parses raw or returns the current UTC time when empty.
func referenceTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Now().UTC(), nil
	}
	for _, layout := range nowLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --now %q: want RFC3339 or YYYY-MM-DD", raw)
}
