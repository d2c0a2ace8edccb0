package main

import (
	"fmt"
	"io"

	"github.com/andresuchdata/partsight/internal/config"
	"github.com/andresuchdata/partsight/internal/domain"
	"github.com/andresuchdata/partsight/internal/repository/file"
	"github.com/andresuchdata/partsight/internal/repository/postgres"
	"github.com/andresuchdata/partsight/internal/repository/source"
	"github.com/andresuchdata/partsight/internal/storage"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

// runExport validates the current snapshot and writes it to --out.
func runExport(c *cli.Context) error {
	now, err := referenceTime(c.String("now"))
	if err != nil {
		return err
	}

	svc, closer, err := openService(c)
	if err != nil {
		return err
	}
	defer closer.Close()

	snapshot, err := svc.Snapshot(c.Context, now)
	if err != nil {
		return err
	}

	out := c.String("out")
	dst, err := source.OpenFile(config.Load(), out)
	if err != nil {
		return err
	}
	if err := dst.SaveSnapshot(c.Context, snapshot); err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}

	logSnapshot(snapshot, out, "Snapshot exported")
	return nil
}

// runImport loads the --snapshot file and upserts it into the database in
// one transaction.
func runImport(c *cli.Context) error {
	location := c.String("snapshot")
	if location == "" {
		return fmt.Errorf("snapshot import needs --snapshot")
	}
	now, err := referenceTime(c.String("now"))
	if err != nil {
		return err
	}
	cfg := config.Load()

	src, err := source.OpenFile(cfg, location)
	if err != nil {
		return err
	}

	// 1. Read and validate before touching the database
	snapshot, err := src.LoadSnapshot(c.Context, now)
	if err != nil {
		return err
	}
	if err := domain.ValidateSnapshot(snapshot); err != nil {
		return err
	}

	// 2. Connect and optionally create tables
	db, err := source.OpenDB(cfg, c.String("db-url"))
	if err != nil {
		return err
	}
	defer db.Close()

	if c.Bool("init-schema") {
		if err := db.EnsureSchema(c.Context); err != nil {
			return err
		}
	}

	// 3. Upsert everything
	dst := postgres.NewSnapshotRepository(db, cfg.Forecast.HistoryDays, cfg.Forecast.Settings())
	if err := dst.SaveSnapshot(c.Context, snapshot); err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}

	logSnapshot(snapshot, location, "Snapshot imported")
	return nil
}

// runList prints the snapshot documents stored under --prefix, in object
// storage or with --drive in the Drive folder at that path.
func runList(c *cli.Context) error {
	cfg := config.Load()

	var (
		objects storage.ObjectStorage
		err     error
	)
	if c.Bool("drive") {
		objects, err = source.Drive(cfg.Drive)
	} else {
		objects, err = source.Objects(cfg.Storage, c.String("bucket"))
	}
	if err != nil {
		return err
	}

	infos, err := objects.ListObjects(c.Context, c.String("prefix"))
	if err != nil {
		return err
	}
	infos = snapshotObjects(infos)

	return render(c.App.Writer, c.String("format"), infos, func(w io.Writer) {
		fmt.Fprintln(w, "KEY\tSIZE")
		for _, info := range infos {
			fmt.Fprintf(w, "%s\t%d\n", info.Key, info.Size)
		}
	})
}

// snapshotObjects keeps the keys with a snapshot file extension.
func snapshotObjects(infos []storage.ObjectInfo) []storage.ObjectInfo {
	kept := make([]storage.ObjectInfo, 0, len(infos))
	for _, info := range infos {
		if _, err := file.FormatOf(info.Key); err == nil {
			kept = append(kept, info)
		}
	}
	return kept
}

func logSnapshot(snapshot *domain.Snapshot, location, msg string) {
	log.Info().
		Str("location", location).
		Int("items", len(snapshot.Items)).
		Int("suppliers", len(snapshot.Suppliers)).
		Int("orders", len(snapshot.Orders)).
		Msg(msg)
}
