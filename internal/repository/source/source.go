// Package source picks and builds the snapshot repository for a process:
// Postgres by default, or a JSON/YAML/XLSX file on disk, in object storage
// or in Google Drive.
package source

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/andresuchdata/partsight/internal/config"
	"github.com/andresuchdata/partsight/internal/drive"
	"github.com/andresuchdata/partsight/internal/repository"
	"github.com/andresuchdata/partsight/internal/repository/file"
	"github.com/andresuchdata/partsight/internal/repository/postgres"
	"github.com/andresuchdata/partsight/internal/storage"
)

// Options override the configured source. Both are optional.
type Options struct {
	// Location is a file path, s3://bucket/key or gdrive://folder/file.
	Location string
	// DatabaseURL replaces the DB_* settings when set.
	DatabaseURL string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open returns the repository for opts, falling back to cfg. The closer
// releases the database pool when one was opened.
func Open(cfg *config.Config, opts Options) (repository.SnapshotRepository, io.Closer, error) {
	location := strings.TrimSpace(opts.Location)
	if location == "" {
		location = strings.TrimSpace(cfg.Forecast.Snapshot)
	}

	if location != "" {
		repo, err := OpenFile(cfg, location)
		if err != nil {
			return nil, nil, err
		}
		return repo, nopCloser{}, nil
	}

	db, err := OpenDB(cfg, opts.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewSnapshotRepository(db, cfg.Forecast.HistoryDays, cfg.Forecast.Settings()), db, nil
}

// OpenDB connects to databaseURL, or to the configured database when empty.
func OpenDB(cfg *config.Config, databaseURL string) (*postgres.DB, error) {
	if databaseURL != "" {
		return postgres.Open(databaseURL)
	}
	return postgres.NewDB(&cfg.Database)
}

// OpenFile builds a file repository. Object URIs need STORAGE_* settings
// and Drive locations need GOOGLE_DRIVE_* settings.
func OpenFile(cfg *config.Config, location string) (*file.SnapshotRepository, error) {
	if _, err := file.FormatOf(location); err != nil {
		return nil, err
	}

	if _, ok := drive.ParseURI(location); ok {
		folders, err := Drive(cfg.Drive)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", location, err)
		}
		return file.NewSnapshotRepository(location, folders, cfg.Forecast.Settings()), nil
	}

	bucket, _, ok := storage.ParseObjectURI(location)
	if !ok {
		return file.NewSnapshotRepository(location, nil, cfg.Forecast.Settings()), nil
	}

	objects, err := Objects(cfg.Storage, bucket)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", location, err)
	}
	return file.NewSnapshotRepository(location, objects, cfg.Forecast.Settings()), nil
}

// Objects returns an object store client bound to bucket, or to the
// configured bucket when bucket is empty.
func Objects(cfg config.StorageConfig, bucket string) (*storage.MinioClient, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("object storage is not configured (STORAGE_ENDPOINT, STORAGE_ACCESS_KEY, STORAGE_SECRET_KEY)")
	}

	client, err := storage.NewMinioClient(storage.MinioConfig{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		UseSSL:    cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	if bucket != "" && bucket != cfg.Bucket {
		client = client.WithBucket(bucket)
	}
	return client, nil
}

// Drive returns a read-only Drive client rooted at the configured folder.
func Drive(cfg config.DriveConfig) (*drive.Service, error) {
	credentials, err := cfg.Credentials()
	if err != nil {
		return nil, err
	}
	return drive.NewService(context.Background(), credentials, cfg.RootFolderID)
}
