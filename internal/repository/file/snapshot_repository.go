// Package file loads snapshots from JSON, YAML or XLSX documents stored on
// disk, in object storage or in Google Drive.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andresuchdata/partsight/internal/domain"
	"github.com/andresuchdata/partsight/internal/drive"
	"github.com/andresuchdata/partsight/internal/storage"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a snapshot document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXLSX Format = "xlsx"
)

// FormatOf picks the format from the file extension.
func FormatOf(location string) (Format, error) {
	switch strings.ToLower(filepath.Ext(location)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported snapshot file %q: want .json, .yaml or .xlsx", location)
	}
}

// SnapshotRepository reads a snapshot document from a local path, an
// s3://bucket/key or a gdrive://folder/file location. The document is read
// on every load.
type SnapshotRepository struct {
	location string
	objects  storage.ObjectStorage
	fallback domain.Settings
}

// NewSnapshotRepository returns a repository for location. objects may be
// nil when location is a local path.
func NewSnapshotRepository(location string, objects storage.ObjectStorage, fallback domain.Settings) *SnapshotRepository {
	return &SnapshotRepository{location: location, objects: objects, fallback: fallback}
}

func (r *SnapshotRepository) Source() string {
	return "file:" + r.location
}

func (r *SnapshotRepository) LoadSnapshot(ctx context.Context, now time.Time) (*domain.Snapshot, error) {
	format, err := FormatOf(r.location)
	if err != nil {
		return nil, err
	}

	data, err := r.read(ctx)
	if err != nil {
		return nil, err
	}

	snapshot, hasSettings, err := decode(format, data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.location, err)
	}

	// Explicit zero costs in the document are kept.
	if !hasSettings {
		snapshot.Settings = r.fallback
	}
	return snapshot, nil
}

// SaveSnapshot writes snapshot to the repository location as JSON or YAML.
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, snapshot *domain.Snapshot) error {
	format, err := FormatOf(r.location)
	if err != nil {
		return err
	}

	data, err := Encode(format, snapshot)
	if err != nil {
		return err
	}

	if key, ok := objectKey(r.location); ok {
		if r.objects == nil {
			return fmt.Errorf("no object storage configured for %s", r.location)
		}
		return r.objects.UploadObject(ctx, key, data)
	}

	if dir := filepath.Dir(r.location); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed creating directory for %s: %w", r.location, err)
		}
	}
	if err := os.WriteFile(r.location, data, 0o644); err != nil {
		return fmt.Errorf("failed writing %s: %w", r.location, err)
	}
	return nil
}

func (r *SnapshotRepository) read(ctx context.Context) ([]byte, error) {
	if key, ok := objectKey(r.location); ok {
		if r.objects == nil {
			return nil, fmt.Errorf("no object storage configured for %s", r.location)
		}
		return r.objects.GetObject(ctx, key)
	}

	data, err := os.ReadFile(r.location)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot file %s: %w", r.location, err)
	}
	return data, nil
}

// objectKey returns the store key of an s3:// or gdrive:// location.
func objectKey(location string) (string, bool) {
	if _, key, ok := storage.ParseObjectURI(location); ok {
		return key, true
	}
	return drive.ParseURI(location)
}

// Decode parses a snapshot document and normalizes status labels.
func Decode(format Format, data []byte) (*domain.Snapshot, error) {
	snapshot, _, err := decode(format, data)
	return snapshot, err
}

// decode also reports whether the document carries its own settings.
func decode(format Format, data []byte) (*domain.Snapshot, bool, error) {
	var (
		snapshot    *domain.Snapshot
		hasSettings bool
		err         error
	)

	switch format {
	case FormatJSON:
		snapshot, hasSettings, err = decodeJSON(data)
	case FormatYAML:
		snapshot, hasSettings, err = decodeYAML(data)
	case FormatXLSX:
		return decodeXLSX(bytes.NewReader(data))
	default:
		return nil, false, fmt.Errorf("unsupported snapshot format %q", format)
	}
	if err != nil {
		return nil, false, err
	}

	if err := normalizeStatuses(snapshot); err != nil {
		return nil, false, err
	}
	return snapshot, hasSettings, nil
}

// Encode renders snapshot as JSON or YAML.
func Encode(format Format, snapshot *domain.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	switch format {
	case FormatJSON:
		return data, nil
	case FormatYAML:
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("encode snapshot: %w", err)
		}
		out, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encode snapshot yaml: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("writing %s snapshots is not supported", format)
	}
}

// document shadows Settings so an absent or null settings key is
// distinguishable from explicit zeros.
type document struct {
	domain.Snapshot
	Settings *domain.Settings `json:"settings"`
}

func decodeJSON(data []byte) (*domain.Snapshot, bool, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false, fmt.Errorf("invalid json snapshot: %w", err)
	}

	snapshot := doc.Snapshot
	if doc.Settings == nil {
		return &snapshot, false, nil
	}
	snapshot.Settings = *doc.Settings
	return &snapshot, true, nil
}

// decodeYAML goes through JSON so the domain types keep a single set of
// field tags.
func decodeYAML(data []byte) (*domain.Snapshot, bool, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, false, fmt.Errorf("invalid yaml snapshot: %w", err)
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, false, fmt.Errorf("invalid yaml snapshot: %w", err)
	}
	return decodeJSON(asJSON)
}

func normalizeStatuses(snapshot *domain.Snapshot) error {
	for i := range snapshot.Orders {
		order := &snapshot.Orders[i]
		status, err := domain.ParseOrderStatus(string(order.Status))
		if err != nil {
			return fmt.Errorf("order %s: %w", order.ID, err)
		}
		order.Status = status

		for j := range order.Items {
			line := &order.Items[j]
			lineStatus, err := domain.ParseLineItemStatus(string(line.Status))
			if err != nil {
				return fmt.Errorf("order %s line %s: %w", order.ID, line.PartNumber, err)
			}
			line.Status = lineStatus
		}
	}
	return nil
}
