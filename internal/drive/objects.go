package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/andresuchdata/partsight/internal/storage"
)

// Scheme prefixes snapshot locations kept in Drive, e.g.
// gdrive://Inventory/2025/shop.xlsx.
const Scheme = "gdrive://"

// ErrReadOnly is returned on writes; the service account only has the
// read-only scope.
var ErrReadOnly = errors.New("drive storage is read-only")

var _ storage.ObjectStorage = (*Service)(nil)

// ParseURI returns the slash-separated path below the root folder. ok is
// false for anything that is not a Drive file location.
func ParseURI(uri string) (key string, ok bool) {
	if !strings.HasPrefix(uri, Scheme) {
		return "", false
	}
	key = strings.TrimLeft(strings.TrimPrefix(uri, Scheme), "/")
	if key == "" || strings.HasSuffix(key, "/") {
		return "", false
	}
	return key, true
}

// ListObjects lists the files in the folder at prefix. Native Google Sheets
// are listed with an .xlsx suffix since that is how they download.
func (s *Service) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	prefix = strings.Trim(prefix, "/")

	folderID, err := s.FindFolderByPath(ctx, prefix)
	if err != nil {
		return nil, err
	}
	children, err := s.ListFiles(ctx, folderID)
	if err != nil {
		return nil, err
	}

	infos := make([]storage.ObjectInfo, 0, len(children))
	for _, f := range children {
		name := f.Name
		switch f.MimeType {
		case mimeFolder:
			continue
		case mimeSpreadsheet:
			if !strings.EqualFold(path.Ext(name), ".xlsx") {
				name += ".xlsx"
			}
		}
		infos = append(infos, storage.ObjectInfo{Key: path.Join(prefix, name), Size: f.Size})
	}
	return infos, nil
}

// GetObject downloads the file at key.
func (s *Service) GetObject(ctx context.Context, key string) ([]byte, error) {
	dir, name := path.Split(strings.Trim(key, "/"))

	folderID, err := s.FindFolderByPath(ctx, dir)
	if err != nil {
		return nil, err
	}
	f, err := s.findFile(ctx, folderID, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}

	var buf bytes.Buffer
	if err := s.DownloadFile(ctx, f, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Service) UploadObject(ctx context.Context, key string, data []byte) error {
	return fmt.Errorf("upload %s: %w", key, ErrReadOnly)
}

// findFile matches name exactly, then falls back to a native spreadsheet
// named without its .xlsx suffix.
func (s *Service) findFile(ctx context.Context, folderID, name string) (*File, error) {
	found, err := s.files.list(ctx, query{parent: folderID, name: name})
	if err != nil {
		return nil, fmt.Errorf("error finding file %s: %w", name, err)
	}
	for _, f := range found {
		if f.MimeType != mimeFolder {
			return f, nil
		}
	}

	if ext := path.Ext(name); strings.EqualFold(ext, ".xlsx") {
		sheets, err := s.files.list(ctx, query{parent: folderID, name: strings.TrimSuffix(name, ext), mimeType: mimeSpreadsheet})
		if err != nil {
			return nil, fmt.Errorf("error finding sheet %s: %w", name, err)
		}
		if len(sheets) > 0 {
			return sheets[0], nil
		}
	}

	return nil, storage.ErrObjectNotFound
}
