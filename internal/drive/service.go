// Package drive reads snapshot workbooks and documents from Google Drive
// with a read-only service account.
package drive

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/andresuchdata/partsight/internal/storage"
	"golang.org/x/oauth2/google"
	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	mimeFolder      = "application/vnd.google-apps.folder"
	mimeSpreadsheet = "application/vnd.google-apps.spreadsheet"
	mimeXLSX        = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type File struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	ModifiedTime string `json:"modifiedTime,omitempty"`
	Size         int64  `json:"size,string,omitempty"`
}

// query selects the non-trashed children of parent, optionally narrowed
// by exact name and mime type.
type query struct {
	parent   string
	name     string
	mimeType string
}

// String renders q in the Drive search syntax.
func (q query) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "'%s' in parents and trashed = false", escape(q.parent))
	if q.name != "" {
		fmt.Fprintf(&b, " and name = '%s'", escape(q.name))
	}
	if q.mimeType != "" {
		fmt.Fprintf(&b, " and mimeType = '%s'", escape(q.mimeType))
	}
	return b.String()
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

// files is the part of the Drive API the service calls.
type files interface {
	list(ctx context.Context, q query) ([]*File, error)
	download(ctx context.Context, fileID string) (io.ReadCloser, error)
	export(ctx context.Context, fileID, mimeType string) (io.ReadCloser, error)
}

type apiFiles struct {
	srv *driveapi.Service
}

func (a apiFiles) list(ctx context.Context, q query) ([]*File, error) {
	var out []*File
	err := a.srv.Files.List().
		Q(q.String()).
		Fields("nextPageToken, files(id, name, mimeType, modifiedTime, size)").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Pages(ctx, func(page *driveapi.FileList) error {
			for _, f := range page.Files {
				out = append(out, &File{
					ID:           f.Id,
					Name:         f.Name,
					MimeType:     f.MimeType,
					ModifiedTime: f.ModifiedTime,
					Size:         f.Size,
				})
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a apiFiles) download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	resp, err := a.srv.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (a apiFiles) export(ctx context.Context, fileID, mimeType string) (io.ReadCloser, error) {
	resp, err := a.srv.Files.Export(fileID, mimeType).Context(ctx).Download()
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Service resolves slash-separated paths below a root folder.
type Service struct {
	files files
	root  string
}

// NewService authenticates with a service account key. root is a folder id,
// or "root" for the account's own drive.
func NewService(ctx context.Context, credentialsJSON []byte, root string) (*Service, error) {
	config, err := google.JWTConfigFromJSON(credentialsJSON, driveapi.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse drive credentials: %w", err)
	}

	srv, err := driveapi.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive client: %w", err)
	}

	return newService(apiFiles{srv: srv}, root), nil
}

func newService(f files, root string) *Service {
	if root == "" {
		root = "root"
	}
	return &Service{files: f, root: root}
}

// ListFiles returns the children of folderID.
func (s *Service) ListFiles(ctx context.Context, folderID string) ([]*File, error) {
	if folderID == "" {
		folderID = s.root
	}

	children, err := s.files.list(ctx, query{parent: folderID})
	if err != nil {
		return nil, fmt.Errorf("unable to list drive folder %s: %w", folderID, err)
	}
	return children, nil
}

// FindFolderByPath walks path from the root folder and returns the id of
// the last segment.
func (s *Service) FindFolderByPath(ctx context.Context, path string) (string, error) {
	currentID := s.root

	for _, folder := range strings.Split(path, "/") {
		if folder == "" {
			continue
		}

		found, err := s.files.list(ctx, query{parent: currentID, name: folder, mimeType: mimeFolder})
		if err != nil {
			return "", fmt.Errorf("error finding folder %s: %w", folder, err)
		}
		if len(found) == 0 {
			return "", fmt.Errorf("drive folder %q in %q: %w", folder, path, storage.ErrObjectNotFound)
		}

		currentID = found[0].ID
	}

	return currentID, nil
}

// DownloadFile copies the content of f to w. Native Google Sheets are
// exported as xlsx.
func (s *Service) DownloadFile(ctx context.Context, f *File, w io.Writer) error {
	var (
		body io.ReadCloser
		err  error
	)
	if f.MimeType == mimeSpreadsheet {
		body, err = s.files.export(ctx, f.ID, mimeXLSX)
	} else {
		body, err = s.files.download(ctx, f.ID)
	}
	if err != nil {
		return fmt.Errorf("unable to download %s: %w", f.Name, err)
	}
	defer body.Close()

	_, err = io.Copy(w, body)
	return err
}
