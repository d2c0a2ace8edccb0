package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrObjectNotFound is returned when a key does not exist in the bucket.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStorage captures the minimal S3-compatible operations snapshot files need.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	GetObject(ctx context.Context, key string) ([]byte, error)
	UploadObject(ctx context.Context, key string, data []byte) error
}

const objectScheme = "s3://"

// ParseObjectURI splits "s3://bucket/key" into bucket and key. ok is false
// for anything that is not an object URI, e.g. a local path.
func ParseObjectURI(uri string) (bucket, key string, ok bool) {
	if !strings.HasPrefix(uri, objectScheme) {
		return "", "", false
	}
	rest := strings.TrimPrefix(uri, objectScheme)
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
