// Package storages keeps uploaded files and PDF catalogues in named buckets
package storages

import (
	"context"
	"errors"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	BucketAttachments = "attachments"
	BucketCatalogues  = "catalogues"
)

var (
	ErrNotFound    = errors.New("storages: object not found")
	ErrInvalidPath = errors.New("storages: invalid object path")
)

type Object struct {
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ListOptions struct {
	Prefix string // folder
	Search string // case-insensitive substring of the name
	Limit  int    // 0 = 100
	Offset int
}

func (o ListOptions) LimitOrDefault() int {
	if o.Limit <= 0 {
		return 100
	}
	return o.Limit
}

type FileStore interface {
	// Upload stores r under bucket/objectPath and returns the public URL
	Upload(ctx context.Context, bucket, objectPath string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, bucket, objectPath string) error
	// List returns the objects directly under opts.Prefix, sorted by name
	List(ctx context.Context, bucket string, opts ListOptions) ([]Object, error)
	Open(ctx context.Context, bucket, objectPath string) (io.ReadCloser, error)
	PublicURL(bucket, objectPath string) string
}

// ObjectName builds `<folder>/<uuid>.<ext>` keeping the extension of the uploaded file name
func ObjectName(folder, filename string) string {
	if folder == "" {
		folder = "general"
	}
	name := uuid.NewString()
	if ext := strings.ToLower(path.Ext(filename)); ext != "" && len(ext) <= 8 {
		name += ext
	}
	return path.Join(CleanPath(folder), name)
}

// CleanPath normalizes an object path; it returns "" for paths escaping the bucket
func CleanPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	cleaned := path.Clean("/" + p)
	if cleaned == "/" || strings.Contains(p, "..") {
		return ""
	}
	return strings.TrimPrefix(cleaned, "/")
}

// ObjectPathFromURL recovers the object path of a public URL issued by fs.
// URLs from elsewhere fall back to their last path segment.
func ObjectPathFromURL(fs FileStore, bucket, publicURL string) (string, error) {
	base := fs.PublicURL(bucket, "")
	var p string
	if i := strings.IndexAny(publicURL, "?#"); i >= 0 {
		publicURL = publicURL[:i]
	}
	if rest, ok := strings.CutPrefix(publicURL, base); ok && base != "" {
		p = rest
	} else {
		p = path.Base(publicURL)
	}
	p, err := url.PathUnescape(p)
	if err != nil {
		return "", ErrInvalidPath
	}
	if p = CleanPath(p); p == "" {
		return "", ErrInvalidPath
	}
	return p, nil
}
