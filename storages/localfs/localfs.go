// Package localfs keeps bucket objects as plain files under one root directory
package localfs

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ecogroup/ecgsite/storages"
)

type Store struct {
	Root          string // <root>/<bucket>/<object path>
	PublicBaseURL string // e.g. "/uploads"
}

var _ storages.FileStore = (*Store)(nil)

func New(root, publicBaseURL string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{Root: root, PublicBaseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

func (s *Store) dirPath(bucket, prefix string) (string, error) {
	b := storages.CleanPath(bucket)
	if b == "" || strings.Contains(b, "/") {
		return "", storages.ErrInvalidPath
	}
	dir := filepath.Join(s.Root, b)
	if prefix == "" {
		return dir, nil
	}
	p := storages.CleanPath(prefix)
	if p == "" {
		return "", storages.ErrInvalidPath
	}
	return filepath.Join(dir, filepath.FromSlash(p)), nil
}

func (s *Store) filePath(bucket, objectPath string) (string, error) {
	if storages.CleanPath(objectPath) == "" {
		return "", storages.ErrInvalidPath
	}
	return s.dirPath(bucket, objectPath)
}

func (s *Store) Upload(ctx context.Context, bucket, objectPath string, r io.Reader, _ string) (string, error) {
	dst, err := s.filePath(bucket, objectPath)
	if err != nil {
		return "", err
	}
	if err = os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err = io.Copy(tmp, readerWithContext(ctx, r)); err != nil {
		tmp.Close()
		return "", err
	}
	if err = tmp.Close(); err != nil {
		return "", err
	}
	if err = os.Rename(tmp.Name(), dst); err != nil {
		return "", err
	}
	return s.PublicURL(bucket, storages.CleanPath(objectPath)), nil
}

func (s *Store) Delete(_ context.Context, bucket, objectPath string) error {
	p, err := s.filePath(bucket, objectPath)
	if err != nil {
		return err
	}
	if err = os.Remove(p); errors.Is(err, fs.ErrNotExist) {
		return storages.ErrNotFound
	}
	return err
}

func (s *Store) List(_ context.Context, bucket string, opts storages.ListOptions) ([]storages.Object, error) {
	dir, err := s.dirPath(bucket, opts.Prefix)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []storages.Object{}, nil
	}
	if err != nil {
		return nil, err
	}
	search := strings.ToLower(opts.Search)
	objects := []storages.Object{}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(e.Name()), search) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		objects = append(objects, storages.Object{
			Name:        e.Name(),
			Size:        info.Size(),
			ContentType: mime.TypeByExtension(path.Ext(e.Name())),
			UpdatedAt:   info.ModTime().UTC(),
		})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Name < objects[j].Name })
	if opts.Offset >= len(objects) {
		return []storages.Object{}, nil
	}
	objects = objects[opts.Offset:]
	if limit := opts.LimitOrDefault(); len(objects) > limit {
		objects = objects[:limit]
	}
	return objects, nil
}

func (s *Store) Open(_ context.Context, bucket, objectPath string) (io.ReadCloser, error) {
	p, err := s.filePath(bucket, objectPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, storages.ErrNotFound
	}
	return f, err
}

func (s *Store) PublicURL(bucket, objectPath string) string {
	u := s.PublicBaseURL + "/" + url.PathEscape(bucket) + "/"
	if objectPath == "" {
		return u
	}
	segs := strings.Split(objectPath, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return u + strings.Join(segs, "/")
}

// Handler serves the public URLs; mount it under PublicBaseURL
func (s *Store) Handler() http.Handler {
	return http.StripPrefix(s.PublicBaseURL, http.FileServer(noDirFS{http.Dir(s.Root)}))
}

// noDirFS hides directory listings
type noDirFS struct {
	fs http.FileSystem
}

func (n noDirFS) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	if st, err := f.Stat(); err == nil && st.IsDir() {
		f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
