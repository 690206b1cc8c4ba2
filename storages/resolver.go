package storages

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ImageResolver opens record images for the document composer.
// Public URLs of the store and bare object paths are read from the store,
// other http(s) URLs are fetched with HTTP.
type ImageResolver struct {
	Store  FileStore
	Bucket string
	HTTP   *http.Client
}

func (r *ImageResolver) OpenImage(ctx context.Context, ref string) (io.ReadCloser, error) {
	if r.Store != nil {
		if base := r.Store.PublicURL(r.Bucket, ""); base != "" && strings.HasPrefix(ref, base) {
			p, err := ObjectPathFromURL(r.Store, r.Bucket, ref)
			if err != nil {
				return nil, err
			}
			return r.Store.Open(ctx, r.Bucket, p)
		}
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return r.fetch(ctx, ref)
	}
	if r.Store == nil {
		return nil, ErrNotFound
	}
	p := CleanPath(ref)
	if p == "" {
		return nil, ErrInvalidPath
	}
	return r.Store.Open(ctx, r.Bucket, p)
}

func (r *ImageResolver) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	client := r.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/*")
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		_ = res.Body.Close()
		return nil, fmt.Errorf("image fetch %s: HTTP Status Code: %d", url, res.StatusCode)
	}
	return res.Body, nil
}
