package localfs

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ecogroup/ecgsite/storages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), "/uploads/")
	require.NoError(t, err)
	return s
}

func TestUploadOpenDelete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u, err := s.Upload(ctx, storages.BucketAttachments, "products/a b.png", strings.NewReader("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/attachments/products/a%20b.png", u)

	p, err := storages.ObjectPathFromURL(s, storages.BucketAttachments, u)
	require.NoError(t, err)
	assert.Equal(t, "products/a b.png", p)

	rc, err := s.Open(ctx, storages.BucketAttachments, "products/a b.png")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, s.Delete(ctx, storages.BucketAttachments, "products/a b.png"))
	assert.ErrorIs(t, s.Delete(ctx, storages.BucketAttachments, "products/a b.png"), storages.ErrNotFound)
	_, err = s.Open(ctx, storages.BucketAttachments, "products/a b.png")
	assert.ErrorIs(t, err, storages.ErrNotFound)
}

func TestRejectsEscapingPaths(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	_, err := s.Upload(ctx, storages.BucketAttachments, "../../etc/passwd", strings.NewReader("x"), "")
	assert.ErrorIs(t, err, storages.ErrInvalidPath)
	_, err = s.Upload(ctx, "a/b", "x.txt", strings.NewReader("x"), "")
	assert.ErrorIs(t, err, storages.ErrInvalidPath)
	_, err = s.Open(ctx, storages.BucketAttachments, "")
	assert.ErrorIs(t, err, storages.ErrInvalidPath)
}

func TestListSearchAndPaging(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	for _, name := range []string{"TIS.pdf", "avk-gaz.pdf", "avk-coverPage.jpg", "notes.txt"} {
		_, err := s.Upload(ctx, storages.BucketCatalogues, name, strings.NewReader(name), "")
		require.NoError(t, err)
	}
	all, err := s.List(ctx, storages.BucketCatalogues, storages.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "TIS.pdf", all[0].Name)
	assert.Equal(t, int64(len("TIS.pdf")), all[0].Size)

	found, err := s.List(ctx, storages.BucketCatalogues, storages.ListOptions{Search: "AVK-COVER"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "avk-coverPage.jpg", found[0].Name)

	page, err := s.List(ctx, storages.BucketCatalogues, storages.ListOptions{Offset: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	empty, err := s.List(ctx, "nothing-here", storages.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestHandlerServesFilesNotDirs(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u, err := s.Upload(ctx, storages.BucketAttachments, "general/logo.txt", strings.NewReader("logo"), "")
	require.NoError(t, err)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	res, err := http.Get(srv.URL + u)
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "logo", string(body))

	res, err = http.Get(srv.URL + "/uploads/attachments/general/")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
