package conf

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecogroup/ecgsite/catalog"
	"github.com/ecogroup/ecgsite/sec"
	"github.com/ecogroup/ecgsite/storages/localfs"
	"github.com/ecogroup/ecgsite/throttle"
	"github.com/ecogroup/ecgsite/web"
)

func writeConf(t *testing.T, root string, files map[string]string) {
	t.Helper()
	dir := filepath.Join(root, "config")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
}

func minimalConfs(t *testing.T) map[string]string {
	t.Helper()
	hash, err := sec.HashPassword("pw")
	require.NoError(t, err)
	return map[string]string{
		".core.json":        `{"app_name": "ecgtest", "throttle": {"contact": {"burst": 1, "increment": 1, "period_sec": 3600}}}`,
		".web-session.json": `{"enckey": "0123456789abcdef0123456789abcdef", "expire_sliding": 3600, "expire_hardcap": 86400}`,
		".admin.json":       `{"username": "admin", "password_hash": "` + hash + `", "jwt_secret": "0123456789abcdef0123456789abcdef"}`,
	}
}

// prepared runs the same preparation order as the server, without starting services
func prepared(t *testing.T, root string) *Core {
	t.Helper()
	c, err := LoadCore(root)
	require.NoError(t, err)
	c.RootCtx, c.RootCancel = context.WithCancel(context.Background())
	t.Cleanup(c.RootCancel)
	c.BackendHttpClient = http.DefaultClient

	require.NoError(t, c.PrepareKVDatabase())
	require.NoError(t, c.PrepareSQLDatabases())
	require.NoError(t, c.PrepareBackend())
	require.NoError(t, c.LoadStorageConf())
	require.NoError(t, c.PrepareFileStore())
	require.NoError(t, c.PrepareI18n())
	require.NoError(t, c.PrepareWebSessions())
	require.NoError(t, c.LoadAdminConf())
	require.NoError(t, c.PrepareHTMLTemplateStore())
	require.NoError(t, c.PreparePDFGenerator())
	c.PrepareThrottleBucketStore(time.Minute, time.Hour)
	c.PrepareJobScheduler()
	c.PrepareLiveFeed()
	t.Cleanup(c.ResourceCleanUp)
	return c
}

func TestLoadCoreDefaults(t *testing.T) {
	root := t.TempDir()
	writeConf(t, root, map[string]string{".core.json": `{"app_name": "ecgtest"}`})

	c, err := LoadCore(root)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", c.Listen)
	assert.Equal(t, "main", c.CatalogDB)
	assert.Equal(t, filepath.Join(root, "run", "ecgtest.sock"), c.SocketFile())
	assert.Equal(t, "/abs/dir", c.Path("/abs/dir"))
	assert.Equal(t, filepath.Join(root, "data"), c.Path(c.DataDir))
}

func TestLoadCoreMissingFile(t *testing.T) {
	_, err := LoadCore(t.TempDir())
	require.ErrorIs(t, err, ErrNoConf)
}

func TestPrepareFallsBackToLocalStores(t *testing.T) {
	root := t.TempDir()
	writeConf(t, root, minimalConfs(t))
	c := prepared(t, root)

	assert.Equal(t, "local", c.Backend.Name())
	assert.Equal(t, "memory", c.KVDBConf.Type)
	assert.IsType(t, &localfs.Store{}, c.Files)
	assert.DirExists(t, filepath.Join(root, "data"))
	assert.DirExists(t, filepath.Join(root, "uploads"))
	assert.Equal(t, "ecgtest", c.AdminConf.Issuer)

	for id := range DefaultThrottle {
		_, ok := c.ThrottleBucketStore.GetBucketGroup(id)
		assert.True(t, ok, id)
	}
	now := time.Now()
	assert.True(t, c.ThrottleBucketStore.Allow(web.ThrottleContact, "10.0.0.1", now))
	assert.False(t, c.ThrottleBucketStore.Allow(web.ThrottleContact, "10.0.0.1", now), "custom burst of 1")
}

func TestWebAppServesSite(t *testing.T) {
	root := t.TempDir()
	writeConf(t, root, minimalConfs(t))
	c := prepared(t, root)
	handler := c.WebApp().Router()

	for _, target := range []string{"/", "/catalogue", "/api/categories", "/api/company-profile.pdf"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusOK, rec.Code, target)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/api/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPrepareRejectsBadConf(t *testing.T) {
	cases := map[string]map[string]string{
		"kv type":      {".kv-databases.json": `{"type": "memcached"}`},
		"storage type": {".storages.json": `{"type": "ftp"}`},
		"admin secret": {".admin.json": `{"username": "admin", "password_hash": "x", "jwt_secret": "short"}`},
		"session key":  {".web-session.json": `{"enckey": "too-short"}`},
		"paper":        {".core.json": `{"app_name": "ecgtest", "paper": "A3"}`},
	}
	for name, override := range cases {
		t.Run(name, func(t *testing.T) {
			root := t.TempDir()
			files := minimalConfs(t)
			for k, v := range override {
				files[k] = v
			}
			writeConf(t, root, files)
			c, err := LoadCore(root)
			require.NoError(t, err)
			c.RootCtx = context.Background()

			errs := []error{
				c.PrepareKVDatabase(),
				c.LoadStorageConf(),
				c.PrepareFileStore(),
				c.PrepareWebSessions(),
				c.LoadAdminConf(),
				c.PreparePDFGenerator(),
			}
			failed := false
			for _, err := range errs {
				failed = failed || err != nil
			}
			assert.True(t, failed)
		})
	}
}

func TestRemoteStorageWithPlaceholdersServesSamples(t *testing.T) {
	root := t.TempDir()
	files := minimalConfs(t)
	files[".storages.json"] = `{"type": "remote", "url": "https://your-project.supabase.co", "key": "your-anon-key"}`
	writeConf(t, root, files)
	c := prepared(t, root)

	assert.Nil(t, c.Files)
	assert.Nil(t, c.LocalFiles)
	list, err := c.CatalogueCache.Get(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, list)
}

func TestScheduleMaintenance(t *testing.T) {
	root := t.TempDir()
	writeConf(t, root, minimalConfs(t))
	c := prepared(t, root)
	c.ScheduleMaintenance()

	var ids []string
	for _, job := range c.JobScheduler.GetCronJobs() {
		ids = append(ids, job.ID)
	}
	assert.ElementsMatch(t, []string{"session-sweep", "catalogue-refresh"}, ids)
}

func runCommand(t *testing.T, c *Core, line string) (string, error) {
	t.Helper()
	args := strings.Fields(line)
	hnd, ok := c.Commands().Get(args[0])
	require.True(t, ok, args[0])
	var out strings.Builder
	err := hnd.Fn(context.Background(), args[1:], &out)
	return out.String(), err
}

func TestCommands(t *testing.T) {
	root := t.TempDir()
	writeConf(t, root, minimalConfs(t))
	c := prepared(t, root)
	ctx := context.Background()

	p, err := c.Backend.CreateProduct(ctx, &catalog.Product{
		Name:     "BS-200 Compact",
		Category: "BioSteps BS Systems",
		IsActive: true,
	})
	require.NoError(t, err)

	out, err := runCommand(t, c, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "backend         local")
	assert.Contains(t, out, "products        1")

	out, err = runCommand(t, c, "compose "+p.ID+" out")
	require.NoError(t, err)
	assert.Contains(t, out, "ECG_BS-200_Compact_Specification.pdf")
	assert.FileExists(t, filepath.Join(root, "out", "ECG_BS-200_Compact_Specification.pdf"))

	_, err = runCommand(t, c, "compose missing-id out")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	_, err = runCommand(t, c, "compose "+p.ID)
	assert.ErrorIs(t, err, errUsage)

	dir := t.TempDir()
	out, err = runCommand(t, c, "profile "+dir)
	require.NoError(t, err)
	assert.Contains(t, out, "pages")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	out, err = runCommand(t, c, "reload-i18n")
	require.NoError(t, err)
	assert.Equal(t, "translations reloaded\n", out)

	out, err = runCommand(t, c, "refresh-catalogues")
	require.NoError(t, err)
	assert.Contains(t, out, "catalogues")

	c.ActionLocks.Store("catalogue-refresh", struct{}{})
	_, err = runCommand(t, c, "refresh-catalogues")
	assert.ErrorIs(t, err, errBusy)
}

func TestDefaultThrottleCoversRouterGroups(t *testing.T) {
	for _, id := range []string{web.ThrottleContact, web.ThrottleQuote, web.ThrottleLogin} {
		bc, ok := DefaultThrottle[id]
		require.True(t, ok, id)
		bc.Normalize()
		assert.Equal(t, throttle.BucketConf{Burst: bc.Burst, Increment: 1, PeriodSec: bc.PeriodSec, Period: time.Duration(bc.PeriodSec) * time.Second}, bc)
	}
}
