package conf

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ecogroup/ecgsite/catalog/localstore"
	"github.com/ecogroup/ecgsite/catalog/sqlstore"
	"github.com/ecogroup/ecgsite/db/kvdb/impls/memory"
	"github.com/ecogroup/ecgsite/db/kvdb/impls/redis"
	"github.com/ecogroup/ecgsite/db/sqldb"
	_ "github.com/ecogroup/ecgsite/db/sqldb/impls/mysql" // registers "mysql"
	_ "github.com/ecogroup/ecgsite/db/sqldb/impls/pgsql" // registers "pgsql"
	"github.com/ecogroup/ecgsite/i18n"
	"github.com/ecogroup/ecgsite/livefeed"
	"github.com/ecogroup/ecgsite/pdfs"
	"github.com/ecogroup/ecgsite/schedjobs"
	"github.com/ecogroup/ecgsite/sec"
	"github.com/ecogroup/ecgsite/storages"
	"github.com/ecogroup/ecgsite/storages/localfs"
	"github.com/ecogroup/ecgsite/storages/remote"
	"github.com/ecogroup/ecgsite/throttle"
	"github.com/ecogroup/ecgsite/uds"
	"github.com/ecogroup/ecgsite/web"
	"github.com/ecogroup/ecgsite/web/session"
)

// DefaultThrottle applies to groups missing from .core.json
var DefaultThrottle = map[string]throttle.BucketConf{
	web.ThrottleContact: {Burst: 5, Increment: 1, PeriodSec: 600},
	web.ThrottleQuote:   {Burst: 5, Increment: 1, PeriodSec: 600},
	web.ThrottleLogin:   {Burst: 5, Increment: 1, PeriodSec: 60},
}

func (c *Core) PrepareJobScheduler() {
	c.JobScheduler = schedjobs.NewScheduler(c.RootCtx)
	c.AddService(c.JobScheduler)
}

// PrepareUDSService creates the socket directory; the socket is only reachable by the owner
func (c *Core) PrepareUDSService(cmdStore *uds.CommandStore) error {
	sockPath := c.SocketFile()
	if err := os.MkdirAll(filepath.Dir(sockPath), 0o750); err != nil {
		return err
	}
	c.UDSService = uds.NewService(c.RootCtx, sockPath, cmdStore)
	c.AddService(c.UDSService)
	return nil
}

func (c *Core) PrepareWebService(addr string, router http.Handler) {
	c.WebService = web.NewService(c.RootCtx, addr, router)
	c.AddService(c.WebService)
}

// PrepareThrottleBucketStore registers a bucket group per throttled route group
func (c *Core) PrepareThrottleBucketStore(cleanupCycle time.Duration, cleanupOlderThan time.Duration) {
	c.ThrottleBucketStore = throttle.NewBucketStore[string](c.RootCtx, cleanupCycle, cleanupOlderThan)
	for id, bc := range DefaultThrottle {
		if custom, ok := c.Throttle[id]; ok {
			bc = custom
		}
		c.ThrottleBucketStore.SetBucketGroup(id, bc)
	}
	c.AddService(c.ThrottleBucketStore)
}

// PrepareKVDatabase connects redis when configured, otherwise keeps an in-memory KV.
// The in-memory KV loses sessions on restart.
func (c *Core) PrepareKVDatabase() error {
	err := c.readConf(".kv-databases.json", &c.KVDBConf)
	if err != nil && !errors.Is(err, ErrNoConf) {
		return err
	}
	return c.prepareKVDBClient()
}

func (c *Core) prepareKVDBClient() error {
	switch c.KVDBConf.Type {
	case "redis":
		c.BackendKVDBClient = &redis.Client{Conf: &c.KVDBConf}
		if err := c.BackendKVDBClient.Init(); err != nil {
			return err
		}
	case "", "memory":
		c.KVDBConf.Type = "memory"
		c.BackendKVDBClient = memory.New()
		log.Printf("[WARN][CORE] no key-value database configured. sessions and caches live in memory")
	default:
		return fmt.Errorf("unsupported key-value database type: %q", c.KVDBConf.Type)
	}
	return nil
}

func (c *Core) loadSQLDBConfs() error {
	c.SQLDBConfs = make(map[string]*sqldb.Conf)
	err := c.readConf(".sql-databases.json", &c.SQLDBConfs)
	if errors.Is(err, ErrNoConf) {
		return nil
	}
	return err
}

// prepareSQLDBClients - Build & Init SQL DB Clients
// Use after loadSQLDBConfs
func (c *Core) prepareSQLDBClients() error {
	c.BackendSQLDBClients = make(map[string]sqldb.Client)
	for dbName, sqlDBConf := range c.SQLDBConfs {
		dbClient, err := sqldb.New(sqlDBConf)
		if err != nil {
			return fmt.Errorf("sql database %q: %w", dbName, err)
		}
		if err = dbClient.Init(); err != nil {
			return fmt.Errorf("sql database %q: %w", dbName, err)
		}
		c.BackendSQLDBClients[dbName] = dbClient
	}
	return nil
}

// PrepareSQLDatabases connects every configured SQL database. No file means none.
func (c *Core) PrepareSQLDatabases() error {
	if err := c.loadSQLDBConfs(); err != nil {
		return err
	}
	return c.prepareSQLDBClients()
}

// PrepareBackend picks the catalog store once: the CatalogDB SQL client when
// configured, otherwise the local JSON store under DataDir.
// Prerequisite: PrepareSQLDatabases
func (c *Core) PrepareBackend() error {
	if dbClient, ok := c.BackendSQLDBClients[c.CatalogDB]; ok {
		store, err := sqlstore.New(dbClient)
		if err != nil {
			return err
		}
		if err = store.Migrate(c.RootCtx); err != nil {
			return err
		}
		c.Backend = store
		c.catalogClient = c.CatalogDB
	} else {
		store, err := localstore.Open(c.Path(c.DataDir))
		if err != nil {
			return err
		}
		c.Backend = store
	}
	log.Printf("[INFO][CORE] catalog backend: %s", c.Backend.Name())
	return nil
}

func (c *Core) LoadStorageConf() error {
	err := c.readConf(".storages.json", &c.StorageConf)
	if errors.Is(err, ErrNoConf) {
		return nil
	}
	return err
}

// PrepareFileStore builds the upload store and the catalogue cache.
// A remote store with placeholder credentials leaves Files nil, so the site
// lists the sample catalogues and refuses uploads.
// Prerequisite: LoadStorageConf, PrepareKVDatabase
func (c *Core) PrepareFileStore() error {
	switch c.StorageConf.Type {
	case "", "local":
		dir := c.StorageConf.Dir
		if dir == "" {
			dir = "uploads"
		}
		base := c.StorageConf.PublicBaseURL
		if base == "" {
			base = "/uploads"
		}
		store, err := localfs.New(c.Path(dir), base)
		if err != nil {
			return err
		}
		c.Files = store
		c.LocalFiles = store.Handler()
		c.localFilesPrefix = store.PublicBaseURL + "/"
	case "remote":
		if !c.StorageConf.Configured() {
			log.Printf("[WARN][CORE] remote storage not configured. serving sample catalogues")
			break
		}
		c.Files = remote.New(c.BackendHttpClient, c.StorageConf.URL, c.StorageConf.Key)
	default:
		return fmt.Errorf("unsupported storage type: %q", c.StorageConf.Type)
	}
	c.CatalogueCache = &storages.CatalogueCache{
		KV:    c.BackendKVDBClient,
		Files: c.Files,
		Key:   c.AppName + "_catalogues",
		TTL:   time.Duration(c.CatalogueCacheTTLSec) * time.Second,
	}
	return nil
}

func (c *Core) PrepareI18n() error {
	bundle, err := i18n.New(c.Path(c.I18nDir))
	if err != nil {
		return err
	}
	c.I18n = bundle
	return nil
}

// PrepareWebSessions prepares WebSessionManager
// Prerequisite: BackendKVDBClient
func (c *Core) PrepareWebSessions() error {
	if c.BackendKVDBClient == nil {
		return errors.New("backend KVDB client not ready")
	}
	mgr := &session.Manager{
		AppName:           c.AppName,
		BackendKVDBClient: c.BackendKVDBClient,
	}
	if err := c.readConf(".web-session.json", &mgr.Conf); err != nil {
		return err
	}
	key, err := sec.DecodeKey(mgr.Conf.EncryptionKey)
	if err != nil {
		return fmt.Errorf("web session: %w", err)
	}
	// Web Login Session Cipher
	cipher, err := sec.NewXChaCha20Poly1305CipherBase64(key)
	if err != nil {
		return fmt.Errorf("NewXChaCha20Poly1305Cipher: %v", err)
	}
	mgr.Cipher = cipher
	c.WebSessionManager = mgr
	return nil
}

// LoadAdminConf reads the admin credentials; the site refuses to start without them
func (c *Core) LoadAdminConf() error {
	if err := c.readConf(".admin.json", &c.AdminConf); err != nil {
		return err
	}
	switch {
	case c.AdminConf.Username == "", c.AdminConf.PasswordHash == "":
		return errors.New(".admin.json: username and password_hash are required")
	case len(c.AdminConf.JWTSecret) < 32:
		return errors.New(".admin.json: jwt_secret must be at least 32 characters")
	}
	if c.AdminConf.Issuer == "" {
		c.AdminConf.Issuer = c.AppName
	}
	return nil
}

func (c *Core) PrepareHTMLTemplateStore() error {
	store, err := web.LoadTemplates(c.Path(c.TemplatesDir))
	if err != nil {
		return err
	}
	c.HTMLTemplateStore = store
	return nil
}

// PreparePDFGenerator sets paper and brand; record images resolve against the attachments bucket
// Prerequisite: PrepareFileStore
func (c *Core) PreparePDFGenerator() error {
	var paper pdfs.PaperSize
	switch strings.ToLower(c.Paper) {
	case "", "a4":
		paper = pdfs.A4Size
	case "letter":
		paper = pdfs.LetterSize
	default:
		return fmt.Errorf("unsupported paper size: %q", c.Paper)
	}
	c.PDF = pdfs.Generator{
		Paper: paper,
		Brand: c.Brand,
		Images: &storages.ImageResolver{
			Store:  c.Files,
			Bucket: storages.BucketAttachments,
			HTTP:   c.BackendHttpClient,
		},
	}
	return nil
}

// PrepareLiveFeed streams backend inbox events to admin websockets, keeping a backlog in the KV DB
// Prerequisite: PrepareBackend, PrepareKVDatabase
func (c *Core) PrepareLiveFeed() {
	c.LiveFeed = livefeed.New(c.RootCtx, c.Backend.Events, c.BackendKVDBClient, c.AppName+"_livefeed")
	c.AddService(c.LiveFeed)
}

// WebApp assembles the handlers from everything prepared so far
func (c *Core) WebApp() *web.App {
	app := &web.App{
		Backend:          c.Backend,
		Files:            c.Files,
		Catalogues:       c.CatalogueCache,
		I18n:             c.I18n,
		Templates:        c.HTMLTemplateStore,
		Sessions:         c.WebSessionManager,
		Admin:            c.AdminConf,
		Throttle:         c.ThrottleBucketStore,
		PDF:              c.PDF,
		LocalFiles:       c.LocalFiles,
		LocalFilesPrefix: c.localFilesPrefix,
	}
	if c.LiveFeed != nil {
		app.Live = c.LiveFeed
	}
	return app
}

// ScheduleMaintenance adds the session sweep and the catalogue refresh cron jobs
// Prerequisite: PrepareJobScheduler, PrepareWebSessions, PrepareFileStore
func (c *Core) ScheduleMaintenance() {
	c.JobScheduler.AddCronJob(schedjobs.NewHourlyCronJob("session-sweep", 7, func(ctx context.Context) error {
		n, err := c.WebSessionManager.Sweep(ctx)
		if err == nil && n > 0 {
			log.Printf("[INFO][SESSION] swept %d expired sessions", n)
		}
		return err
	}))
	if c.Files != nil {
		c.JobScheduler.AddCronJob(schedjobs.NewEveryNMinutesCronJob("catalogue-refresh", 15, func(ctx context.Context) error {
			_, err := c.refreshCatalogues(ctx)
			if errors.Is(err, errBusy) {
				return nil
			}
			return err
		}))
	}
}
