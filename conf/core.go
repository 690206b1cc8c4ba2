package conf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/ecogroup/ecgsite/catalog"
	"github.com/ecogroup/ecgsite/db"
	"github.com/ecogroup/ecgsite/db/kvdb"
	"github.com/ecogroup/ecgsite/db/sqldb"
	"github.com/ecogroup/ecgsite/i18n"
	"github.com/ecogroup/ecgsite/livefeed"
	"github.com/ecogroup/ecgsite/pdfs"
	"github.com/ecogroup/ecgsite/schedjobs"
	"github.com/ecogroup/ecgsite/storages"
	"github.com/ecogroup/ecgsite/svc"
	"github.com/ecogroup/ecgsite/throttle"
	"github.com/ecogroup/ecgsite/tpl"
	"github.com/ecogroup/ecgsite/uds"
	"github.com/ecogroup/ecgsite/web"
	"github.com/ecogroup/ecgsite/web/session"
)

// ErrNoConf marks an optional config file that is absent
var ErrNoConf = errors.New("config file not found")

// Core - common config
type Core struct {
	AppName              string                         `json:"app_name"`
	Listen               string                         `json:"listen"`                  // HTTP Server Listen IP:PORT Address
	Host                 string                         `json:"host"`                    // HTTP Host. Can be used to generate public url endpoints
	SocketPath           string                         `json:"socket_path"`             // relative to AppRoot. default run/<app_name>.sock
	DataDir              string                         `json:"data_dir"`                // local catalog store, relative to AppRoot. default data
	CatalogDB            string                         `json:"catalog_db"`              // entry of .sql-databases.json holding the catalog. default main
	I18nDir              string                         `json:"i18n_dir"`                // translation overrides, relative to AppRoot
	TemplatesDir         string                         `json:"templates_dir"`           // page template overrides, relative to AppRoot
	Paper                string                         `json:"paper"`                   // A4 (default) or Letter
	Brand                *pdfs.Brand                    `json:"brand"`                   // nil prints the default brand
	Throttle             map[string]throttle.BucketConf `json:"throttle"`                // per group; missing groups get defaults
	CatalogueCacheTTLSec int                            `json:"catalogue_cache_ttl_sec"` // 0 = storages.DefaultCatalogueCacheTTL

	AppRoot             string                        `json:"-"` // Filled from the command line
	RootCtx             context.Context               `json:"-"` // Global Context with RootCancel
	RootCancel          context.CancelFunc            `json:"-"` // CancelFunc for RootCtx
	UDSService          *uds.Service                  `json:"-"` // PrepareUDSService
	JobScheduler        *schedjobs.Scheduler          `json:"-"` // PrepareJobScheduler
	WebService          *web.Service                  `json:"-"` // PrepareWebService
	ThrottleBucketStore *throttle.BucketStore[string] `json:"-"` // PrepareThrottleBucketStore
	LiveFeed            *livefeed.Feed                `json:"-"` // PrepareLiveFeed
	StorageConf         storages.Conf                 `json:"-"` // LoadStorageConf
	BackendHttpClient   *http.Client                  `json:"-"` // for requests to external apis
	ActionLocks         *sync.Map                     `json:"-"` // map[string]struct{}. keyonlylocks
	KVDBConf            kvdb.Conf                     `json:"-"` // loadKVDBConf
	BackendKVDBClient   kvdb.Client                   `json:"-"` // prepareKVDBClient
	SQLDBConfs          map[string]*sqldb.Conf        `json:"-"` // loadSQLDBConfs
	BackendSQLDBClients map[string]sqldb.Client       `json:"-"` // prepareSQLDBClients
	Backend             catalog.Backend               `json:"-"` // PrepareBackend
	Files               storages.FileStore            `json:"-"` // PrepareFileStore. nil when not configured
	LocalFiles          http.Handler                  `json:"-"` // PrepareFileStore. local stores only
	CatalogueCache      *storages.CatalogueCache      `json:"-"` // PrepareFileStore
	I18n                *i18n.Bundle                  `json:"-"` // PrepareI18n
	WebSessionManager   *session.Manager              `json:"-"` // PrepareWebSessions
	AdminConf           web.AdminConf                 `json:"-"` // LoadAdminConf
	HTMLTemplateStore   *tpl.HTMLTemplateStore        `json:"-"` // PrepareHTMLTemplateStore
	PDF                 pdfs.Generator                `json:"-"` // PreparePDFGenerator

	catalogClient    string        // SQL client owned by Backend
	localFilesPrefix string        // where LocalFiles is mounted
	services         []svc.Service // Services to Manage
	done             chan error
}

// LoadCore reads config/.core.json under appRoot and fills defaults.
// Nothing is started.
func LoadCore(appRoot string) (*Core, error) {
	c := &Core{AppRoot: appRoot, ActionLocks: &sync.Map{}}
	if err := c.readConf(".core.json", c); err != nil {
		return nil, err
	}
	if c.AppName == "" {
		c.AppName = "ecgsite"
	}
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.CatalogDB == "" {
		c.CatalogDB = "main"
	}
	if c.SocketPath == "" {
		c.SocketPath = filepath.Join("run", c.AppName+".sock")
	}
	return c, nil
}

// BaseInit - 1st step for initialization
// 1. load config/.core.json file
// 2. prepare base fields
// 3. Start ShutdownSignalListener
func BaseInit(appRoot string, rootCtx context.Context, rootCancel context.CancelFunc) (*Core, error) {
	c, err := LoadCore(appRoot)
	if err != nil {
		return nil, err
	}
	c.RootCtx = rootCtx
	c.RootCancel = rootCancel
	c.BackendHttpClient = &http.Client{Timeout: 30 * time.Second}
	c.startShutdownSignalListener()
	return c, nil
}

// Path resolves p against AppRoot unless it is absolute
func (c *Core) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.AppRoot, p)
}

// SocketFile is the absolute path of the UDS control socket
func (c *Core) SocketFile() string {
	return c.Path(c.SocketPath)
}

// readConf decodes config/<name>; a missing file is ErrNoConf
func (c *Core) readConf(name string, v any) error {
	confBytes, err := os.ReadFile(filepath.Join(c.AppRoot, "config", name))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", name, ErrNoConf)
	}
	if err != nil {
		return err
	}
	if err = json.Unmarshal(confBytes, v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (c *Core) AddService(s svc.Service) {
	log.Printf("[INFO] adding service: %s", s.Name())
	c.services = append(c.services, s)
	log.Printf("[INFO] total services: %d", len(c.services))
}

func (c *Core) StartServices() error {
	c.done = make(chan error, len(c.services))
	for _, s := range c.services {
		err := s.Start()
		if err != nil {
			return fmt.Errorf("%s: %w", s.Name(), err)
		}
		go func(s svc.Service) {
			err := <-s.Done()
			c.done <- err
		}(s)
	}
	return nil
}

func (c *Core) WaitServicesDone() error {
	for i := 0; i < len(c.services); i++ {
		if err := <-c.done; err != nil {
			return err
		}
	}
	return nil
}

func (c *Core) StopServices() {
	for _, s := range c.services {
		s.Stop()
	}
}

var once sync.Once

func (c *Core) startShutdownSignalListener() {
	once.Do(func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigs
			log.Printf("[INFO] got signal [%s]. shutting down app [%s] ...", sig, c.AppName)
			c.RootCancel() // broadcast to all child services via Context.Done()
		}()
	})
	log.Printf("[INFO][CORE] shutdown signal listener started")
}

func (c *Core) ResourceCleanUp() {
	log.Println("[INFO] App Resource Cleaning Up...")
	if c.Backend != nil {
		db.CloseClient("catalog backend "+c.Backend.Name(), c.Backend)
	}
	if c.BackendKVDBClient != nil {
		db.CloseClient("kv database "+c.KVDBConf.Type, c.BackendKVDBClient)
	}
	for name, sqlDBClient := range c.BackendSQLDBClients {
		if name == c.catalogClient {
			continue // closed with the backend
		}
		db.CloseClient(fmt.Sprintf("%s sql database %q", sqlDBClient.DBType(), name), sqlDBClient)
	}
	log.Println("[INFO] App Resource Cleanup Complete")
}
