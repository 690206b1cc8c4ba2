package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"path"

	"github.com/ecogroup/ecgsite/catalog"
	"github.com/ecogroup/ecgsite/orm"
	"github.com/ecogroup/ecgsite/requests"
	"github.com/ecogroup/ecgsite/responses"
	"github.com/ecogroup/ecgsite/storages"
	"github.com/ecogroup/ecgsite/web/session"
)

func respond(w http.ResponseWriter, r *http.Request, status int, payload any, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	responses.EncodeWriteJSON(w, status, payload)
}

// createItem decodes the body over init and stores it
func createItem[M any](w http.ResponseWriter, r *http.Request, init M, create func(context.Context, *M) (*M, error)) {
	item := init
	if err := requests.DecodeJSON(r, &item); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := create(r.Context(), &item)
	if err == nil {
		logAdmin(r, "created %T", created)
	}
	respond(w, r, http.StatusCreated, created, err)
}

// editItem decodes the body over a deep copy of the stored item, so absent fields keep their values
// and the store's own item is never touched
func editItem[M any](
	w http.ResponseWriter, r *http.Request,
	current func(context.Context, string) (*M, error),
	save func(context.Context, *M) (*M, error),
	setID func(*M, string),
) {
	id := r.PathValue("id")
	stored, err := current(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var item M
	if err = deepCopy(stored, &item); err != nil {
		writeError(w, r, err)
		return
	}
	if err = requests.DecodeJSON(r, &item); err != nil {
		writeError(w, r, err)
		return
	}
	setID(&item, id)
	updated, err := save(r.Context(), &item)
	if err == nil {
		logAdmin(r, "updated %T %s", updated, id)
	}
	respond(w, r, http.StatusOK, updated, err)
}

func deepCopy(src, dst any) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

func deleteItem(w http.ResponseWriter, r *http.Request, del func(context.Context, string) error) {
	id := r.PathValue("id")
	if err := del(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	logAdmin(r, "deleted %s", r.URL.Path)
	responses.WriteOK(w, "deleted")
}

func logAdmin(r *http.Request, format string, args ...any) {
	who := "?"
	if info, ok := session.InfoFromContext(r.Context()); ok {
		who = info.Subject
	}
	log.Printf("[INFO][ADMIN] %s: %s", who, fmt.Sprintf(format, args...))
}

type dashboard struct {
	Stats          catalog.Stats                `json:"stats"`
	RecentMessages []*catalog.ContactSubmission `json:"recent_messages"`
	PendingQuotes  []*catalog.QuoteRequest      `json:"pending_quotes"`
	LiveClients    int                          `json:"live_clients"`
}

type clientCounter interface{ Clients() int }

func (a *App) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		d   dashboard
		err error
	)
	if d.Stats, err = a.Backend.Stats(ctx); err != nil {
		writeError(w, r, err)
		return
	}
	if d.RecentMessages, err = a.Backend.ListContactSubmissions(ctx, catalog.StatusFilter{Limit: 5}); err != nil {
		writeError(w, r, err)
		return
	}
	if d.PendingQuotes, err = a.Backend.ListQuoteRequests(ctx, catalog.StatusFilter{Status: string(catalog.QuotePending), Limit: 5}); err != nil {
		writeError(w, r, err)
		return
	}
	if cc, ok := a.Live.(clientCounter); ok {
		d.LiveClients = cc.Clients()
	}
	responses.EncodeWriteJSON(w, http.StatusOK, d)
}

// Products

// adminListProducts includes inactive products
func (a *App) adminListProducts(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		category = catalog.CategoryAll
	}
	products, err := a.Backend.ListProducts(r.Context(), catalog.ProductFilter{
		Category:        category,
		IncludeInactive: true,
		Limit:           requests.QueryInt(r, "limit", 0),
	})
	respond(w, r, http.StatusOK, products, err)
}

func (a *App) createProduct(w http.ResponseWriter, r *http.Request) {
	createItem(w, r, catalog.Product{IsActive: true}, a.Backend.CreateProduct)
}

func (a *App) updateProduct(w http.ResponseWriter, r *http.Request) {
	editItem(w, r, a.Backend.GetProduct, a.Backend.UpdateProduct, func(p *catalog.Product, id string) { p.ID = id })
}

func (a *App) deleteProduct(w http.ResponseWriter, r *http.Request) {
	deleteItem(w, r, a.Backend.DeleteProduct)
}

// Categories

func (a *App) category(ctx context.Context, id string) (*catalog.Category, error) {
	categories, err := a.Backend.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (a *App) createCategory(w http.ResponseWriter, r *http.Request) {
	createItem(w, r, catalog.Category{}, a.Backend.CreateCategory)
}

func (a *App) updateCategory(w http.ResponseWriter, r *http.Request) {
	editItem(w, r, a.category, a.Backend.UpdateCategory, func(c *catalog.Category, id string) { c.ID = id })
}

func (a *App) deleteCategory(w http.ResponseWriter, r *http.Request) {
	deleteItem(w, r, a.Backend.DeleteCategory)
}

// Clients

func (a *App) createClient(w http.ResponseWriter, r *http.Request) {
	createItem(w, r, catalog.Client{}, a.Backend.CreateClient)
}

func (a *App) updateClient(w http.ResponseWriter, r *http.Request) {
	editItem(w, r, a.Backend.GetClient, a.Backend.UpdateClient, func(c *catalog.Client, id string) { c.ID = id })
}

func (a *App) deleteClient(w http.ResponseWriter, r *http.Request) {
	deleteItem(w, r, a.Backend.DeleteClient)
}

// Projects

func (a *App) listProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := catalog.ProjectStatus(q.Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, r, fmt.Errorf("%w: unknown project status %q", catalog.ErrInvalid, status))
		return
	}
	projects, err := a.Backend.ListProjects(r.Context(), catalog.ProjectFilter{
		Status:   status,
		ClientID: q.Get("client_id"),
		Limit:    requests.QueryInt(r, "limit", 0),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	clients, err := a.Backend.ListClients(r.Context(), catalog.Filter{})
	respond(w, r, http.StatusOK, withClients(projects, clients), err)
}

// projectView is a project with its client record attached, when the client still exists
type projectView struct {
	*catalog.Project
	Client *catalog.Client `json:"client,omitempty"`
}

func withClients(projects []*catalog.Project, clients []*catalog.Client) []*projectView {
	views := make([]*projectView, len(projects))
	for i, p := range projects {
		views[i] = &projectView{Project: p}
	}
	orm.LinkOptionalBelongsTo(
		orm.NewOrderedCollection[*projectView, string](views),
		orm.NewOrderedCollection[*catalog.Client, string](clients),
		func(v *projectView) *string {
			if v.ClientID == "" {
				return nil
			}
			return &v.ClientID
		},
		func(v *projectView) **catalog.Client { return &v.Client },
	)
	return views
}

func (a *App) getProject(w http.ResponseWriter, r *http.Request) {
	p, err := a.Backend.GetProject(r.Context(), r.PathValue("id"))
	respond(w, r, http.StatusOK, p, err)
}

func (a *App) createProject(w http.ResponseWriter, r *http.Request) {
	createItem(w, r, catalog.Project{Status: catalog.ProjectPlanning, StartDate: a.now()}, a.Backend.CreateProject)
}

func (a *App) updateProject(w http.ResponseWriter, r *http.Request) {
	editItem(w, r, a.Backend.GetProject, a.Backend.UpdateProject, func(p *catalog.Project, id string) { p.ID = id })
}

func (a *App) deleteProject(w http.ResponseWriter, r *http.Request) {
	deleteItem(w, r, a.Backend.DeleteProject)
}

// Inbox

func statusFilter(r *http.Request) catalog.StatusFilter {
	return catalog.StatusFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  requests.QueryInt(r, "limit", 0),
	}
}

func (a *App) listMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := a.Backend.ListContactSubmissions(r.Context(), statusFilter(r))
	respond(w, r, http.StatusOK, messages, err)
}

type statusUpdate struct {
	Status catalog.SubmissionStatus `json:"status"`
}

func (a *App) updateMessageStatus(w http.ResponseWriter, r *http.Request) {
	var req statusUpdate
	if err := requests.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if !req.Status.Valid() {
		writeError(w, r, fmt.Errorf("%w: unknown message status %q", catalog.ErrInvalid, req.Status))
		return
	}
	id := r.PathValue("id")
	if err := a.Backend.UpdateContactSubmissionStatus(r.Context(), id, req.Status); err != nil {
		writeError(w, r, err)
		return
	}
	logAdmin(r, "message %s marked %s", id, req.Status)
	responses.WriteOK(w, "status updated")
}

func (a *App) listQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := a.Backend.ListQuoteRequests(r.Context(), statusFilter(r))
	respond(w, r, http.StatusOK, quotes, err)
}

func (a *App) updateQuote(w http.ResponseWriter, r *http.Request) {
	var u catalog.QuoteUpdate
	if err := requests.DecodeJSON(r, &u); err != nil {
		writeError(w, r, err)
		return
	}
	if err := u.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	q, err := a.Backend.UpdateQuoteRequest(r.Context(), r.PathValue("id"), u)
	if err == nil {
		logAdmin(r, "quote %s marked %s", q.ID, q.Status)
	}
	respond(w, r, http.StatusOK, q, err)
}

// Settings

func (a *App) listSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := a.Backend.ListSiteSettings(r.Context())
	respond(w, r, http.StatusOK, settings, err)
}

func (a *App) upsertSetting(w http.ResponseWriter, r *http.Request) {
	var value json.RawMessage
	if err := requests.DecodeJSON(r, &value); err != nil {
		writeError(w, r, err)
		return
	}
	s, err := a.Backend.UpsertSiteSetting(r.Context(), r.PathValue("key"), value)
	respond(w, r, http.StatusOK, s, err)
}

// Uploads

type uploadResult struct {
	URL    string `json:"url"`
	Bucket string `json:"bucket"`
	Path   string `json:"path"`
	Name   string `json:"name"`
	Size   int64  `json:"size"`
}

// upload stores the multipart field "file" under the form's folder.
// bucket=catalogues keeps the original file name so the catalogue listing can title it.
func (a *App) upload(w http.ResponseWriter, r *http.Request) {
	if a.Files == nil {
		writeError(w, r, errNoFileStore)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadMB<<20)
	if err := r.ParseMultipartForm(maxUploadMB << 20); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", catalog.ErrInvalid, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: missing file field", catalog.ErrInvalid))
		return
	}
	defer file.Close()

	bucket := r.FormValue("bucket")
	var objectPath string
	switch bucket {
	case "", storages.BucketAttachments:
		bucket = storages.BucketAttachments
		objectPath = storages.ObjectName(r.FormValue("folder"), header.Filename)
	case storages.BucketCatalogues:
		objectPath = storages.CleanPath(path.Base(header.Filename))
	default:
		writeError(w, r, fmt.Errorf("%w: unknown bucket %q", catalog.ErrInvalid, bucket))
		return
	}
	if objectPath == "" {
		writeError(w, r, storages.ErrInvalidPath)
		return
	}

	contentType := header.Header.Get("Content-Type")
	publicURL, err := a.Files.Upload(r.Context(), bucket, objectPath, file, contentType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if bucket == storages.BucketCatalogues && a.Catalogues != nil {
		a.Catalogues.Invalidate(r.Context())
	}
	logAdmin(r, "uploaded %s/%s (%d bytes)", bucket, objectPath, header.Size)
	responses.EncodeWriteJSON(w, http.StatusCreated, uploadResult{
		URL:    publicURL,
		Bucket: bucket,
		Path:   objectPath,
		Name:   header.Filename,
		Size:   header.Size,
	})
}
