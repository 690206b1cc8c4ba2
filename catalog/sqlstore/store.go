// Package sqlstore is the catalog backend over a pgsql or mysql database
package sqlstore

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ecogroup/ecgsite/catalog"
	"github.com/ecogroup/ecgsite/db/sqldb"
	"github.com/google/uuid"
)

//go:embed sql
var sqlFS embed.FS

const group = "catalog"

var (
	colSortOrder = sqldb.NewColumnOrPanic("sort_order")
	colCreatedAt = sqldb.NewColumnOrPanic("created_at")
)

type Store struct {
	db     sqldb.Client
	stmts  *sqldb.RawSQLStore
	prefix byte
	hub    *catalog.Hub
	now    func() time.Time
	newID  func() string
}

var _ catalog.Backend = (*Store)(nil)

func New(db sqldb.Client) (*Store, error) {
	stmts := sqldb.NewRawStore()
	if err := sqldb.LoadRawStmtsToStore(stmts, db.DBType(), sqldb.GroupFS{Group: group, FS: sqlFS}); err != nil {
		return nil, err
	}
	prefix, ok := sqldb.PlaceholderPrefixForDBType[db.DBType()]
	if !ok {
		return nil, fmt.Errorf("unsupported database type: %q", db.DBType())
	}
	return &Store{
		db:     db,
		stmts:  stmts,
		prefix: prefix,
		hub:    catalog.NewHub(),
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		newID:  func() string { return uuid.NewString() },
	}, nil
}

func (s *Store) Name() string {
	return "sql/" + s.db.DBType()
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) stmt(name string) string {
	return s.stmts.MustGet(group + "." + name)
}

func (s *Store) query(name string, args ...any) *sqldb.Query {
	return sqldb.NewQuery(s.stmt(name), s.prefix, args...)
}

// Migrate creates missing tables
func (s *Store) Migrate(ctx context.Context) error {
	schema, ok := s.stmts.Get(group + ".schema")
	if !ok {
		return fmt.Errorf("no schema for %s", s.db.DBType())
	}
	for _, ddl := range strings.Split(schema, ";") {
		if ddl = strings.TrimSpace(ddl); ddl == "" {
			continue
		}
		if _, err := s.db.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	log.Printf("[INFO][CATALOG] schema ready on %s", s.db.DBType())
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sqldb.ErrNoRows) {
		return catalog.ErrNotFound
	}
	return err
}

// affected turns a zero-row write into ErrNotFound
func affected(res sqldb.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func getItem[M any, MP sqldb.Scannable[M]](ctx context.Context, s *Store, stmt string, id string) (*M, error) {
	item, err := sqldb.QueryItem[M, MP](ctx, s.db, s.stmt(stmt), id)
	if err != nil {
		return nil, notFound(err)
	}
	return item, nil
}

func listItems[M any, MP sqldb.Scannable[M]](ctx context.Context, s *Store, q *sqldb.Query) ([]*M, error) {
	return sqldb.QueryItems[M, MP](ctx, s.db, q.String(), q.Args()...)
}

// Products

func (s *Store) ListProducts(ctx context.Context, f catalog.ProductFilter) ([]*catalog.Product, error) {
	stmt := "products_list"
	if f.IncludeInactive {
		stmt = "products_list_all"
	}
	q := s.query(stmt)
	if f.Category != "" && f.Category != catalog.CategoryAll {
		q.And("category = ?", f.Category)
	}
	if f.Featured {
		q.And("is_featured = ?", true)
	}
	q.OrderBy(sqldb.OrderBy{Column: colSortOrder}).Limit(f.Limit)
	return listItems[catalog.Product, *catalog.Product](ctx, s, q)
}

func (s *Store) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	return getItem[catalog.Product, *catalog.Product](ctx, s, "product_get", id)
}

func (s *Store) CreateProduct(ctx context.Context, p *catalog.Product) (*catalog.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	item := *p
	item.ID = s.newID()
	item.CreatedAt = s.now()
	item.UpdatedAt = item.CreatedAt
	if item.Specifications == nil {
		item.Specifications = catalog.Specs{}
	}
	if _, err := s.db.Exec(ctx, s.stmt("product_insert"), item.ID, item.Name, item.Description, item.Category,
		item.ImageURL, item.PDFURL, item.Specifications, item.Price, item.IsFeatured, item.IsActive,
		item.SortOrder, item.CreatedAt, item.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	return &item, nil
}

func (s *Store) UpdateProduct(ctx context.Context, p *catalog.Product) (*catalog.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	specs := p.Specifications
	if specs == nil {
		specs = catalog.Specs{}
	}
	err := affected(s.db.Exec(ctx, s.stmt("product_update"), p.Name, p.Description, p.Category, p.ImageURL,
		p.PDFURL, specs, p.Price, p.IsFeatured, p.IsActive, p.SortOrder, s.now(), p.ID))
	if err != nil {
		return nil, err
	}
	return s.GetProduct(ctx, p.ID)
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	return affected(s.db.Exec(ctx, s.stmt("product_delete"), id))
}

// Categories

func (s *Store) ListCategories(ctx context.Context) ([]*catalog.Category, error) {
	return sqldb.QueryItems[catalog.Category, *catalog.Category](ctx, s.db, s.stmt("categories_list"))
}

func (s *Store) CreateCategory(ctx context.Context, c *catalog.Category) (*catalog.Category, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	item := *c
	item.ID = s.newID()
	item.CreatedAt = s.now()
	if _, err := s.db.Exec(ctx, s.stmt("category_insert"), item.ID, item.Name, item.Description,
		item.ImageURL, item.SortOrder, item.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return &item, nil
}

func (s *Store) UpdateCategory(ctx context.Context, c *catalog.Category) (*catalog.Category, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	err := affected(s.db.Exec(ctx, s.stmt("category_update"), c.Name, c.Description, c.ImageURL, c.SortOrder, c.ID))
	if err != nil {
		return nil, err
	}
	return getItem[catalog.Category, *catalog.Category](ctx, s, "category_get", c.ID)
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	return affected(s.db.Exec(ctx, s.stmt("category_delete"), id))
}

// Clients

func (s *Store) ListClients(ctx context.Context, f catalog.Filter) ([]*catalog.Client, error) {
	q := s.query("clients_list")
	if f.Featured {
		q.And("is_featured = ?", true)
	}
	q.OrderBy(sqldb.OrderBy{Column: colSortOrder}).Limit(f.Limit)
	return listItems[catalog.Client, *catalog.Client](ctx, s, q)
}

func (s *Store) GetClient(ctx context.Context, id string) (*catalog.Client, error) {
	return getItem[catalog.Client, *catalog.Client](ctx, s, "client_get", id)
}

func (s *Store) CreateClient(ctx context.Context, c *catalog.Client) (*catalog.Client, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	item := *c
	item.ID = s.newID()
	item.CreatedAt = s.now()
	item.UpdatedAt = item.CreatedAt
	if _, err := s.db.Exec(ctx, s.stmt("client_insert"), item.ID, item.Name, item.LogoURL, item.Description,
		item.Website, item.Industry, item.IsFeatured, item.SortOrder, item.CreatedAt, item.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert client: %w", err)
	}
	return &item, nil
}

func (s *Store) UpdateClient(ctx context.Context, c *catalog.Client) (*catalog.Client, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	err := affected(s.db.Exec(ctx, s.stmt("client_update"), c.Name, c.LogoURL, c.Description, c.Website,
		c.Industry, c.IsFeatured, c.SortOrder, s.now(), c.ID))
	if err != nil {
		return nil, err
	}
	return s.GetClient(ctx, c.ID)
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	return affected(s.db.Exec(ctx, s.stmt("client_delete"), id))
}

// Testimonials

func (s *Store) ListTestimonials(ctx context.Context, f catalog.Filter) ([]*catalog.Testimonial, error) {
	q := s.query("testimonials_list")
	if f.Featured {
		q.And("is_featured = ?", true)
	}
	q.OrderBy(sqldb.OrderBy{Column: colCreatedAt, Desc: true}).Limit(f.Limit)
	return listItems[catalog.Testimonial, *catalog.Testimonial](ctx, s, q)
}

func (s *Store) CreateTestimonial(ctx context.Context, t *catalog.Testimonial) (*catalog.Testimonial, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	item := *t
	item.ID = s.newID()
	item.CreatedAt = s.now()
	if _, err := s.db.Exec(ctx, s.stmt("testimonial_insert"), item.ID, item.ClientName, item.ClientCompany,
		item.ClientPosition, item.Content, item.Rating, item.ImageURL, item.IsFeatured, item.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert testimonial: %w", err)
	}
	return &item, nil
}

func (s *Store) UpdateTestimonial(ctx context.Context, t *catalog.Testimonial) (*catalog.Testimonial, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	err := affected(s.db.Exec(ctx, s.stmt("testimonial_update"), t.ClientName, t.ClientCompany, t.ClientPosition,
		t.Content, t.Rating, t.ImageURL, t.IsFeatured, t.ID))
	if err != nil {
		return nil, err
	}
	return getItem[catalog.Testimonial, *catalog.Testimonial](ctx, s, "testimonial_get", t.ID)
}

func (s *Store) DeleteTestimonial(ctx context.Context, id string) error {
	return affected(s.db.Exec(ctx, s.stmt("testimonial_delete"), id))
}

// Inbox

func (s *Store) CreateContactSubmission(ctx context.Context, in *catalog.ContactSubmission) (*catalog.ContactSubmission, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	item := *in
	item.ID = s.newID()
	item.Status = catalog.SubmissionNew
	item.CreatedAt = s.now()
	item.UpdatedAt = item.CreatedAt
	if _, err := s.db.Exec(ctx, s.stmt("contact_insert"), item.ID, item.Name, item.Email, item.Company,
		item.Phone, item.Message, item.Status, item.CreatedAt, item.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert contact submission: %w", err)
	}
	s.publish(ctx, catalog.Event{Kind: catalog.EventContactSubmitted, ID: item.ID, Name: item.Name, At: item.CreatedAt})
	return &item, nil
}

func (s *Store) ListContactSubmissions(ctx context.Context, f catalog.StatusFilter) ([]*catalog.ContactSubmission, error) {
	q := s.query("contacts_list")
	if f.Status != "" {
		q.And("status = ?", f.Status)
	}
	q.OrderBy(sqldb.OrderBy{Column: colCreatedAt, Desc: true}).Limit(f.Limit)
	return listItems[catalog.ContactSubmission, *catalog.ContactSubmission](ctx, s, q)
}

func (s *Store) UpdateContactSubmissionStatus(ctx context.Context, id string, status catalog.SubmissionStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown submission status %q", catalog.ErrInvalid, status)
	}
	return affected(s.db.Exec(ctx, s.stmt("contact_update_status"), status, s.now(), id))
}

func (s *Store) CreateQuoteRequest(ctx context.Context, in *catalog.QuoteRequest) (*catalog.QuoteRequest, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	item := *in
	item.ID = s.newID()
	item.Status = catalog.QuotePending
	item.CreatedAt = s.now()
	item.UpdatedAt = item.CreatedAt
	if _, err := s.db.Exec(ctx, s.stmt("quote_insert"), item.ID, item.ProductID, item.ProductName, item.ClientName,
		item.ClientEmail, item.ClientCompany, item.ClientPhone, item.Quantity, item.Message, item.Status,
		item.QuotedPrice, item.QuoteNotes, item.CreatedAt, item.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert quote request: %w", err)
	}
	s.publish(ctx, catalog.Event{Kind: catalog.EventQuoteRequested, ID: item.ID, Name: item.ClientName, At: item.CreatedAt})
	return &item, nil
}

func (s *Store) ListQuoteRequests(ctx context.Context, f catalog.StatusFilter) ([]*catalog.QuoteRequest, error) {
	q := s.query("quotes_list")
	if f.Status != "" {
		q.And("status = ?", f.Status)
	}
	q.OrderBy(sqldb.OrderBy{Column: colCreatedAt, Desc: true}).Limit(f.Limit)
	return listItems[catalog.QuoteRequest, *catalog.QuoteRequest](ctx, s, q)
}

func (s *Store) UpdateQuoteRequest(ctx context.Context, id string, u catalog.QuoteUpdate) (*catalog.QuoteRequest, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	var q *catalog.QuoteRequest
	err := sqldb.WithTx(ctx, s.db, func(tx sqldb.Tx) error {
		err := affected(tx.Exec(ctx, s.stmt("quote_update"), u.Status, u.QuotedPrice, u.QuoteNotes, s.now(), id))
		if err != nil {
			return err
		}
		q, err = sqldb.RowToItem[catalog.QuoteRequest, *catalog.QuoteRequest](tx.QueryRow(ctx, s.stmt("quote_get"), id))
		return notFound(err)
	})
	return q, err
}

// Projects

func (s *Store) ListProjects(ctx context.Context, f catalog.ProjectFilter) ([]*catalog.Project, error) {
	q := s.query("projects_list")
	if f.Status != "" {
		q.And("status = ?", f.Status)
	}
	if f.ClientID != "" {
		q.And("client_id = ?", f.ClientID)
	}
	q.OrderBy(sqldb.OrderBy{Column: colCreatedAt, Desc: true}).Limit(f.Limit)
	return listItems[catalog.Project, *catalog.Project](ctx, s, q)
}

func (s *Store) GetProject(ctx context.Context, id string) (*catalog.Project, error) {
	return getItem[catalog.Project, *catalog.Project](ctx, s, "project_get", id)
}

func (s *Store) CreateProject(ctx context.Context, p *catalog.Project) (*catalog.Project, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	item := *p
	item.ID = s.newID()
	item.CreatedAt = s.now()
	item.UpdatedAt = item.CreatedAt
	if _, err := s.db.Exec(ctx, s.stmt("project_insert"), item.ID, item.Name, item.Description, item.ClientID,
		item.ClientName, item.Status, item.StartDate, item.EndDate, item.Budget, item.ActualCost, item.Progress,
		item.ProjectManager, item.Notes, item.Attachments, item.CreatedAt, item.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return &item, nil
}

func (s *Store) UpdateProject(ctx context.Context, p *catalog.Project) (*catalog.Project, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	err := affected(s.db.Exec(ctx, s.stmt("project_update"), p.Name, p.Description, p.ClientID, p.ClientName,
		p.Status, p.StartDate, p.EndDate, p.Budget, p.ActualCost, p.Progress, p.ProjectManager, p.Notes,
		p.Attachments, s.now(), p.ID))
	if err != nil {
		return nil, err
	}
	return s.GetProject(ctx, p.ID)
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	return affected(s.db.Exec(ctx, s.stmt("project_delete"), id))
}

// Site settings

func (s *Store) GetSiteSetting(ctx context.Context, key string) (*catalog.SiteSetting, error) {
	return getItem[catalog.SiteSetting, *catalog.SiteSetting](ctx, s, "setting_get", key)
}

func (s *Store) ListSiteSettings(ctx context.Context) ([]*catalog.SiteSetting, error) {
	return sqldb.QueryItems[catalog.SiteSetting, *catalog.SiteSetting](ctx, s.db, s.stmt("settings_list"))
}

func (s *Store) UpsertSiteSetting(ctx context.Context, key string, value json.RawMessage) (*catalog.SiteSetting, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: setting key is required", catalog.ErrInvalid)
	}
	if !json.Valid(value) {
		return nil, fmt.Errorf("%w: setting value is not JSON", catalog.ErrInvalid)
	}
	now := s.now()
	var st *catalog.SiteSetting
	err := sqldb.WithTx(ctx, s.db, func(tx sqldb.Tx) error {
		if _, err := tx.Exec(ctx, s.stmt("setting_upsert"), s.newID(), key, string(value), now, now); err != nil {
			return fmt.Errorf("upsert setting %s: %w", key, err)
		}
		var err error
		st, err = sqldb.RowToItem[catalog.SiteSetting, *catalog.SiteSetting](tx.QueryRow(ctx, s.stmt("setting_get"), key))
		return notFound(err)
	})
	return st, err
}

func (s *Store) Stats(ctx context.Context) (catalog.Stats, error) {
	var st catalog.Stats
	err := s.db.QueryRow(ctx, s.stmt("stats")).Scan(
		&st.Products, &st.Clients, &st.Projects, &st.ActiveProjects, &st.NewMessages, &st.PendingQuotes)
	return st, err
}
