// Package localstore is the catalog backend used when no SQL database is configured.
// Tables live as JSON files in one directory.
package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/ecogroup/ecgsite/catalog"
	"github.com/ecogroup/ecgsite/nullable"
	"github.com/google/uuid"
)

type Store struct {
	mu  sync.RWMutex
	dir string

	products     *table[catalog.Product, *catalog.Product]
	categories   *table[catalog.Category, *catalog.Category]
	clients      *table[catalog.Client, *catalog.Client]
	testimonials *table[catalog.Testimonial, *catalog.Testimonial]
	contacts     *table[catalog.ContactSubmission, *catalog.ContactSubmission]
	quotes       *table[catalog.QuoteRequest, *catalog.QuoteRequest]
	projects     *table[catalog.Project, *catalog.Project]
	settings     *table[catalog.SiteSetting, *catalog.SiteSetting]

	hub   *catalog.Hub
	now   func() time.Time
	newID func() string
}

var _ catalog.Backend = (*Store)(nil)

var seedCategories = []struct{ name, description string }{
	{"Wastewater Treatment Plants", "Complete biological and physical-chemical treatment systems"},
	{"Water Purification Systems", "Drinking water treatment and purification"},
	{"Modular Treatment Units", "Block-modular systems with automation"},
	{"BioSteps BS Systems", "Five-stage biological treatment systems"},
	{"Pumping Stations", "Sewerage and water pumping stations"},
	{"Distribution Wells", "Water distribution and storage systems"},
}

// Open loads every table under dir, creating dir when missing.
// An empty category table is seeded with the company's product lines.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	s := &Store{
		dir:          dir,
		products:     newTable[catalog.Product](dir, "products"),
		categories:   newTable[catalog.Category](dir, "categories"),
		clients:      newTable[catalog.Client](dir, "clients"),
		testimonials: newTable[catalog.Testimonial](dir, "testimonials"),
		contacts:     newTable[catalog.ContactSubmission](dir, "contact_submissions"),
		quotes:       newTable[catalog.QuoteRequest](dir, "quote_requests"),
		projects:     newTable[catalog.Project](dir, "projects"),
		settings:     newTable[catalog.SiteSetting](dir, "site_settings"),
		hub:          catalog.NewHub(),
		now:          func() time.Time { return time.Now().UTC() },
		newID:        func() string { return uuid.NewString() },
	}
	loaders := []func() error{
		s.products.load, s.categories.load, s.clients.load, s.testimonials.load,
		s.contacts.load, s.quotes.load, s.projects.load, s.settings.load,
	}
	for _, load := range loaders {
		if err := load(); err != nil {
			return nil, err
		}
	}
	if s.categories.len() == 0 {
		now := s.now()
		seed := make([]*catalog.Category, len(seedCategories))
		for i, c := range seedCategories {
			seed[i] = &catalog.Category{
				ID:          fmt.Sprint(i + 1),
				Name:        c.name,
				Description: nullable.StringOf(c.description),
				SortOrder:   i + 1,
				CreatedAt:   now,
			}
		}
		if err := s.categories.put(seed...); err != nil {
			return nil, err
		}
		log.Printf("[INFO][CATALOG] seeded %d categories in %s", len(seedCategories), dir)
	}
	log.Printf("[INFO][CATALOG] local store opened at %s (%d products)", dir, s.products.len())
	return s, nil
}

func (s *Store) Name() string { return "local" }

func (s *Store) Close() error { return nil }

func newestFirst(a, b time.Time) bool {
	return a.After(b)
}

// Products

func (s *Store) ListProducts(_ context.Context, f catalog.ProductFilter) ([]*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.products.list(func(p *catalog.Product) bool {
		if !p.IsActive && !f.IncludeInactive {
			return false
		}
		if f.Category != "" && f.Category != catalog.CategoryAll && p.Category != f.Category {
			return false
		}
		return !f.Featured || p.IsFeatured
	}, func(a, b *catalog.Product) bool { return a.SortOrder < b.SortOrder }, f.Limit), nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.products.get(id); ok {
		return p, nil
	}
	return nil, catalog.ErrNotFound
}

func (s *Store) CreateProduct(_ context.Context, p *catalog.Product) (*catalog.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	item := *p
	item.ID = s.newID()
	item.CreatedAt = s.now()
	item.UpdatedAt = item.CreatedAt
	if err := s.insert(func() error { return s.products.put(&item) }); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpdateProduct(_ context.Context, p *catalog.Product) (*catalog.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.products.get(p.ID)
	if !ok {
		return nil, catalog.ErrNotFound
	}
	item := *p
	item.CreatedAt = old.CreatedAt
	item.UpdatedAt = s.now()
	if err := s.products.put(&item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	return s.delete(id, s.products.remove)
}

// Categories

func (s *Store) ListCategories(context.Context) ([]*catalog.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categories.list(nil, func(a, b *catalog.Category) bool { return a.SortOrder < b.SortOrder }, 0), nil
}

func (s *Store) CreateCategory(_ context.Context, c *catalog.Category) (*catalog.Category, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	item := *c
	item.ID = s.newID()
	item.CreatedAt = s.now()
	if err := s.insert(func() error { return s.categories.put(&item) }); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpdateCategory(_ context.Context, c *catalog.Category) (*catalog.Category, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.categories.get(c.ID)
	if !ok {
		return nil, catalog.ErrNotFound
	}
	item := *c
	item.CreatedAt = old.CreatedAt
	if err := s.categories.put(&item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	return s.delete(id, s.categories.remove)
}

// Clients

func (s *Store) ListClients(_ context.Context, f catalog.Filter) ([]*catalog.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clients.list(func(c *catalog.Client) bool { return !f.Featured || c.IsFeatured },
		func(a, b *catalog.Client) bool { return a.SortOrder < b.SortOrder }, f.Limit), nil
}

func (s *Store) GetClient(_ context.Context, id string) (*catalog.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.clients.get(id); ok {
		return c, nil
	}
	return nil, catalog.ErrNotFound
}

func (s *Store) CreateClient(_ context.Context, c *catalog.Client) (*catalog.Client, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	item := *c
	item.ID = s.newID()
	item.CreatedAt = s.now()
	item.UpdatedAt = item.CreatedAt
	if err := s.insert(func() error { return s.clients.put(&item) }); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpdateClient(_ context.Context, c *catalog.Client) (*catalog.Client, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.clients.get(c.ID)
	if !ok {
		return nil, catalog.ErrNotFound
	}
	item := *c
	item.CreatedAt = old.CreatedAt
	item.UpdatedAt = s.now()
	if err := s.clients.put(&item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) DeleteClient(_ context.Context, id string) error {
	return s.delete(id, s.clients.remove)
}

// Testimonials

func (s *Store) ListTestimonials(_ context.Context, f catalog.Filter) ([]*catalog.Testimonial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.testimonials.list(func(t *catalog.Testimonial) bool { return !f.Featured || t.IsFeatured },
		func(a, b *catalog.Testimonial) bool { return newestFirst(a.CreatedAt, b.CreatedAt) }, f.Limit), nil
}

func (s *Store) CreateTestimonial(_ context.Context, t *catalog.Testimonial) (*catalog.Testimonial, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	item := *t
	item.ID = s.newID()
	item.CreatedAt = s.now()
	if err := s.insert(func() error { return s.testimonials.put(&item) }); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpdateTestimonial(_ context.Context, t *catalog.Testimonial) (*catalog.Testimonial, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.testimonials.get(t.ID)
	if !ok {
		return nil, catalog.ErrNotFound
	}
	item := *t
	item.CreatedAt = old.CreatedAt
	if err := s.testimonials.put(&item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) DeleteTestimonial(_ context.Context, id string) error {
	return s.delete(id, s.testimonials.remove)
}

// Inbox

func (s *Store) CreateContactSubmission(_ context.Context, in *catalog.ContactSubmission) (*catalog.ContactSubmission, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	item := *in
	item.ID = s.newID()
	item.Status = catalog.SubmissionNew
	item.CreatedAt = s.now()
	item.UpdatedAt = item.CreatedAt
	if err := s.insert(func() error { return s.contacts.put(&item) }); err != nil {
		return nil, err
	}
	s.hub.Publish(catalog.Event{Kind: catalog.EventContactSubmitted, ID: item.ID, Name: item.Name, At: item.CreatedAt})
	return &item, nil
}

func (s *Store) ListContactSubmissions(_ context.Context, f catalog.StatusFilter) ([]*catalog.ContactSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.contacts.list(func(c *catalog.ContactSubmission) bool { return f.Status == "" || string(c.Status) == f.Status },
		func(a, b *catalog.ContactSubmission) bool { return newestFirst(a.CreatedAt, b.CreatedAt) }, f.Limit), nil
}

func (s *Store) UpdateContactSubmissionStatus(_ context.Context, id string, status catalog.SubmissionStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown submission status %q", catalog.ErrInvalid, status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.contacts.get(id)
	if !ok {
		return catalog.ErrNotFound
	}
	item.Status = status
	item.UpdatedAt = s.now()
	return s.contacts.put(item)
}

func (s *Store) CreateQuoteRequest(_ context.Context, in *catalog.QuoteRequest) (*catalog.QuoteRequest, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	item := *in
	item.ID = s.newID()
	item.Status = catalog.QuotePending
	item.CreatedAt = s.now()
	item.UpdatedAt = item.CreatedAt
	if err := s.insert(func() error { return s.quotes.put(&item) }); err != nil {
		return nil, err
	}
	s.hub.Publish(catalog.Event{Kind: catalog.EventQuoteRequested, ID: item.ID, Name: item.ClientName, At: item.CreatedAt})
	return &item, nil
}

func (s *Store) ListQuoteRequests(_ context.Context, f catalog.StatusFilter) ([]*catalog.QuoteRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quotes.list(func(q *catalog.QuoteRequest) bool { return f.Status == "" || string(q.Status) == f.Status },
		func(a, b *catalog.QuoteRequest) bool { return newestFirst(a.CreatedAt, b.CreatedAt) }, f.Limit), nil
}

func (s *Store) UpdateQuoteRequest(_ context.Context, id string, u catalog.QuoteUpdate) (*catalog.QuoteRequest, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.quotes.get(id)
	if !ok {
		return nil, catalog.ErrNotFound
	}
	item.Status = u.Status
	item.QuotedPrice = u.QuotedPrice
	item.QuoteNotes = u.QuoteNotes
	item.UpdatedAt = s.now()
	if err := s.quotes.put(item); err != nil {
		return nil, err
	}
	return item, nil
}

// Projects

func (s *Store) ListProjects(_ context.Context, f catalog.ProjectFilter) ([]*catalog.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projects.list(func(p *catalog.Project) bool {
		return (f.Status == "" || p.Status == f.Status) && (f.ClientID == "" || p.ClientID == f.ClientID)
	}, func(a, b *catalog.Project) bool { return newestFirst(a.CreatedAt, b.CreatedAt) }, f.Limit), nil
}

func (s *Store) GetProject(_ context.Context, id string) (*catalog.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.projects.get(id); ok {
		return p, nil
	}
	return nil, catalog.ErrNotFound
}

func (s *Store) CreateProject(_ context.Context, p *catalog.Project) (*catalog.Project, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	item := *p
	item.ID = s.newID()
	item.CreatedAt = s.now()
	item.UpdatedAt = item.CreatedAt
	if item.Attachments == nil {
		item.Attachments = catalog.StringList{}
	}
	if err := s.insert(func() error { return s.projects.put(&item) }); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpdateProject(_ context.Context, p *catalog.Project) (*catalog.Project, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.projects.get(p.ID)
	if !ok {
		return nil, catalog.ErrNotFound
	}
	item := *p
	item.CreatedAt = old.CreatedAt
	item.UpdatedAt = s.now()
	if err := s.projects.put(&item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) DeleteProject(_ context.Context, id string) error {
	return s.delete(id, s.projects.remove)
}

// Site settings

func (s *Store) GetSiteSetting(_ context.Context, key string) (*catalog.SiteSetting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.settings.get(key); ok {
		return st, nil
	}
	return nil, catalog.ErrNotFound
}

func (s *Store) ListSiteSettings(context.Context) ([]*catalog.SiteSetting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.list(nil, func(a, b *catalog.SiteSetting) bool { return a.Key < b.Key }, 0), nil
}

func (s *Store) UpsertSiteSetting(_ context.Context, key string, value json.RawMessage) (*catalog.SiteSetting, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: setting key is required", catalog.ErrInvalid)
	}
	if !json.Valid(value) {
		return nil, fmt.Errorf("%w: setting value is not JSON", catalog.ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	item, ok := s.settings.get(key)
	if !ok {
		item = &catalog.SiteSetting{ID: s.newID(), Key: key, CreatedAt: now}
	}
	item.Value = catalog.JSONValue(append([]byte(nil), value...))
	item.UpdatedAt = now
	if err := s.settings.put(item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Store) Stats(context.Context) (catalog.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return catalog.Stats{
		Products: countWhere(s.products, func(p *catalog.Product) bool { return p.IsActive }),
		Clients:  int64(s.clients.len()),
		Projects: int64(s.projects.len()),
		ActiveProjects: countWhere(s.projects, func(p *catalog.Project) bool {
			return p.Status == catalog.ProjectInProgress
		}),
		NewMessages: countWhere(s.contacts, func(c *catalog.ContactSubmission) bool {
			return c.Status == catalog.SubmissionNew
		}),
		PendingQuotes: countWhere(s.quotes, func(q *catalog.QuoteRequest) bool {
			return q.Status == catalog.QuotePending
		}),
	}, nil
}

func (s *Store) Events(ctx context.Context) (<-chan catalog.Event, error) {
	return s.hub.Subscribe(ctx), nil
}

func (s *Store) insert(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Store) delete(id string, remove func(string) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	found, err := remove(id)
	if err != nil {
		return err
	}
	if !found {
		return catalog.ErrNotFound
	}
	return nil
}
