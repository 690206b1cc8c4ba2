package catalog

import (
	"context"
	"encoding/json"
)

// CategoryAll disables the category filter
const CategoryAll = "all"

type ProductFilter struct {
	Category        string
	Featured        bool
	Limit           int
	IncludeInactive bool // admin listings
}

type Filter struct {
	Featured bool
	Limit    int
}

type StatusFilter struct {
	Status string
	Limit  int
}

type ProjectFilter struct {
	Status   ProjectStatus
	ClientID string
	Limit    int
}

type ProductStore interface {
	// ListProducts returns products ordered by sort_order; active ones only unless f.IncludeInactive
	ListProducts(ctx context.Context, f ProductFilter) ([]*Product, error)
	// GetProduct returns a product regardless of its active flag
	GetProduct(ctx context.Context, id string) (*Product, error)
	CreateProduct(ctx context.Context, p *Product) (*Product, error)
	UpdateProduct(ctx context.Context, p *Product) (*Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type CategoryStore interface {
	ListCategories(ctx context.Context) ([]*Category, error)
	CreateCategory(ctx context.Context, c *Category) (*Category, error)
	UpdateCategory(ctx context.Context, c *Category) (*Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

type ClientStore interface {
	ListClients(ctx context.Context, f Filter) ([]*Client, error)
	GetClient(ctx context.Context, id string) (*Client, error)
	CreateClient(ctx context.Context, c *Client) (*Client, error)
	UpdateClient(ctx context.Context, c *Client) (*Client, error)
	DeleteClient(ctx context.Context, id string) error
}

type TestimonialStore interface {
	// ListTestimonials returns the newest first
	ListTestimonials(ctx context.Context, f Filter) ([]*Testimonial, error)
	CreateTestimonial(ctx context.Context, t *Testimonial) (*Testimonial, error)
	UpdateTestimonial(ctx context.Context, t *Testimonial) (*Testimonial, error)
	DeleteTestimonial(ctx context.Context, id string) error
}

type InboxStore interface {
	// CreateContactSubmission always stores the submission as new
	CreateContactSubmission(ctx context.Context, s *ContactSubmission) (*ContactSubmission, error)
	ListContactSubmissions(ctx context.Context, f StatusFilter) ([]*ContactSubmission, error)
	UpdateContactSubmissionStatus(ctx context.Context, id string, status SubmissionStatus) error

	// CreateQuoteRequest always stores the request as pending
	CreateQuoteRequest(ctx context.Context, q *QuoteRequest) (*QuoteRequest, error)
	ListQuoteRequests(ctx context.Context, f StatusFilter) ([]*QuoteRequest, error)
	UpdateQuoteRequest(ctx context.Context, id string, u QuoteUpdate) (*QuoteRequest, error)
}

type ProjectStore interface {
	ListProjects(ctx context.Context, f ProjectFilter) ([]*Project, error)
	GetProject(ctx context.Context, id string) (*Project, error)
	CreateProject(ctx context.Context, p *Project) (*Project, error)
	UpdateProject(ctx context.Context, p *Project) (*Project, error)
	DeleteProject(ctx context.Context, id string) error
}

type SettingStore interface {
	GetSiteSetting(ctx context.Context, key string) (*SiteSetting, error)
	ListSiteSettings(ctx context.Context) ([]*SiteSetting, error)
	UpsertSiteSetting(ctx context.Context, key string, value json.RawMessage) (*SiteSetting, error)
}

// Backend is chosen once at startup and shared by every handler
type Backend interface {
	Name() string
	ProductStore
	CategoryStore
	ClientStore
	TestimonialStore
	InboxStore
	ProjectStore
	SettingStore
	Stats(ctx context.Context) (Stats, error)
	// Events streams inbox events until ctx is done
	Events(ctx context.Context) (<-chan Event, error)
	Close() error
}
