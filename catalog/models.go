package catalog

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ecogroup/ecgsite/nullable"
)

type Product struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	Category       string           `json:"category"`
	ImageURL       nullable.String  `json:"image_url"`
	PDFURL         nullable.String  `json:"pdf_url"`
	Specifications Specs            `json:"specifications"`
	Price          nullable.Float64 `json:"price"`
	IsFeatured     bool             `json:"is_featured"`
	IsActive       bool             `json:"is_active"`
	SortOrder      int              `json:"sort_order"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func (p *Product) GetID() string { return p.ID }

func (p *Product) TargetFields() []any {
	return []any{
		&p.ID, &p.Name, &p.Description, &p.Category, &p.ImageURL, &p.PDFURL,
		&p.Specifications, &p.Price, &p.IsFeatured, &p.IsActive, &p.SortOrder,
		&p.CreatedAt, &p.UpdatedAt,
	}
}

func (p *Product) Validate() error {
	if p.Name == "" {
		return invalid("product name is required")
	}
	if p.Category == "" {
		return invalid("product category is required")
	}
	if p.Price.Valid && p.Price.Float64 < 0 {
		return invalid("product price must not be negative")
	}
	return nil
}

type Category struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description nullable.String `json:"description"`
	ImageURL    nullable.String `json:"image_url"`
	SortOrder   int             `json:"sort_order"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (c *Category) GetID() string { return c.ID }

func (c *Category) TargetFields() []any {
	return []any{&c.ID, &c.Name, &c.Description, &c.ImageURL, &c.SortOrder, &c.CreatedAt}
}

func (c *Category) Validate() error {
	if c.Name == "" {
		return invalid("category name is required")
	}
	return nil
}

type Client struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	LogoURL     string          `json:"logo_url"`
	Description nullable.String `json:"description"`
	Website     nullable.String `json:"website"`
	Industry    nullable.String `json:"industry"`
	IsFeatured  bool            `json:"is_featured"`
	SortOrder   int             `json:"sort_order"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (c *Client) GetID() string { return c.ID }

func (c *Client) TargetFields() []any {
	return []any{
		&c.ID, &c.Name, &c.LogoURL, &c.Description, &c.Website, &c.Industry,
		&c.IsFeatured, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt,
	}
}

func (c *Client) Validate() error {
	if c.Name == "" {
		return invalid("client name is required")
	}
	return nil
}

type Testimonial struct {
	ID             string          `json:"id"`
	ClientName     string          `json:"client_name"`
	ClientCompany  string          `json:"client_company"`
	ClientPosition nullable.String `json:"client_position"`
	Content        string          `json:"content"`
	Rating         int             `json:"rating"`
	ImageURL       nullable.String `json:"image_url"`
	IsFeatured     bool            `json:"is_featured"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (t *Testimonial) GetID() string { return t.ID }

func (t *Testimonial) TargetFields() []any {
	return []any{
		&t.ID, &t.ClientName, &t.ClientCompany, &t.ClientPosition, &t.Content,
		&t.Rating, &t.ImageURL, &t.IsFeatured, &t.CreatedAt,
	}
}

func (t *Testimonial) Validate() error {
	if t.ClientName == "" || t.Content == "" {
		return invalid("testimonial needs a client name and content")
	}
	if t.Rating < 1 || t.Rating > 5 {
		return invalid("rating must be between 1 and 5")
	}
	return nil
}

type ContactSubmission struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	Company   nullable.String  `json:"company"`
	Phone     nullable.String  `json:"phone"`
	Message   string           `json:"message"`
	Status    SubmissionStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func (s *ContactSubmission) GetID() string { return s.ID }

func (s *ContactSubmission) TargetFields() []any {
	return []any{
		&s.ID, &s.Name, &s.Email, &s.Company, &s.Phone, &s.Message, &s.Status,
		&s.CreatedAt, &s.UpdatedAt,
	}
}

func (s *ContactSubmission) Validate() error {
	if s.Name == "" {
		return invalid("name is required")
	}
	if err := validateEmail(s.Email); err != nil {
		return err
	}
	if s.Message == "" {
		return invalid("message is required")
	}
	return nil
}

type QuoteRequest struct {
	ID            string           `json:"id"`
	ProductID     string           `json:"product_id"`
	ProductName   string           `json:"product_name"`
	ClientName    string           `json:"client_name"`
	ClientEmail   string           `json:"client_email"`
	ClientCompany nullable.String  `json:"client_company"`
	ClientPhone   nullable.String  `json:"client_phone"`
	Quantity      int              `json:"quantity"`
	Message       nullable.String  `json:"message"`
	Status        QuoteStatus      `json:"status"`
	QuotedPrice   nullable.Float64 `json:"quoted_price"`
	QuoteNotes    nullable.String  `json:"quote_notes"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func (q *QuoteRequest) GetID() string { return q.ID }

func (q *QuoteRequest) TargetFields() []any {
	return []any{
		&q.ID, &q.ProductID, &q.ProductName, &q.ClientName, &q.ClientEmail,
		&q.ClientCompany, &q.ClientPhone, &q.Quantity, &q.Message, &q.Status,
		&q.QuotedPrice, &q.QuoteNotes, &q.CreatedAt, &q.UpdatedAt,
	}
}

func (q *QuoteRequest) Validate() error {
	if q.ProductID == "" || q.ProductName == "" {
		return invalid("product is required")
	}
	if q.ClientName == "" {
		return invalid("name is required")
	}
	if err := validateEmail(q.ClientEmail); err != nil {
		return err
	}
	if q.Quantity < 1 {
		return invalid("quantity must be at least 1")
	}
	return nil
}

// QuoteUpdate is what the admin panel may change on a quote request
type QuoteUpdate struct {
	Status      QuoteStatus      `json:"status"`
	QuotedPrice nullable.Float64 `json:"quoted_price"`
	QuoteNotes  nullable.String  `json:"quote_notes"`
}

func (u QuoteUpdate) Validate() error {
	if !u.Status.Valid() {
		return invalid("unknown quote status %q", u.Status)
	}
	if u.QuotedPrice.Valid && u.QuotedPrice.Float64 < 0 {
		return invalid("quoted price must not be negative")
	}
	return nil
}

type Project struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	ClientID       string           `json:"client_id"`
	ClientName     string           `json:"client_name"`
	Status         ProjectStatus    `json:"status"`
	StartDate      time.Time        `json:"start_date"`
	EndDate        nullable.Time    `json:"end_date"`
	Budget         nullable.Float64 `json:"budget"`
	ActualCost     nullable.Float64 `json:"actual_cost"`
	Progress       int              `json:"progress"`
	ProjectManager nullable.String  `json:"project_manager"`
	Notes          nullable.String  `json:"notes"`
	Attachments    StringList       `json:"attachments"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func (p *Project) GetID() string { return p.ID }

func (p *Project) TargetFields() []any {
	return []any{
		&p.ID, &p.Name, &p.Description, &p.ClientID, &p.ClientName, &p.Status,
		&p.StartDate, &p.EndDate, &p.Budget, &p.ActualCost, &p.Progress,
		&p.ProjectManager, &p.Notes, &p.Attachments, &p.CreatedAt, &p.UpdatedAt,
	}
}

func (p *Project) Validate() error {
	if p.Name == "" {
		return invalid("project name is required")
	}
	if p.Status == "" {
		p.Status = ProjectPlanning
	}
	if !p.Status.Valid() {
		return invalid("unknown project status %q", p.Status)
	}
	if p.Progress < 0 || p.Progress > 100 {
		return invalid("progress must be between 0 and 100")
	}
	if p.EndDate.Valid && p.EndDate.Time.Before(p.StartDate) {
		return invalid("end date is before start date")
	}
	return nil
}

type SiteSetting struct {
	ID          string          `json:"id"`
	Key         string          `json:"key"`
	Value       JSONValue       `json:"value"`
	Description nullable.String `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (s *SiteSetting) GetID() string { return s.Key }

func (s *SiteSetting) TargetFields() []any {
	return []any{&s.ID, &s.Key, &s.Value, &s.Description, &s.CreatedAt, &s.UpdatedAt}
}

// Catalogue is a downloadable PDF catalogue in file storage
type Catalogue struct {
	Name         string `json:"name"`
	URL          string `json:"url"`
	Size         int64  `json:"size"`
	OriginalName string `json:"originalName,omitempty"`
	Image        string `json:"image"`
}

// Stats are the admin dashboard counters
type Stats struct {
	Products       int64 `json:"products"`
	Clients        int64 `json:"clients"`
	Projects       int64 `json:"projects"`
	ActiveProjects int64 `json:"active_projects"`
	NewMessages    int64 `json:"new_messages"`
	PendingQuotes  int64 `json:"pending_quotes"`
}

// JSONValue holds any JSON document, stored in a json/text column
type JSONValue json.RawMessage

func (v JSONValue) MarshalJSON() ([]byte, error) {
	if len(v) == 0 {
		return []byte("null"), nil
	}
	return v, nil
}

func (v *JSONValue) UnmarshalJSON(data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON value")
	}
	*v = append((*v)[:0], data...)
	return nil
}

func (v *JSONValue) Scan(src any) error {
	switch s := src.(type) {
	case nil:
		*v = nil
		return nil
	case []byte:
		return v.UnmarshalJSON(bytes.Clone(s))
	case string:
		return v.UnmarshalJSON([]byte(s))
	}
	return fmt.Errorf("cannot scan %T into JSONValue", src)
}

func (v JSONValue) Value() (driver.Value, error) {
	if len(v) == 0 {
		return "null", nil
	}
	return string(v), nil
}

// StringList is a JSON array of strings, stored in a json/text column
type StringList []string

func (l *StringList) Scan(src any) error {
	var data []byte
	switch s := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		data = s
	case string:
		data = []byte(s)
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
