package web

import (
	"log"
	"net/http"

	"github.com/ecogroup/ecgsite/catalog"
	"github.com/ecogroup/ecgsite/i18n"
	"github.com/ecogroup/ecgsite/nullable"
	"github.com/ecogroup/ecgsite/pdfs"
	"github.com/ecogroup/ecgsite/requests"
	"github.com/ecogroup/ecgsite/responses"
	"github.com/ecogroup/ecgsite/storages"
)

func (a *App) listProducts(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		category = catalog.CategoryAll
	}
	products, err := a.Backend.ListProducts(r.Context(), catalog.ProductFilter{
		Category: category,
		Featured: requests.QueryBool(r, "featured", false),
		Limit:    requests.QueryInt(r, "limit", 0),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, products)
}

// activeProduct hides inactive products from the public
func (a *App) activeProduct(r *http.Request) (*catalog.Product, error) {
	p, err := a.Backend.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, catalog.ErrNotFound
	}
	return p, nil
}

func (a *App) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := a.activeProduct(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, p)
}

// productPDF streams the specification document of a product.
// Query flags specs, process, partners and images override the default sections.
func (a *App) productPDF(w http.ResponseWriter, r *http.Request) {
	p, err := a.activeProduct(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	def := pdfs.DefaultOptions()
	opts := pdfs.Options{
		IncludeTechnicalSpecs:      requests.QueryBool(r, "specs", def.IncludeTechnicalSpecs),
		IncludeConstructionProcess: requests.QueryBool(r, "process", def.IncludeConstructionProcess),
		IncludePartners:            requests.QueryBool(r, "partners", def.IncludePartners),
		IncludeImages:              requests.QueryBool(r, "images", def.IncludeImages),
	}
	saver := a.pdfSaver(w, r)
	if _, err = a.PDF.ComposeRecordDocument(r.Context(), catalog.RecordFromProduct(p), opts, saver); err != nil {
		a.pdfFailed(w, r, saver, err)
		return
	}
	log.Printf("[INFO][PDF] %s sent (%d bytes)", saver.Filename(), saver.BytesWritten())
}

func (a *App) companyProfilePDF(w http.ResponseWriter, r *http.Request) {
	saver := a.pdfSaver(w, r)
	if _, err := a.PDF.ComposeCompanyProfileDocument(r.Context(), saver); err != nil {
		a.pdfFailed(w, r, saver, err)
		return
	}
	log.Printf("[INFO][PDF] %s sent (%d bytes)", saver.Filename(), saver.BytesWritten())
}

func (a *App) pdfSaver(w http.ResponseWriter, r *http.Request) *responses.PDFSaver {
	saver := responses.NewPDFSaver(w)
	if requests.QueryBool(r, "inline", false) {
		saver.Disposition = responses.DispositionInline
	}
	return saver
}

// pdfFailed can only answer with an error while no document bytes went out
func (a *App) pdfFailed(w http.ResponseWriter, r *http.Request, saver *responses.PDFSaver, err error) {
	if saver.Filename() != "" {
		log.Printf("[ERROR][PDF] sending %s: %v", saver.Filename(), err)
		return
	}
	writeError(w, r, err)
}

func (a *App) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := a.Backend.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, categories)
}

func listFilter(r *http.Request) catalog.Filter {
	return catalog.Filter{
		Featured: requests.QueryBool(r, "featured", false),
		Limit:    requests.QueryInt(r, "limit", 0),
	}
}

func (a *App) listClients(w http.ResponseWriter, r *http.Request) {
	clients, err := a.Backend.ListClients(r.Context(), listFilter(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, clients)
}

func (a *App) listTestimonials(w http.ResponseWriter, r *http.Request) {
	testimonials, err := a.Backend.ListTestimonials(r.Context(), listFilter(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, testimonials)
}

func (a *App) catalogues(r *http.Request) ([]catalog.Catalogue, error) {
	if a.Catalogues != nil {
		return a.Catalogues.Get(r.Context())
	}
	return storages.ListCatalogues(r.Context(), a.Files)
}

func (a *App) listCatalogues(w http.ResponseWriter, r *http.Request) {
	list, err := a.catalogues(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, list)
}

func (a *App) dictionary(w http.ResponseWriter, r *http.Request) {
	lang := r.PathValue("lang")
	if !i18n.Supported(lang) {
		writeError(w, r, catalog.ErrNotFound)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, a.I18n.Dict(lang))
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

func (a *App) submitContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := requests.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := a.Backend.CreateContactSubmission(r.Context(), &catalog.ContactSubmission{
		Name:    req.Name,
		Email:   req.Email,
		Company: nullable.StringOrNil(req.Company),
		Phone:   nullable.StringOrNil(req.Phone),
		Message: req.Message,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.Printf("[INFO][INBOX] contact submission %s from %s", created.ID, requests.GetClientIP(r))
	responses.EncodeWriteJSON(w, http.StatusCreated, created)
}

type quoteRequest struct {
	ProductID     string `json:"product_id"`
	ClientName    string `json:"client_name"`
	ClientEmail   string `json:"client_email"`
	ClientCompany string `json:"client_company"`
	ClientPhone   string `json:"client_phone"`
	Quantity      int    `json:"quantity"`
	Message       string `json:"message"`
}

func (a *App) requestQuote(w http.ResponseWriter, r *http.Request) {
	req := quoteRequest{Quantity: 1}
	if err := requests.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.ProductID == "" {
		writeError(w, r, catalog.ErrInvalid)
		return
	}
	p, err := a.Backend.GetProduct(r.Context(), req.ProductID)
	if err == nil && !p.IsActive {
		err = catalog.ErrNotFound
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := a.Backend.CreateQuoteRequest(r.Context(), &catalog.QuoteRequest{
		ProductID:     p.ID,
		ProductName:   p.Name,
		ClientName:    req.ClientName,
		ClientEmail:   req.ClientEmail,
		ClientCompany: nullable.StringOrNil(req.ClientCompany),
		ClientPhone:   nullable.StringOrNil(req.ClientPhone),
		Quantity:      req.Quantity,
		Message:       nullable.StringOrNil(req.Message),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.Printf("[INFO][INBOX] quote request %s for %q from %s", created.ID, p.Name, requests.GetClientIP(r))
	responses.EncodeWriteJSON(w, http.StatusCreated, created)
}
