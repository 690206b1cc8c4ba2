package web

import (
	"context"
	"log"
	"net/http"

	"github.com/ecogroup/ecgsite/catalog"
	"github.com/ecogroup/ecgsite/i18n"
	"github.com/ecogroup/ecgsite/pdfs"
)

// pageData is the dot of every page template
type pageData struct {
	Lang      string
	Languages []string
	Page      string
	Brand     pdfs.Brand
	Year      int
	bundle    *i18n.Bundle

	Products     []*catalog.Product
	Categories   []*catalog.Category
	Category     string
	Clients      []*catalog.Client
	Testimonials []*catalog.Testimonial
	Projects     []*catalog.Project
	Catalogues   []catalog.Catalogue
}

// T translates key into the page language
func (p *pageData) T(key string) string {
	return p.bundle.T(p.Lang, key)
}

type pageLoader func(ctx context.Context, r *http.Request, d *pageData) error

// page renders a layout page; a failing loader yields a 500 page, not a partial one
func (a *App) page(name string, load pageLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang := i18n.Negotiate(r)
		if q := r.URL.Query().Get("lang"); q == lang {
			http.SetCookie(w, &http.Cookie{
				Name:     i18n.CookieName,
				Value:    lang,
				Path:     "/",
				MaxAge:   365 * 24 * 60 * 60,
				SameSite: http.SameSiteLaxMode,
			})
		}
		brand := pdfs.DefaultBrand
		if a.PDF.Brand != nil {
			brand = *a.PDF.Brand
		}
		d := &pageData{
			Lang:      lang,
			Languages: i18n.Languages,
			Page:      name,
			Brand:     brand,
			Year:      a.now().Year(),
			bundle:    a.I18n,
		}
		if load != nil {
			if err := load(r.Context(), r, d); err != nil {
				log.Printf("[ERROR][WEB] loading page %s: %v", name, err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := a.Templates.Render(w, name, d); err != nil {
			log.Printf("[ERROR][WEB] rendering page %s: %v", name, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}

func (a *App) homeData(ctx context.Context, _ *http.Request, d *pageData) (err error) {
	if d.Products, err = a.Backend.ListProducts(ctx, catalog.ProductFilter{Category: catalog.CategoryAll, Featured: true, Limit: 6}); err != nil {
		return err
	}
	if d.Clients, err = a.Backend.ListClients(ctx, catalog.Filter{Featured: true, Limit: 8}); err != nil {
		return err
	}
	d.Testimonials, err = a.Backend.ListTestimonials(ctx, catalog.Filter{Featured: true, Limit: 3})
	return err
}

func (a *App) catalogueData(ctx context.Context, r *http.Request, d *pageData) (err error) {
	d.Category = r.URL.Query().Get("category")
	if d.Category == "" {
		d.Category = catalog.CategoryAll
	}
	if d.Categories, err = a.Backend.ListCategories(ctx); err != nil {
		return err
	}
	if d.Products, err = a.Backend.ListProducts(ctx, catalog.ProductFilter{Category: d.Category}); err != nil {
		return err
	}
	if d.Catalogues, err = a.catalogues(r); err != nil {
		// the page still works without the download list
		log.Printf("[WARN][WEB] listing catalogues: %v", err)
		d.Catalogues = nil
	}
	return nil
}

func (a *App) clientsData(ctx context.Context, _ *http.Request, d *pageData) (err error) {
	if d.Clients, err = a.Backend.ListClients(ctx, catalog.Filter{}); err != nil {
		return err
	}
	if d.Projects, err = a.Backend.ListProjects(ctx, catalog.ProjectFilter{Status: catalog.ProjectCompleted, Limit: 6}); err != nil {
		return err
	}
	d.Testimonials, err = a.Backend.ListTestimonials(ctx, catalog.Filter{Limit: 6})
	return err
}
