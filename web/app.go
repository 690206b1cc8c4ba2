package web

import (
	"net/http"
	"time"

	"github.com/ecogroup/ecgsite/catalog"
	"github.com/ecogroup/ecgsite/i18n"
	"github.com/ecogroup/ecgsite/pdfs"
	"github.com/ecogroup/ecgsite/requests"
	"github.com/ecogroup/ecgsite/responses"
	"github.com/ecogroup/ecgsite/routing"
	"github.com/ecogroup/ecgsite/storages"
	"github.com/ecogroup/ecgsite/throttle"
	"github.com/ecogroup/ecgsite/tpl"
	"github.com/ecogroup/ecgsite/web/session"
)

// Throttle groups used by the router
const (
	ThrottleContact = "contact"
	ThrottleQuote   = "quote"
	ThrottleLogin   = "login"
)

const maxUploadMB = 20

// App holds everything the handlers share. Optional parts may be nil:
// Files (no uploads, sample catalogues), Catalogues (uncached listing),
// Live (no admin feed), LocalFiles (files served elsewhere).
type App struct {
	Backend    catalog.Backend
	Files      storages.FileStore
	Catalogues *storages.CatalogueCache
	I18n       *i18n.Bundle
	Templates  *tpl.HTMLTemplateStore
	Sessions   *session.Manager
	Admin      AdminConf
	Throttle   *throttle.BucketStore[string]
	PDF        pdfs.Generator
	Live       http.Handler

	LocalFiles       http.Handler // strips its own prefix
	LocalFilesPrefix string       // e.g. "/uploads/"

	Now func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) throttled(groupID string) routing.HandlerWrapper {
	return &throttle.Wrapper[string]{
		Store:   a.Throttle,
		GroupID: groupID,
		KeyOf:   requests.GetClientIP,
		Now:     a.Now,
	}
}

// Router registers every route of the site
func (a *App) Router() http.Handler {
	router := routing.NewBaseRouter()
	base := []routing.HandlerWrapper{routing.AccessLog, routing.Recover}

	router.Group("/", func(pages *routing.RouteGroup) {
		pages.HandleFunc("GET {$}", a.page("home", a.homeData))
		pages.HandleFunc("GET about", a.page("about", nil))
		pages.HandleFunc("GET catalogue", a.page("catalogue", a.catalogueData))
		pages.HandleFunc("GET pricing", a.page("pricing", nil))
		pages.HandleFunc("GET clients", a.page("clients", a.clientsData))
		pages.HandleFunc("GET contact", a.page("contact", nil))
	}, base...)

	router.Group("/api/", func(api *routing.RouteGroup) {
		api.HandleFunc("GET products", a.listProducts)
		api.HandleFunc("GET products/{id}", a.getProduct)
		api.HandleFunc("GET products/{id}/pdf", a.productPDF)
		api.HandleFunc("GET company-profile.pdf", a.companyProfilePDF)
		api.HandleFunc("GET categories", a.listCategories)
		api.HandleFunc("GET clients", a.listClients)
		api.HandleFunc("GET testimonials", a.listTestimonials)
		api.HandleFunc("GET catalogues", a.listCatalogues)
		api.HandleFunc("GET i18n/{lang}", a.dictionary)
		api.HandleFunc("POST contact", a.submitContact, a.throttled(ThrottleContact))
		api.HandleFunc("POST quotes", a.requestQuote, a.throttled(ThrottleQuote))
	}, base...)

	router.Group("/admin/", func(admin *routing.RouteGroup) {
		admin.HandleFunc("POST login", a.login, a.throttled(ThrottleLogin))
		admin.HandleFunc("POST logout", a.logout)

		admin.Group("api/", func(api *routing.RouteGroup) {
			api.HandleFunc("GET dashboard", a.dashboard)

			api.HandleFunc("GET products", a.adminListProducts)
			api.HandleFunc("POST products", a.createProduct)
			api.HandleFunc("PUT products/{id}", a.updateProduct)
			api.HandleFunc("DELETE products/{id}", a.deleteProduct)

			api.HandleFunc("GET categories", a.listCategories)
			api.HandleFunc("POST categories", a.createCategory)
			api.HandleFunc("PUT categories/{id}", a.updateCategory)
			api.HandleFunc("DELETE categories/{id}", a.deleteCategory)

			api.HandleFunc("GET clients", a.listClients)
			api.HandleFunc("POST clients", a.createClient)
			api.HandleFunc("PUT clients/{id}", a.updateClient)
			api.HandleFunc("DELETE clients/{id}", a.deleteClient)

			api.HandleFunc("GET projects", a.listProjects)
			api.HandleFunc("GET projects/{id}", a.getProject)
			api.HandleFunc("POST projects", a.createProject)
			api.HandleFunc("PUT projects/{id}", a.updateProject)
			api.HandleFunc("DELETE projects/{id}", a.deleteProject)

			api.HandleFunc("GET messages", a.listMessages)
			api.HandleFunc("PUT messages/{id}/status", a.updateMessageStatus)
			api.HandleFunc("GET quotes", a.listQuotes)
			api.HandleFunc("PUT quotes/{id}", a.updateQuote)

			api.HandleFunc("GET settings", a.listSettings)
			api.HandleFunc("PUT settings/{key}", a.upsertSetting)

			api.HandleFunc("POST uploads", a.upload)
			api.Handle("POST echo", &responses.EchoHandler{MaxMemoryMB: 1, Language: i18n.Negotiate})
		}, routing.HandlerWrapperFunc(a.requireAdmin))

		if a.Live != nil {
			admin.Handle("GET live", a.Live, routing.HandlerWrapperFunc(a.requireAdmin))
		}
	}, base...)

	if a.LocalFiles != nil && a.LocalFilesPrefix != "" {
		router.Handle("GET "+a.LocalFilesPrefix, a.LocalFiles, base...)
	}
	return router
}
