// Package router собирает маршруты HTTP API витрины.
package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/YusovID/storefront/internal/http-server/handlers/admin"
	cartHandlers "github.com/YusovID/storefront/internal/http-server/handlers/cart"
	checkoutHandler "github.com/YusovID/storefront/internal/http-server/handlers/checkout"
	"github.com/YusovID/storefront/internal/http-server/handlers/delivery"
	"github.com/YusovID/storefront/internal/http-server/handlers/novelas"
	"github.com/YusovID/storefront/internal/http-server/middleware/adminauth"
	mwLogger "github.com/YusovID/storefront/internal/http-server/middleware/logger"
	"github.com/YusovID/storefront/internal/http-server/middleware/session"
)

type AdminStore interface {
	admin.Store
	novelas.Catalog
	adminauth.Authenticator
}

type Deps struct {
	Log          *slog.Logger
	Sessions     cartHandlers.Sessions
	Orchestrator checkoutHandler.Orchestrator
	Dispatcher   checkoutHandler.Dispatcher
	Delivery     delivery.Lister
	Admin        AdminStore
	Contact      string
	Clock        func() time.Time
}

func New(deps Deps) http.Handler {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mwLogger.New(deps.Log))
	r.Use(middleware.Recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/delivery/options", delivery.List(deps.Delivery))

	r.Get("/novelas", novelas.List(deps.Log, deps.Admin))
	r.Get("/novelas/catalog.txt", novelas.CatalogText(deps.Admin, deps.Contact, clock))

	r.Group(func(r chi.Router) {
		r.Use(session.Require)

		r.Get("/cart", cartHandlers.Get(deps.Log, deps.Sessions))
		r.Delete("/cart", cartHandlers.Clear(deps.Log, deps.Sessions))
		r.Post("/cart/lines", cartHandlers.AddLine(deps.Log, deps.Sessions))
		r.Delete("/cart/lines/{kind}/{id}", cartHandlers.RemoveLine(deps.Log, deps.Sessions))
		r.Put("/cart/lines/{kind}/{id}/seasons", cartHandlers.SetSeasons(deps.Log, deps.Sessions))
		r.Put("/cart/lines/{kind}/{id}/payment-method", cartHandlers.SetPaymentMethod(deps.Log, deps.Sessions))

		r.Post("/checkout", checkoutHandler.New(deps.Log, deps.Sessions, deps.Orchestrator, deps.Dispatcher))
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(adminauth.New(deps.Log, deps.Admin))

		admin.New(deps.Log, deps.Admin).Routes(r)
	})

	return r
}
