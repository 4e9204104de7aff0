package httpservice

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sanchit-4/universal-nft/internal/core/application"
	"github.com/sanchit-4/universal-nft/internal/interface/http/handlers"
	"github.com/sanchit-4/universal-nft/internal/interface/http/middlewares"
)

func newRouter(appSvc application.Service, noAuth bool) http.Handler {
	h := handlers.NewBridgeHandler(appSvc)
	handle := middlewares.ErrorConverter

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.Logger)
	r.Use(middlewares.PanicRecovery)

	r.Get("/healthz", handlers.Health)

	r.Route("/v1", func(api chi.Router) {
		api.Get("/config", handle(h.GetConfig))
		api.Get("/assets/{mint}", handle(h.GetAsset))
		api.Get("/assets/{mint}/balances/{owner}", handle(h.GetBalance))
		api.Get("/emissions/pending", handle(h.ListPendingEmissions))

		api.Group(func(signed chi.Router) {
			signed.Use(middlewares.Auth(noAuth))
			signed.Post("/initialize", handle(h.Initialize))
			signed.Post("/gateway/deliver", handle(h.DeliverInbound))
			signed.Post("/outbound", handle(h.SendOutbound))
		})
	})

	return r
}
