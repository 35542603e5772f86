// Package app contains the application setup for the storefront service.
package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phajay/storefront/internal/catalog"
	"github.com/phajay/storefront/internal/config"
	"github.com/phajay/storefront/internal/order"
	"github.com/phajay/storefront/internal/payment"
	"github.com/phajay/storefront/internal/storage"
	"github.com/phajay/storefront/internal/transport/rest"
	"github.com/phajay/storefront/pkg/messaging"
	"github.com/phajay/storefront/pkg/server"
)

type Dependencies struct {
	OrderService order.Service
	Catalog      *catalog.Provider
	Links        *payment.LinkBuilder
	Logger       *slog.Logger
}

// SetupDependencies wires the single order store instance for this session
// together with its collaborators.
func SetupDependencies(ctx context.Context, st storage.Store, publisher messaging.Publisher, cfg *config.Config, logger *slog.Logger) *Dependencies {
	store := order.NewStore(ctx, st, publisher, logger)

	return &Dependencies{
		OrderService: store,
		Catalog:      catalog.NewProvider(nil),
		Links:        payment.NewLinkBuilder(cfg.Payment.BaseURL, cfg.Payment.APIKey),
		Logger:       logger,
	}
}

// SetupHttpHandler initializes the HTTP router and routes for the storefront.
// Used by tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the storefront.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	handler := rest.NewHandler(deps.OrderService, deps.Catalog, deps.Links, deps.Logger)
	handler.RegisterRoutes(mux)
}

// SetupHttpServer creates and configures an HTTP server for the storefront.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {

	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}
