package main

import (
	"net/http"

	"github.com/rs/zerolog/log"

	httphandlers "marketplace/internal/interfaces/http"
	"marketplace/internal/shared/config"
	"marketplace/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", deps.PageHandler.HandlePage)
	mux.Handle("POST /messages", middleware.RateLimit(deps.SubmitLimit)(http.HandlerFunc(deps.PageHandler.HandleSubmit)))
	mux.HandleFunc("GET /health", httphandlers.HandleHealth)

	handler := middleware.Logging(mux)

	if cfg.Telemetry.Enabled {
		handler = middleware.Telemetry(middleware.Tracing(handler))
	}

	if cfg.TLS.Enabled {
		handler = middleware.HSTS(middleware.SecureCookies(handler))
		log.Info().Msg("TLS security middleware enabled (HSTS + SecureCookies)")
	}

	return handler
}
