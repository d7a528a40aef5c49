package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"marketplace/internal/domain/marketplace"
	"marketplace/internal/domain/submission"
	"marketplace/internal/infrastructure/api"
	"marketplace/internal/infrastructure/database"
	httphandlers "marketplace/internal/interfaces/http"
	"marketplace/internal/shared/auth"
	"marketplace/internal/shared/config"
	"marketplace/internal/shared/i18n"
	"marketplace/internal/shared/logger"
	"marketplace/internal/shared/ratelimit"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *database.DB

	PageHandler *httphandlers.PageHandler
	SubmitLimit *ratelimit.KeyLimiter

	// ledger pruning (scheduler and prune command)
	Submissions *submission.Service
}

// NewDependencies initializes all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	log.Info().Str("driver", db.Driver()).Msg("connected to database")

	ledger := database.NewSubmissionRepository(db)

	tokens, err := auth.NewFormTokens(cfg.Security.AppSecret, cfg.Security.FormTokenTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init form tokens: %w", err)
	}

	catalog, err := i18n.Load(cfg.Copy.File)
	if err != nil {
		db.Close()
		return nil, err
	}

	client := api.NewClient(cfg.API.BaseURL, cfg.API.Token, cfg.API.Timeout)
	service := marketplace.NewService(client, client, ledger, tokens, logger.Component("marketplace"))

	pageHandler, err := httphandlers.NewPageHandler(service, catalog, logger.Component("http"))
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Dependencies{
		DB:          db,
		PageHandler: pageHandler,
		SubmitLimit: ratelimit.New(cfg.RateLimit.SubmitPerSecond, cfg.RateLimit.SubmitBurst, cfg.RateLimit.IdleTTL),
		Submissions: submission.NewService(ledger),
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
