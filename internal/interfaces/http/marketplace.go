package http

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/rs/zerolog"

	"marketplace/internal/domain/marketplace"
	"marketplace/internal/shared/auth"
	"marketplace/internal/shared/i18n"
	"marketplace/internal/web"
)

// PageHandler serves the marketplace page and its message form.
type PageHandler struct {
	service *marketplace.Service
	catalog *i18n.Catalog
	tmpl    *template.Template
	logger  zerolog.Logger
}

// NewPageHandler creates a page handler with the embedded page template.
func NewPageHandler(service *marketplace.Service, catalog *i18n.Catalog, logger zerolog.Logger) (*PageHandler, error) {
	tmpl, err := web.PageTemplate()
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}
	return &PageHandler{
		service: service,
		catalog: catalog,
		tmpl:    tmpl,
		logger:  logger,
	}, nil
}

type pageView struct {
	Lang string
	Copy i18n.Copy
	Page *marketplace.Page
}

// HandlePage renders the form or the connect link followed by the message list.
func (h *PageHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	page, err := h.service.LoadPage(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load marketplace page")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	tag, persist := h.catalog.Resolve(r)
	view := pageView{
		Lang: tag.String(),
		Copy: h.catalog.Lookup(tag),
		Page: page,
	}

	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "page.html", view); err != nil {
		h.logger.Error().Err(err).Msg("failed to render marketplace page")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if persist {
		i18n.SetLanguageCookie(w, tag)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

// HandleSubmit submits the form text and redirects to the returned checkout URL.
func (h *PageHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	url, err := h.service.Submit(r.Context(), marketplace.SubmitParams{
		Text:  r.PostForm.Get("text"),
		Token: r.PostForm.Get("token"),
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenExpired):
			h.logger.Warn().Err(err).Msg("rejected message form")
			http.Error(w, "Invalid or expired form, reload the page", http.StatusBadRequest)
		case errors.Is(err, marketplace.ErrFormUsed):
			h.logger.Warn().Err(err).Msg("rejected message form")
			http.Error(w, "Form already used, reload the page", http.StatusBadRequest)
		case errors.Is(err, marketplace.ErrSubmissionPending):
			http.Error(w, "Submission in progress, try again shortly", http.StatusConflict)
		default:
			h.logger.Error().Err(err).Msg("failed to submit message")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	http.Redirect(w, r, url, http.StatusSeeOther)
}

const maxFormBytes = 1 << 20
