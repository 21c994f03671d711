// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the service variant over HTTP: upload and convert,
// download converted files, and a health check.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/pdiddy/ugc/internal/catalog"
	"github.com/pdiddy/ugc/internal/service"
	"github.com/pdiddy/ugc/pkg/types"
)

// Converter converts a batch of uploads.
type Converter interface {
	ConvertUploads(ctx context.Context, uploads []service.Upload, format types.TargetFormat) ([]service.Output, []types.Result, types.Summary, error)
}

// Catalog finds converted files by name.
type Catalog interface {
	Lookup(ctx context.Context, name string) (catalog.Entry, error)
}

// Config holds server settings.
type Config struct {
	UploadDir      string
	DownloadDir    string
	MaxUploadBytes int64
	RequestTimeout time.Duration

	// Token, when set, is required as a bearer token on /api routes.
	Token string
}

// Server holds the handlers' dependencies.
type Server struct {
	cfg       Config
	converter Converter
	catalog   Catalog
	logger    zerolog.Logger
	now       func() time.Time
}

// New creates a Server. cat may be nil, in which case downloads are served
// straight from the downloads directory.
func New(cfg Config, conv Converter, cat Catalog, logger zerolog.Logger) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = types.DefaultConfig().Server.MaxUploadBytes
	}
	return &Server{cfg: cfg, converter: conv, catalog: cat, logger: logger, now: time.Now}
}

// Router builds the HTTP handler with all routes configured.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(hlog.NewHandler(s.logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Int("status", status).
			Int("size", size).
			Dur("duration", d).
			Msg("request")
	}))
	r.Use(chimiddleware.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(s.cfg.RequestTimeout))
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(BearerAuth(s.cfg.Token))
		r.Post("/convert", s.handleConvert)
		r.Get("/download/{filename}", s.handleDownload)
	})

	return r
}
