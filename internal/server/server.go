// Package server exposes the invoice template workflows over HTTP: one page
// to build and save a template from an uploaded invoice, one page to apply a
// stored template to a new invoice and download the result.
//
// Every failure is caught at the handler boundary and rendered as a JSON
// message; nothing crashes the process and nothing is retried automatically.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"invoiceocr/internal/ingest"
	"invoiceocr/internal/logger"
	"invoiceocr/internal/template"
)

// Categories offered when applying a template. Cosmetic only: the selected
// category plays no part in field resolution.
var Categories = []string{"electricity", "water", "gas"}

// Server handles the web UI and its API.
type Server struct {
	engine    *gin.Engine
	pipeline  *ingest.Pipeline
	templates *template.Store
	log       zerolog.Logger
}

// New creates a server with its collaborators passed in explicitly.
func New(pipeline *ingest.Pipeline, templates *template.Store) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		engine:    gin.New(),
		pipeline:  pipeline,
		templates: templates,
		log:       logger.WithComponent("server"),
	}
	s.engine.Use(gin.Recovery())
	s.registerRoutes()
	return s
}

// Run blocks serving HTTP on addr until ctx is cancelled, then shuts the
// listener down gracefully, letting in-flight extractions finish.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info().Str("addr", addr).Msg("starting server")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Engine exposes the underlying router (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
