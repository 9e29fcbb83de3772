package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/queryloom/queryloom/internal/config"
	"github.com/queryloom/queryloom/internal/store"
)

type Server struct {
	cfg   *config.Config
	store *store.Store
	http  *http.Server
}

func New(cfg *config.Config, st *store.Store) (*Server, error) {
	s := &Server{cfg: cfg, store: st}

	router, err := s.setupRoutes()
	if err != nil {
		return nil, fmt.Errorf("setup routes: %w", err)
	}

	s.http = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No write timeout: generate_sql_stream holds the response open for
		// as long as the model streams.
		IdleTimeout: 120 * time.Second,
	}

	return s, nil
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.http.Addr).Msg("server listening")
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("graceful shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := s.http.Shutdown(shutdownCtx)
		s.store.Close()
		log.Info().Msg("metadata store closed")
		return err
	case err := <-errCh:
		return err
	}
}
