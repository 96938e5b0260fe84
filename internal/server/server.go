package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mynk/mynk/internal/db"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	config *Config
	db     *sqlx.DB
	svc    *Services
	server *http.Server
}

func New(config *Config) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// sqlite serializes writers anyway, a single connection avoids busy errors
	sqliteDb, err := db.NewSqliteDB(db.WithPath(config.IndexPath()), db.WithMaxOpenConns(1))
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	svc, err := NewServices(config, sqliteDb)
	if err != nil {
		sqliteDb.Close()
		return nil, err
	}

	handler, err := SetupRoutes(config, svc)
	if err != nil {
		sqliteDb.Close()
		return nil, err
	}

	return &Server{
		config: config,
		db:     sqliteDb,
		svc:    svc,
		server: &http.Server{
			Addr:              config.HTTP.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Handler exposes the routes, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	slog.Info("mynk server start", "addr", s.config.HTTP.Addr, "dataDir", s.config.DataDir)
	defer slog.Info("mynk server stop")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.runHttpServer()
	}()

	select {
	case err := <-errCh:
		s.db.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		slog.Info("mynk server shutdown signal")
		return s.Stop()
	}
}

func (s *Server) Stop() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	shutdownErr := s.server.Shutdown(shutdownCtx)
	dbErr := s.db.Close()
	return errors.Join(shutdownErr, dbErr)
}

func (s *Server) runHttpServer() error {
	if s.config.HTTP.TLS() {
		slog.Info("server start tls", "addr", s.config.HTTP.Addr, "cert", s.config.HTTP.CertFile, "key", s.config.HTTP.KeyFile)
		return s.server.ListenAndServeTLS(s.config.HTTP.CertFile, s.config.HTTP.KeyFile)
	}
	slog.Info("server start http", "addr", s.config.HTTP.Addr)
	return s.server.ListenAndServe()
}
