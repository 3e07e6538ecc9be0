package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/lockfile"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/service"
)

type Server struct {
	addr    string
	lockDir string

	svc *service.Service
	log *log.Logger
}

// New returns a server for svc listening on addr. When lockDir is not empty
// the bound address is advertised there while the server runs.
func New(svc *service.Service, addr, lockDir string) *Server {
	if addr == "" {
		addr = constants.DefaultServerAddr
	}
	return &Server{
		addr:    addr,
		lockDir: lockDir,
		svc:     svc,
		log:     logger.For(logger.ComponentServer),
	}
}

func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.addr,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  constants.ServerIdleTimeout,
		ReadTimeout:  constants.ServerReadTimeout,
		WriteTimeout: constants.ServerWriteTimeout,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully. ready, if
// not nil, receives the bound address once the listener is open.
func (s *Server) Run(ctx context.Context, ready chan<- string) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	addr := ln.Addr().String()

	if s.lockDir != "" {
		if err := lockfile.Write(s.lockDir, addr); err != nil {
			s.log.Warn("Failed to write server lockfile", "error", err)
		}
		defer lockfile.Remove(s.lockDir) //nolint:errcheck
	}

	srv := s.HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.log.Info("Server listening", "addr", addr)
	if ready != nil {
		ready <- addr
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ServerShutdownWindow)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
