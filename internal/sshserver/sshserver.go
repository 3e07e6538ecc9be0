// Package sshserver serves the habit TUI to SSH clients.
package sshserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/tui"
)

type Server struct {
	addr    string
	backend tui.Backend
	srv     *ssh.Server
	log     *log.Logger
}

// New prepares an SSH server on addr. The host key at hostKeyPath is
// generated on first use.
func New(addr, hostKeyPath string, backend tui.Backend) (*Server, error) {
	if addr == "" {
		addr = constants.DefaultSSHAddr
	}
	if err := os.MkdirAll(filepath.Dir(hostKeyPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create host key directory: %w", err)
	}

	s := &Server{addr: addr, backend: backend, log: logger.For(logger.ComponentSSH)}
	srv, err := wish.NewServer(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithMiddleware(
			bubbletea.Middleware(s.teaHandler),
			activeterm.Middleware(),
			logging.MiddlewareWithLogger(s.log),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ssh server: %w", err)
	}
	s.srv = srv
	return s, nil
}

// Run serves until ctx is cancelled. ready, if not nil, receives the bound
// address once the listener is open.
func (s *Server) Run(ctx context.Context, ready chan<- string) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	addr := ln.Addr().String()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(ln)
	}()

	s.log.Info("SSH server listening", "addr", addr)
	if ready != nil {
		ready <- addr
	}

	select {
	case err := <-errCh:
		if errors.Is(err, ssh.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("Stopping SSH server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ServerShutdownWindow)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		return fmt.Errorf("failed to stop ssh server: %w", err)
	}
	return nil
}

func (s *Server) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	// activeterm guarantees a pty
	pty, _, _ := sess.Pty()
	s.log.Info("SSH session started", "user", sess.User(), "remote", sess.RemoteAddr().String())

	m := tui.New(s.backend,
		tui.WithContext(sess.Context()),
		tui.WithRenderer(bubbletea.MakeRenderer(sess)),
		tui.WithSize(pty.Window.Width, pty.Window.Height),
	)
	return m, []tea.ProgramOption{tea.WithAltScreen()}
}
