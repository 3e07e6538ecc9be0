package system

import (
	"context"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/server"
	"github.com/julianstephens/habitual/internal/sshserver"
	"github.com/julianstephens/habitual/internal/tui"
)

type ServeCmd struct {
	Addr     string `help:"HTTP listen address." default:"${server_addr}" env:"HABITUAL_ADDR"`
	NoBackup bool   `help:"Skip the automatic backup taken at startup."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}
	if !c.NoBackup {
		ctx.PerformAutomaticBackup()
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(ctx.Service(), c.Addr, ctx.Config.ConfigDir)
	ready := make(chan string, 1)
	go func() {
		if addr, ok := <-ready; ok {
			ctx.Printf("✓ Serving habitual on http://%s (Ctrl+C to stop)\n", addr)
		}
	}()
	return srv.Run(sigCtx, ready)
}

type SSHCmd struct {
	Addr    string `help:"SSH listen address." default:"${ssh_addr}" env:"HABITUAL_SSH_ADDR"`
	HostKey string `help:"Host key path (default: <config dir>/${ssh_key})." type:"path"`
}

func (c *SSHCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}
	ctx.PerformAutomaticBackup()

	hostKey := c.HostKey
	if hostKey == "" {
		hostKey = filepath.Join(ctx.Config.ConfigDir, constants.DefaultSSHKeyName)
	}

	srv, err := sshserver.New(c.Addr, hostKey, tui.NewLocalBackend(ctx.Service()))
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ready := make(chan string, 1)
	go func() {
		if addr, ok := <-ready; ok {
			host, port, _ := net.SplitHostPort(addr)
			ctx.Printf("✓ Serving habitual over SSH on %s (connect with: ssh -p %s %s)\n", addr, port, host)
		}
	}()
	return srv.Run(sigCtx, ready)
}
