package system

import (
	"context"
	"fmt"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/client"
	"github.com/julianstephens/habitual/internal/tui"
)

type TuiCmd struct {
	Remote bool   `help:"Use a running 'habitual serve' found through its lockfile instead of opening the database."`
	Server string `help:"Base URL of a habitual server to use instead of the database."`
}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	backend, err := c.backend(ctx)
	if err != nil {
		return err
	}
	if err := tui.Run(context.Background(), backend); err != nil {
		return fmt.Errorf("tui exited with error: %w", err)
	}
	return nil
}

func (c *TuiCmd) backend(ctx *cli.Context) (tui.Backend, error) {
	if !c.Remote && c.Server == "" {
		if err := ctx.Load(); err != nil {
			return nil, err
		}
		// Perform automatic backup on TUI startup (after successful load)
		ctx.PerformAutomaticBackup()
		return tui.NewLocalBackend(ctx.Service()), nil
	}

	var cl *client.Client
	if c.Server != "" {
		cl = client.New(c.Server)
	} else {
		var err error
		cl, err = client.Discover(ctx.Config.ConfigDir)
		if err != nil {
			return nil, fmt.Errorf("no running server found (start one with 'habitual serve'): %w", err)
		}
	}
	if _, err := cl.Health(context.Background()); err != nil {
		return nil, fmt.Errorf("server at %s is not healthy: %w", cl.BaseURL(), err)
	}
	return tui.NewRemoteBackend(cl, ctx.Config.Location), nil
}
