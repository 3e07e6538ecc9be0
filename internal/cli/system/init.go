package system

import (
	"fmt"
	"os"
	"time"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/storage"
)

type InitCmd struct {
	Force bool `help:"Force reset by deleting the existing database file before initialization."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if ctx.Config != nil && ctx.Config.Backend == storage.KindPostgres {
			return fmt.Errorf("--force is not supported for PostgreSQL; drop the habitual schema manually")
		}
		dbPath := ctx.Store.GetConfigPath()
		if _, err := os.Stat(dbPath); err == nil {
			// Close first to release file locks
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			ctx.Printf("Deleted existing database at: %s\n", dbPath)
			// Reopen from scratch
			var loc *time.Location
			if ctx.Config != nil {
				loc = ctx.Config.Location
			}
			fresh, err := storage.New(dbPath, loc)
			if err != nil {
				return err
			}
			ctx.Store = fresh
			ctx.SetService(nil)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized habitual storage at: %s\n", ctx.Store.GetConfigPath())
	return nil
}
