package system

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/storage/jsonstore"
)

// ImportCmd copies a habits.json document into the configured store.
type ImportCmd struct {
	File string `arg:"" type:"existingfile" help:"Path to a habits.json document."`
}

func (c *ImportCmd) Run(ctx *cli.Context) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", c.File, err)
	}
	var loc *time.Location
	if ctx.Config != nil {
		loc = ctx.Config.Location
	}
	habits, err := jsonstore.Decode(data, loc)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", c.File, err)
	}

	if err := ctx.Load(); err != nil {
		return err
	}
	ctx.PerformAutomaticBackup()

	imported, skipped, err := ctx.Service().Import(context.Background(), habits)
	if err != nil {
		return fmt.Errorf("import stopped after %d habits: %w", imported, err)
	}

	ctx.Printf("✓ Imported %d habits from %s\n", imported, c.File)
	if skipped > 0 {
		ctx.Printf("  Skipped %d habits that already exist\n", skipped)
	}
	return nil
}
