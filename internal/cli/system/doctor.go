package system

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"github.com/julianstephens/habitual/internal/analyzer"
	"github.com/julianstephens/habitual/internal/backup"
	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/keyring"
	"github.com/julianstephens/habitual/internal/migration"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
	"github.com/julianstephens/habitual/migrations"
)

type DoctorCmd struct{}

type check struct {
	name string
	// needsDB checks are skipped when the database is unreachable
	needsDB bool
	// warnOnly checks never fail the run
	warnOnly bool
	run      func(ctx *cli.Context) error
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	checks := []check{
		{name: "Schema version", needsDB: true, run: checkSchemaVersion},
		{name: "Backups present", warnOnly: true, run: checkBackupsPresent},
		{name: "Clock/timezone", run: checkClockTimezone},
		{name: "Habit integrity", needsDB: true, run: checkHabitsIntegrity},
		{name: "OS keyring", warnOnly: true, run: checkKeyring},
	}

	hasError := false
	dbReachable := false

	if err := checkDBReachable(ctx); err != nil {
		ctx.Printf("❌ Database reachable: FAIL\n")
		ctx.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		ctx.Printf("✓ Database reachable: OK\n")
		dbReachable = true
	}

	for _, c := range checks {
		if c.needsDB && !dbReachable {
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case c.warnOnly:
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	ctx.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	health := ctx.Store.Health(context.Background())
	if health["status"] != "up" {
		return fmt.Errorf("database is down: %s", health["error"])
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	store, ok := ctx.Store.(*sqlite.Store)
	if !ok {
		// validated on load for other backends
		return nil
	}
	db := store.GetDB()
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return err
	}
	runner := migration.NewRunner(db, subFS, migration.SQLite)
	current, err := runner.CurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	latest, err := runner.LatestVersion()
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}
	if current != latest {
		return fmt.Errorf("schema version %d, expected %d (run 'habitual init' to migrate)", current, latest)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	if _, ok := ctx.Store.(*sqlite.Store); !ok {
		return fmt.Errorf("backups are only available for SQLite databases")
	}
	mgr := backup.NewManager(ctx.Store.GetConfigPath())
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found in %s (run 'habitual backup create')", mgr.Dir())
	}
	if age := time.Since(backups[0].Timestamp); age > 7*24*time.Hour {
		return fmt.Errorf("newest backup is %d days old", int(age.Hours()/24))
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 {
		return fmt.Errorf("system clock looks wrong: %s", now.Format(time.RFC3339))
	}
	if ctx.Config == nil || ctx.Config.Location == nil {
		return fmt.Errorf("no reference timezone configured")
	}
	ctx.Printf("   Today in %s is %s\n", ctx.Config.Location, now.In(ctx.Config.Location).Format("2006-01-02"))
	return nil
}

// checkHabitsIntegrity looks for empty names, malformed or duplicate
// completion dates and completions after today.
func checkHabitsIntegrity(ctx *cli.Context) error {
	svc := ctx.Service()
	habits, err := svc.List(context.Background())
	if err != nil {
		return err
	}

	today := svc.Today()
	problems := 0
	for _, h := range habits {
		if h.Name == "" {
			ctx.Printf("   habit %s has an empty name\n", h.ID)
			problems++
		}
		seen := map[string]bool{}
		for _, c := range h.Completions {
			if _, ok := analyzer.ParseDay(c.Date); !ok {
				ctx.Printf("   habit %q has a malformed date %q\n", h.Name, c.Date)
				problems++
				continue
			}
			if seen[c.Date] {
				ctx.Printf("   habit %q has duplicate completions on %s\n", h.Name, c.Date)
				problems++
			}
			seen[c.Date] = true
			if c.Date > today {
				ctx.Printf("   habit %q has a completion in the future (%s), ignored by stats\n", h.Name, c.Date)
			}
		}
	}
	if problems > 0 {
		return fmt.Errorf("%d problems found across %d habits", problems, len(habits))
	}
	return nil
}

func checkKeyring(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		return fmt.Errorf("OS keyring is not available; PostgreSQL URLs must be passed with --db")
	}
	return nil
}
