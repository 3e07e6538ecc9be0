package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/julianstephens/habitual/internal/backup"
	"github.com/julianstephens/habitual/internal/config"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/insights"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/service"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/storage/postgres"
)

type Context struct {
	Config *config.Config
	Store  storage.Provider
	// Out receives command output; nil means stdout.
	Out io.Writer

	svc *service.Service
}

func (c *Context) Stdout() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Stdout(), format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Stdout(), args...)
}

// OpenStore builds the provider for cfg without loading it. A connection
// string read from the keyring may carry a password.
func OpenStore(cfg *config.Config) (storage.Provider, error) {
	if cfg.FromKeyring && cfg.Backend == storage.KindPostgres {
		if _, err := postgres.ValidateConnString(cfg.DB); err != nil && !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return nil, err
		}
		return postgres.New(cfg.DB), nil
	}
	return storage.New(cfg.DB, cfg.Location)
}

// Load opens the configured store.
func (c *Context) Load() error {
	if c.Store == nil {
		return fmt.Errorf("no storage configured")
	}
	return c.Store.Load()
}

// Service returns the habit service over the loaded store, creating it on
// first use.
func (c *Context) Service() *service.Service {
	if c.svc != nil {
		return c.svc
	}
	var opts []service.Option
	cfg := c.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	if cfg.OllamaURL != "" {
		opts = append(opts, service.WithGenerator(insights.NewOllama(cfg.OllamaURL, cfg.OllamaModel)))
	}
	c.svc = service.New(c.Store, cfg.Location, opts...)
	return c.svc
}

// SetService replaces the service, letting tests pin the clock.
func (c *Context) SetService(svc *service.Service) {
	c.svc = svc
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	if c.Config != nil && c.Config.Backend != storage.KindSQLite {
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.Create(); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// FindHabit resolves ref as a habit id, then as a case-insensitive name.
func FindHabit(ctx context.Context, svc *service.Service, ref string) (models.Habit, error) {
	ref = strings.TrimSpace(ref)
	if h, err := svc.Get(ctx, ref); err == nil {
		return h, nil
	}

	habits, err := svc.List(ctx)
	if err != nil {
		return models.Habit{}, err
	}
	var matches []models.Habit
	for _, h := range habits {
		if strings.EqualFold(h.Name, ref) {
			matches = append(matches, h)
		}
	}
	switch len(matches) {
	case 0:
		return models.Habit{}, apperrors.NotFound("habit", ref)
	case 1:
		return matches[0], nil
	default:
		return models.Habit{}, apperrors.Invalid("%d habits are named %q, use the id instead", len(matches), ref)
	}
}

// ShortID returns the first block of a UUID for compact listings.
func ShortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
