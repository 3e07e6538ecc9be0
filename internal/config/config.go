// Package config resolves command-line flags, environment and keyring into
// the settings every command shares.
package config

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/keyring"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/utils"
)

var keyringLookup = keyring.GetConnectionString

// Options are the raw global flag values.
type Options struct {
	DB          string
	Timezone    string
	Debug       bool
	OllamaURL   string
	OllamaModel string
}

type Config struct {
	// DB is a SQLite path, a .json path or a PostgreSQL connection string.
	DB      string
	Backend storage.Kind
	// FromKeyring is set when DB came from the OS keyring.
	FromKeyring bool

	Timezone string
	Location *time.Location

	// ConfigDir holds logs, backups, the server lockfile and the SSH host key.
	ConfigDir string

	Debug       bool
	OllamaURL   string
	OllamaModel string
}

func Resolve(opts Options) (*Config, error) {
	cfg := &Config{
		Timezone:    opts.Timezone,
		Debug:       opts.Debug,
		OllamaURL:   strings.TrimSpace(opts.OllamaURL),
		OllamaModel: opts.OllamaModel,
	}
	if cfg.Timezone == "" {
		cfg.Timezone = constants.DefaultTimezone
	}
	if cfg.OllamaModel == "" {
		cfg.OllamaModel = constants.DefaultOllamaModel
	}

	loc, err := utils.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	cfg.Location = loc

	db := strings.TrimSpace(opts.DB)
	if db == "" {
		connStr, err := keyringLookup()
		switch {
		case err == nil:
			db, cfg.FromKeyring = connStr, true
		case errors.Is(err, keyring.ErrNotFound):
		default:
			logger.Debug("Keyring lookup failed", "error", err)
		}
	}
	if db == "" {
		db = constants.DefaultConfigPath
	}

	cfg.Backend = storage.Detect(db)
	if cfg.Backend == storage.KindPostgres {
		cfg.DB = db
		cfg.ConfigDir, err = utils.ExpandPath(filepath.Dir(constants.DefaultConfigPath))
	} else {
		cfg.DB, err = utils.ExpandPath(db)
		cfg.ConfigDir = filepath.Dir(cfg.DB)
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfigDir is where logs go before flags are resolved.
func DefaultConfigDir() string {
	dir, err := utils.ExpandPath(filepath.Dir(constants.DefaultConfigPath))
	if err != nil {
		return "."
	}
	return dir
}
