package main

import (
	"io"

	"github.com/alecthomas/kong"
	_ "github.com/joho/godotenv/autoload"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/cli/backups"
	"github.com/julianstephens/habitual/internal/cli/habits"
	"github.com/julianstephens/habitual/internal/cli/reports"
	"github.com/julianstephens/habitual/internal/cli/system"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
)

type CLI struct {
	Version     kong.VersionFlag
	DB          string `name:"db" help:"SQLite path, habits.json path or PostgreSQL connection string (default: keyring, then ~/.config/habitual/habitual.db)." env:"HABITUAL_DB"`
	Timezone    string `help:"IANA timezone used to decide what 'today' is." env:"HABITUAL_TIMEZONE"`
	Debug       bool   `help:"Enable debug logging." env:"HABITUAL_DEBUG"`
	OllamaURL   string `name:"ollama-url" help:"Ollama base URL for AI insight summaries." env:"HABITUAL_OLLAMA_URL"`
	OllamaModel string `name:"ollama-model" help:"Ollama model name." env:"HABITUAL_OLLAMA_MODEL"`

	Init     system.InitCmd      `cmd:"" help:"Initialize habitual storage."`
	Tui      system.TuiCmd       `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Serve    system.ServeCmd     `cmd:"" help:"Run the JSON API and web dashboard."`
	SSH      system.SSHCmd       `cmd:"" name:"ssh" help:"Serve the TUI over SSH."`
	Habit    habits.HabitCmd     `cmd:"" help:"Manage habits."`
	Stats    reports.StatsCmd    `cmd:"" help:"Show per-habit statistics."`
	Insights reports.InsightsCmd `cmd:"" help:"Show cross-habit insights."`
	Import   system.ImportCmd    `cmd:"" help:"Import habits from a habits.json document."`
	Backup   backups.BackupCmd   `cmd:"" help:"Manage database backups."`
	Keyring  system.KeyringCmd   `cmd:"" help:"Manage the PostgreSQL connection string in the OS keyring."`
	Doctor   system.DoctorCmd    `cmd:"" help:"Run health checks."`
}

func parserOptions() []kong.Option {
	return []kong.Option{
		kong.Name("habitual"),
		kong.Description("Habit tracker with streaks, a TUI, a web dashboard and an SSH front end"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":     constants.Version,
			"server_addr": constants.DefaultServerAddr,
			"ssh_addr":    constants.DefaultSSHAddr,
			"ssh_key":     constants.DefaultSSHKeyName,
		},
	}
}

func (app *CLI) config() (*config.Config, error) {
	return config.Resolve(config.Options{
		DB:          app.DB,
		Timezone:    app.Timezone,
		Debug:       app.Debug,
		OllamaURL:   app.OllamaURL,
		OllamaModel: app.OllamaModel,
	})
}

// run executes the selected command against the store named by cfg.
func run(kctx *kong.Context, cfg *config.Config, out io.Writer) error {
	store, err := cli.OpenStore(cfg)
	if err != nil {
		return err
	}
	appCtx := &cli.Context{Config: cfg, Store: store, Out: out}
	// init --force may swap the store
	defer func() { appCtx.Store.Close() }()

	return kctx.Run(appCtx)
}

func main() {
	var app CLI
	ctx := kong.Parse(&app, parserOptions()...)

	cfg, err := app.config()
	if err != nil {
		errors.Fatal(err)
	}

	if err := logger.Init(logger.Config{Debug: cfg.Debug, ConfigDir: cfg.ConfigDir}); err != nil {
		errors.Fatalf("failed to initialize logger: %v", err)
	}

	errors.Fatal(run(ctx, cfg, nil))
}
