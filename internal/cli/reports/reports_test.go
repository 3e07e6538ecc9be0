package reports

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/insights"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/service"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
)

var fixedNow = time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

func setup(t *testing.T, opts ...service.Option) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store := sqlite.NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	out := &bytes.Buffer{}
	ctx := &cli.Context{
		Config: &config.Config{DB: dbPath, Backend: storage.KindSQLite, Location: time.UTC},
		Store:  store,
		Out:    out,
	}
	opts = append(opts, service.WithClock(func() time.Time { return fixedNow }))
	ctx.SetService(service.New(store, time.UTC, opts...))
	return ctx, out
}

func seed(t *testing.T, ctx *cli.Context, name string, days ...string) {
	t.Helper()
	svc := ctx.Service()
	h, err := svc.Create(t.Context(), models.HabitInput{Name: &name})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	for _, d := range days {
		if _, err := svc.Toggle(t.Context(), h.ID, d); err != nil {
			t.Fatalf("toggle %s failed: %v", d, err)
		}
	}
}

func TestStatsCmd(t *testing.T) {
	ctx, out := setup(t)
	seed(t, ctx, "Read", "2024-03-09", "2024-03-10")

	if err := (&StatsCmd{Policy: "default"}).Run(ctx); err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Total habits: 1") {
		t.Errorf("missing total in %q", got)
	}
	if strings.Contains(got, "deprecated") {
		t.Error("default policy should not print deprecation warning")
	}
	if !strings.Contains(got, "100%") {
		t.Errorf("expected 100%% rate for a habit created today, got %q", got)
	}
}

func TestStatsCmdLegacy(t *testing.T) {
	ctx, out := setup(t)
	seed(t, ctx, "Read", "2024-03-10")

	if err := (&StatsCmd{Policy: "legacy"}).Run(ctx); err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "deprecated") {
		t.Errorf("expected deprecation warning, got %q", got)
	}
	// 1 of 30 days
	if !strings.Contains(got, " 3%") {
		t.Errorf("expected legacy rate of 3%%, got %q", got)
	}
}

func TestStatsCmdUnknownPolicy(t *testing.T) {
	ctx, _ := setup(t)
	if err := (&StatsCmd{Policy: "weekly"}).Run(ctx); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestInsightsCmdWithoutGenerator(t *testing.T) {
	ctx, out := setup(t)
	seed(t, ctx, "Read", "2024-03-10")

	if err := (&InsightsCmd{}).Run(ctx); err != nil {
		t.Fatalf("insights failed: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Total completions:  1") {
		t.Errorf("unexpected output %q", got)
	}
	if !strings.Contains(got, "Best performing:    Read") {
		t.Errorf("expected best habit, got %q", got)
	}
}

func TestInsightsCmdRendersSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"response": "Keep **reading** daily.", "done": true})
	}))
	defer srv.Close()

	ctx, out := setup(t, service.WithGenerator(insights.NewOllama(srv.URL, "phi")))
	seed(t, ctx, "Read", "2024-03-05", "2024-03-06", "2024-03-07", "2024-03-08", "2024-03-09", "2024-03-10")

	if err := (&InsightsCmd{Raw: true}).Run(ctx); err != nil {
		t.Fatalf("insights failed: %v", err)
	}
	if !strings.Contains(out.String(), "Keep **reading** daily.") {
		t.Errorf("expected raw summary, got %q", out.String())
	}
}

func TestRenderFallsBackToRaw(t *testing.T) {
	if got := render("plain", true); got != "plain" {
		t.Errorf("expected raw text, got %q", got)
	}
	if got := render("some *markdown*", false); !strings.Contains(got, "markdown") {
		t.Errorf("expected rendered text to keep content, got %q", got)
	}
}
