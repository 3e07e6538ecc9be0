package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/server"
	"github.com/julianstephens/habitual/internal/service"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func setupClient(t *testing.T) *Client {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	svc := service.New(store, time.UTC, service.WithClock(func() time.Time { return fixedNow }))
	ts := httptest.NewServer(server.New(svc, "", "").RegisterRoutes())
	t.Cleanup(ts.Close)
	return New(ts.URL)
}

func strPtr(s string) *string { return &s }

func TestClientRoundTrip(t *testing.T) {
	c := setupClient(t)
	ctx := context.Background()

	habit, err := c.Create(ctx, models.HabitInput{Name: strPtr("Read")})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	res, err := c.Toggle(ctx, habit.ID, "2024-03-15")
	if err != nil || !res.Completed {
		t.Fatalf("Toggle() = %+v, %v", res, err)
	}

	updated, err := c.Update(ctx, habit.ID, models.HabitInput{Description: strPtr("nightly")})
	if err != nil || updated.Description != "nightly" || len(updated.Completions) != 1 {
		t.Fatalf("Update() = %+v, %v", updated, err)
	}

	habits, err := c.List(ctx)
	if err != nil || len(habits) != 1 {
		t.Fatalf("List() = %v, %v", habits, err)
	}

	report, err := c.Stats(ctx, StatsOptions{Policy: "legacy"})
	if err != nil || report.Policy != "legacy" || report.HabitsData[0].CompletionRate != 3 {
		t.Errorf("Stats() = %+v, %v", report, err)
	}

	days, err := c.Calendar(ctx, habit.ID, CalendarOptions{Days: 7})
	if err != nil || len(days) != 7 || !days[6].IsCompleted {
		t.Errorf("Calendar() = %+v, %v", days, err)
	}

	ins, err := c.Insights(ctx)
	if err != nil || ins.BasicStats.TotalCompletions != 1 {
		t.Errorf("Insights() = %+v, %v", ins, err)
	}

	health, err := c.Health(ctx)
	if err != nil || health["status"] != "up" {
		t.Errorf("Health() = %v, %v", health, err)
	}

	if err := c.Delete(ctx, habit.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
}

func TestClientMapsErrors(t *testing.T) {
	c := setupClient(t)
	ctx := context.Background()

	if _, err := c.Get(ctx, "missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := c.Create(ctx, models.HabitInput{Name: strPtr("")}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("Create(empty) error = %v, want ErrInvalidInput", err)
	}
	if _, err := c.Calendar(ctx, "missing", CalendarOptions{Days: 400}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("Calendar(400) error = %v, want ErrInvalidInput", err)
	}
}

func TestNewAddsScheme(t *testing.T) {
	if got := New("127.0.0.1:5000/").BaseURL(); got != "http://127.0.0.1:5000" {
		t.Errorf("BaseURL() = %q", got)
	}
}
