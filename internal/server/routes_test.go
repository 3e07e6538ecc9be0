package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/service"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func setupServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	svc := service.New(store, time.UTC, service.WithClock(func() time.Time { return fixedNow }))
	srv := New(svc, "127.0.0.1:0", "")
	return srv, srv.RegisterRoutes()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func createHabit(t *testing.T, h http.Handler, name string) models.Habit {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/habits", `{"name":"`+name+`","description":"test"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	return decode[models.Habit](t, rec)
}

func TestHabitLifecycle(t *testing.T) {
	_, h := setupServer(t)

	habit := createHabit(t, h, "Read")
	if habit.ID == "" || habit.Name != "Read" {
		t.Fatalf("created = %+v", habit)
	}

	rec := do(t, h, http.MethodGet, "/api/habits", "")
	list := decode[habitsResponse](t, rec)
	if rec.Code != http.StatusOK || len(list.Habits) != 1 {
		t.Fatalf("list = %d %+v", rec.Code, list)
	}

	rec = do(t, h, http.MethodPut, "/api/habits/"+habit.ID, `{"name":"Read more"}`)
	msg := decode[messageResponse](t, rec)
	if rec.Code != http.StatusOK || msg.HabitID != habit.ID || msg.Message != "Habit updated successfully" {
		t.Errorf("update = %d %+v", rec.Code, msg)
	}

	rec = do(t, h, http.MethodGet, "/api/habits/"+habit.ID, "")
	got := decode[models.Habit](t, rec)
	if got.Name != "Read more" || got.Description != "test" {
		t.Errorf("get after update = %+v", got)
	}

	rec = do(t, h, http.MethodDelete, "/api/habits/"+habit.ID, "")
	if rec.Code != http.StatusOK {
		t.Errorf("delete status = %d", rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/api/habits/"+habit.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", rec.Code)
	}
}

func TestToggle(t *testing.T) {
	_, h := setupServer(t)
	habit := createHabit(t, h, "Read")

	tests := []struct {
		name       string
		id         string
		body       string
		wantStatus int
		wantError  string
	}{
		{"toggle on", habit.ID, `{"date":"2024-03-15"}`, http.StatusOK, ""},
		{"missing date", habit.ID, `{}`, http.StatusBadRequest, "Date is required"},
		{"empty date", habit.ID, `{"date":""}`, http.StatusBadRequest, "Date is required"},
		{"malformed date", habit.ID, `{"date":"March 15"}`, http.StatusBadRequest, ""},
		{"future date", habit.ID, `{"date":"2024-03-16"}`, http.StatusBadRequest, ""},
		{"not json", habit.ID, `date=2024-03-15`, http.StatusBadRequest, ""},
		{"unknown habit", "missing", `{"date":"2024-03-15"}`, http.StatusNotFound, "Habit not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/habits/"+tt.id+"/toggle", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantError != "" {
				if got := decode[errorResponse](t, rec); got.Error != tt.wantError {
					t.Errorf("error = %q, want %q", got.Error, tt.wantError)
				}
			}
		})
	}

	rec := do(t, h, http.MethodPost, "/api/habits/"+habit.ID+"/toggle", `{"date":"2024-03-15"}`)
	res := decode[models.ToggleResult](t, rec)
	if res.Completed || res.Date != "2024-03-15" || res.HabitID != habit.ID {
		t.Errorf("second toggle = %+v", res)
	}
}

func TestStats(t *testing.T) {
	_, h := setupServer(t)
	habit := createHabit(t, h, "Read")
	do(t, h, http.MethodPost, "/api/habits/"+habit.ID+"/toggle", `{"date":"2024-03-14"}`)
	do(t, h, http.MethodPost, "/api/habits/"+habit.ID+"/toggle", `{"date":"2024-03-15"}`)

	rec := do(t, h, http.MethodGet, "/api/habits/stats", "")
	report := decode[models.StatsReport](t, rec)
	if rec.Code != http.StatusOK || report.TotalHabits != 1 {
		t.Fatalf("stats = %d %+v", rec.Code, report)
	}
	s := report.HabitsData[0]
	if s.ID != habit.ID || s.Streak != 2 || s.TotalCompletions != 2 || s.CompletionRate != 100 {
		t.Errorf("habit stats = %+v", s)
	}

	rec = do(t, h, http.MethodGet, "/api/habits/stats?policy=legacy", "")
	legacy := decode[models.StatsReport](t, rec)
	if legacy.Policy != "legacy" || legacy.HabitsData[0].CompletionRate != 7 {
		t.Errorf("legacy stats = %+v", legacy)
	}

	rec = do(t, h, http.MethodGet, "/api/habits/stats?policy=bogus", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bogus policy status = %d", rec.Code)
	}
}

func TestCalendar(t *testing.T) {
	_, h := setupServer(t)
	habit := createHabit(t, h, "Read")
	do(t, h, http.MethodPost, "/api/habits/"+habit.ID+"/toggle", `{"date":"2024-03-15"}`)

	rec := do(t, h, http.MethodGet, "/api/habits/"+habit.ID+"/calendar", "")
	cal := decode[calendarResponse](t, rec)
	if len(cal.Days) != 28 || cal.Days[27].Date != "2024-03-15" || !cal.Days[27].IsCompleted {
		t.Errorf("calendar = %+v", cal)
	}

	rec = do(t, h, http.MethodGet, "/api/habits/"+habit.ID+"/calendar?days=7", "")
	if cal := decode[calendarResponse](t, rec); len(cal.Days) != 7 {
		t.Errorf("7-day calendar has %d days", len(cal.Days))
	}

	for _, q := range []string{"0", "400", "x"} {
		rec = do(t, h, http.MethodGet, "/api/habits/"+habit.ID+"/calendar?days="+q, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("days=%s status = %d", q, rec.Code)
		}
	}
}

func TestCreateValidation(t *testing.T) {
	_, h := setupServer(t)
	for _, body := range []string{`{}`, `{"name":""}`, `not json`} {
		if rec := do(t, h, http.MethodPost, "/api/habits", body); rec.Code != http.StatusBadRequest {
			t.Errorf("POST %s status = %d", body, rec.Code)
		}
	}
}

func TestInsightsHealthAndDashboard(t *testing.T) {
	_, h := setupServer(t)
	createHabit(t, h, "<Read>")

	rec := do(t, h, http.MethodGet, "/api/insights", "")
	ins := decode[models.Insights](t, rec)
	if rec.Code != http.StatusOK || ins.BasicStats.TotalHabits != 1 {
		t.Errorf("insights = %d %+v", rec.Code, ins)
	}

	rec = do(t, h, http.MethodGet, "/health", "")
	if health := decode[map[string]string](t, rec); health["status"] != "up" {
		t.Errorf("health = %v", health)
	}

	rec = do(t, h, http.MethodGet, "/", "")
	body := rec.Body.String()
	if rec.Code != http.StatusOK || !strings.Contains(body, "&lt;Read&gt;") || !strings.Contains(body, "2024-03-15") {
		t.Errorf("dashboard = %d %s", rec.Code, body)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("dashboard content type = %q", ct)
	}

	if rec := do(t, h, http.MethodGet, "/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d", rec.Code)
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	srv, _ := setupServer(t)
	srv.lockDir = t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, ready) }()

	addr := <-ready
	res, err := http.Get("http://" + addr + "/health")
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	res.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
