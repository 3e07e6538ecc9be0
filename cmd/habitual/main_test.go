package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	gokeyring "github.com/zalando/go-keyring"
)

// habitual runs one command line against dbPath and returns its output.
func habitual(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	var app CLI
	parser, err := kong.New(&app, parserOptions()...)
	if err != nil {
		t.Fatalf("failed to build parser: %v", err)
	}
	kctx, err := parser.Parse(append([]string{"--db", dbPath, "--timezone", "UTC"}, args...))
	if err != nil {
		return "", err
	}
	cfg, err := app.config()
	if err != nil {
		t.Fatalf("failed to resolve config: %v", err)
	}
	out := &bytes.Buffer{}
	err = run(kctx, cfg, out)
	return out.String(), err
}

func TestWorkflow(t *testing.T) {
	gokeyring.MockInit()
	dbPath := filepath.Join(t.TempDir(), "habitual.db")

	steps := []struct {
		name string
		args []string
		want string
	}{
		{"init", []string{"init"}, "Initialized habitual storage at"},
		{"add", []string{"habit", "add", "Read", "-d", "20 pages"}, "Read"},
		{"toggle", []string{"habit", "toggle", "read", "--date", "2024-01-02"}, "Marked habit \"Read\" for 2024-01-02"},
		{"list", []string{"habit", "list"}, "Read"},
		{"stats", []string{"stats"}, "Read"},
		{"backup", []string{"backup", "create"}, "Backup created"},
		{"backup list", []string{"backup", "list"}, "1 total"},
		{"doctor", []string{"doctor"}, "Database reachable: OK"},
		{"untoggle", []string{"habit", "toggle", "Read", "--date", "2024-01-02"}, "Unmarked"},
		{"delete", []string{"habit", "delete", "Read", "-y"}, "Read"},
	}

	for _, step := range steps {
		out, err := habitual(t, dbPath, step.args...)
		if err != nil {
			t.Fatalf("%s: %v\n%s", step.name, err, out)
		}
		if !strings.Contains(out, step.want) {
			t.Fatalf("%s: expected %q in output:\n%s", step.name, step.want, out)
		}
	}

	out, err := habitual(t, dbPath, "habit", "list")
	if err != nil {
		t.Fatalf("final list: %v", err)
	}
	if strings.Contains(out, "Read") {
		t.Errorf("deleted habit still listed:\n%s", out)
	}
}

func TestUnknownHabitFails(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "habitual.db")
	if _, err := habitual(t, dbPath, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := habitual(t, dbPath, "habit", "toggle", "Nope"); err == nil {
		t.Error("expected an error for an unknown habit")
	}
}

func TestStatsPolicyIsValidated(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "habitual.db")
	if _, err := habitual(t, dbPath, "stats", "--policy", "weekly"); err == nil {
		t.Error("expected kong to reject an unknown policy")
	}
}
