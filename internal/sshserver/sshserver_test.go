package sshserver

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/service"
	"github.com/julianstephens/habitual/internal/storage/jsonstore"
	"github.com/julianstephens/habitual/internal/tui"
)

func newBackend(t *testing.T) tui.Backend {
	t.Helper()
	store := jsonstore.NewStore(filepath.Join(t.TempDir(), "habits.json"))
	if err := store.Init(); err != nil {
		t.Fatalf("init store: %v", err)
	}
	return tui.NewLocalBackend(service.New(store, time.UTC))
}

func TestNewGeneratesHostKey(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "keys", "habitual_ed25519")

	if _, err := New("127.0.0.1:0", keyPath, newBackend(t)); err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := os.Stat(keyPath); err != nil {
		t.Errorf("expected host key at %s: %v", keyPath, err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "habitual_ed25519")
	srv, err := New("127.0.0.1:0", keyPath, newBackend(t))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, ready) }()

	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("Run exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("dial %s: %v", addr, err)
	}
	conn.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
