package store_test

import (
	"path/filepath"
	"testing"

	"github.com/cyberai/server/internal/models"
	"github.com/cyberai/server/internal/store"
)

func newSQLite(t *testing.T) *store.SQLite {
	t.Helper()

	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "cyberai.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	runStoreTests(t, newSQLite(t))
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cyberai.db")

	s, err := store.NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	conv, err := s.CreateConversation("persisted")
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}
	if _, err := s.CreateMessage(conv.ID, models.RoleUser, "hello"); err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := store.NewSQLite(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	msgs, err := reopened.GetMessagesByConversation(conv.ID)
	if err != nil {
		t.Fatalf("GetMessagesByConversation failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "hello" {
		t.Fatalf("expected persisted message, got %+v", msgs)
	}
}
