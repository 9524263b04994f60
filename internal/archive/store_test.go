package archive

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"solrem/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "archive.db"), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndCounts(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	entries := []domain.ArchiveEntry{
		{UserID: 1, ChatID: 2, MessageID: 10, Path: "short", Outcome: "saved"},
		{UserID: 1, ChatID: 2, MessageID: 11, Path: "long", Outcome: "saved", Title: "2024-01-15 Notes"},
		{UserID: 1, ChatID: 2, MessageID: 12, Path: "url", Outcome: "failed"},
		{UserID: 9, ChatID: 9, MessageID: 13, Path: "short", Outcome: "denied"},
	}
	for _, e := range entries {
		if err := s.Record(ctx, e); err != nil {
			t.Fatalf("Record(%+v): %v", e, err)
		}
	}

	c, err := s.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if c.Total != 4 || c.Saved != 2 || c.Failed != 1 || c.Denied != 1 {
		t.Errorf("counts = %+v", c)
	}
}

func TestCounts_EmptyStore(t *testing.T) {
	s := testStore(t)

	c, err := s.Counts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if c.Total != 0 || c.Saved != 0 {
		t.Errorf("counts on empty store = %+v", c)
	}
}
