package audit

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"solrem/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestAppend_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.log")
	l, err := New(path, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	rec := domain.AuditRecord{
		Timestamp: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
		UserID:    111,
		Username:  "alice",
		FirstName: "Alice",
		LastName:  "Liddell",
		ChatID:    222,
		MessageID: 42,
		Text:      "check this https://example.com/page out",
	}
	if err := l.Append(rec); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got domain.AuditRecord
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("log line is not valid JSON: %v", err)
	}
	if got != rec {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, rec)
	}
}

func TestAppend_FieldNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.log")
	l, err := New(path, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	if err := l.Append(domain.AuditRecord{UserID: 1}); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{"timestamp", "user_id", "username", "first_name", "last_name", "chat_id", "message_id", "text"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("missing field %q in %v", field, raw)
		}
	}
	if len(raw) != 8 {
		t.Errorf("expected exactly 8 fields, got %d: %v", len(raw), raw)
	}
}

func TestAppend_ConcurrentWritesStayLineAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.log")
	l, err := New(path, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Append(domain.AuditRecord{UserID: int64(i), Text: "concurrent append"})
		}(i)
	}
	wg.Wait()

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec domain.AuditRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("interleaved line: %q", scanner.Text())
		}
		lines++
	}
	if lines != n {
		t.Errorf("expected %d lines, got %d", n, lines)
	}
}

func TestAppend_AppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.log")

	for i := 0; i < 2; i++ {
		l, err := New(path, testLogger())
		if err != nil {
			t.Fatal(err)
		}
		if err := l.Append(domain.AuditRecord{MessageID: i}); err != nil {
			t.Fatal(err)
		}
		l.Close()
	}

	data, _ := os.ReadFile(path)
	f, _ := os.Open(path)
	defer f.Close()
	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines++
	}
	if lines != 2 {
		t.Errorf("expected 2 lines after reopen, got %d (%q)", lines, data)
	}
}
