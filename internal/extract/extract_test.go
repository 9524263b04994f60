package extract

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"solrem/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func testFetcher() *Fetcher {
	return New(Config{Timeout: 5 * time.Second, Logger: testLogger()})
}

func TestExtract_StripsMarkup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>
			<head>
				<title>Example &amp; Page</title>
				<style>body { color: red; }</style>
				<script>console.log("hidden");</script>
			</head>
			<body>
				<nav>menu items</nav>
				<h1>Heading</h1>
				<p>Visible   paragraph
				text.</p>
				<footer>fine print</footer>
			</body>
		</html>`))
	}))
	defer srv.Close()

	page, err := testFetcher().Extract(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if page.Title != "Example & Page" {
		t.Errorf("title = %q", page.Title)
	}
	for _, hidden := range []string{"console.log", "color: red", "menu items", "fine print", "<p>"} {
		if strings.Contains(page.Text, hidden) {
			t.Errorf("text contains hidden content %q:\n%s", hidden, page.Text)
		}
	}
	if !strings.Contains(page.Text, "Heading") {
		t.Errorf("text missing heading:\n%s", page.Text)
	}
	if !strings.Contains(page.Text, "Visible paragraph") {
		t.Errorf("whitespace not collapsed:\n%s", page.Text)
	}
}

func TestExtract_Non2xxIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testFetcher().Extract(context.Background(), srv.URL)
	var fe *domain.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T: %v", err, err)
	}
	if fe.URL != srv.URL {
		t.Errorf("FetchError.URL = %q", fe.URL)
	}
}

func TestExtract_NetworkFailureIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	_, err := testFetcher().Extract(context.Background(), srv.URL)
	var fe *domain.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T: %v", err, err)
	}
}

func TestExtract_RejectsNonHTTPScheme(t *testing.T) {
	_, err := testFetcher().Extract(context.Background(), "ftp://example.com/file")
	var fe *domain.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T: %v", err, err)
	}
}

func TestExtract_BodyCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<body>" + strings.Repeat("data ", 10000) + "</body>"))
	}))
	defer srv.Close()

	f := New(Config{Timeout: 5 * time.Second, MaxBytes: 2048, Logger: testLogger()})
	page, err := f.Extract(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(page.Text) > 2048 {
		t.Errorf("text exceeds byte cap: %d", len(page.Text))
	}
}
