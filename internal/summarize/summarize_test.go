package summarize

import (
	"context"
	"encoding/json"
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

// fakeCompletionServer returns the given {h,s} payload the way the chat
// completions endpoint would.
func fakeCompletionServer(t *testing.T, h, s string, capture *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		if capture != nil {
			if err := json.NewDecoder(r.Body).Decode(capture); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		content, _ := json.Marshal(map[string]string{"h": h, "s": s})
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": string(content)}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestClient(apiBase string) *Client {
	return New(Config{
		APIKey:  "test-key",
		APIBase: apiBase,
		Model:   "gpt-4o-mini",
		Logger:  testLogger(),
	})
}

func TestSummarize(t *testing.T) {
	var captured chatRequest
	srv := fakeCompletionServer(t, "Lorem Notes", "A block of lorem ipsum text.", &captured)
	defer srv.Close()

	sum, err := newTestClient(srv.URL).Summarize(context.Background(), "lorem ipsum dolor sit amet", false)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.Headline != "Lorem Notes" {
		t.Errorf("headline = %q", sum.Headline)
	}
	if captured.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", captured.Model)
	}
	if captured.ResponseFormat.Type != "json_object" {
		t.Errorf("response_format = %q", captured.ResponseFormat.Type)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Errorf("unexpected messages: %+v", captured.Messages)
	}
}

func TestSummarize_ScrapedHint(t *testing.T) {
	var captured chatRequest
	srv := fakeCompletionServer(t, "h", "s", &captured)
	defer srv.Close()

	if _, err := newTestClient(srv.URL).Summarize(context.Background(), "page text", true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(captured.Messages[1].Content, "scraped HTML page") {
		t.Error("scraped hint missing from user prompt")
	}
}

func TestSummarize_TruncatesInput(t *testing.T) {
	var captured chatRequest
	srv := fakeCompletionServer(t, "h", "s", &captured)
	defer srv.Close()

	c := New(Config{APIKey: "test-key", APIBase: srv.URL, MaxContentChars: 300, Logger: testLogger()})
	if _, err := c.Summarize(context.Background(), strings.Repeat("x", 5000), false); err != nil {
		t.Fatal(err)
	}
	if len(captured.Messages[1].Content) > 600 {
		t.Errorf("input not truncated: %d chars", len(captured.Messages[1].Content))
	}
	if !strings.Contains(captured.Messages[1].Content, "...") {
		t.Error("truncation marker missing")
	}
}

func TestSummarize_APIErrorIsSummarizerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Summarize(context.Background(), "text", false)
	var se *domain.SummarizerError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SummarizerError, got %T: %v", err, err)
	}
}

func TestSummarize_MalformedPayloadIsSummarizerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "not json at all"}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Summarize(context.Background(), "text", false)
	var se *domain.SummarizerError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SummarizerError, got %T: %v", err, err)
	}
}

func TestArticle_UsesArticlePrompt(t *testing.T) {
	var captured chatRequest
	srv := fakeCompletionServer(t, "h", "s", &captured)
	defer srv.Close()

	if _, err := newTestClient(srv.URL).Article(context.Background(), "raw notes", false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(captured.Messages[0].Content, "article") {
		t.Errorf("system prompt = %q", captured.Messages[0].Content)
	}
	if !strings.Contains(captured.Messages[1].Content, "max 300 words") {
		t.Errorf("user prompt = %q", captured.Messages[1].Content)
	}
}

func TestTitle(t *testing.T) {
	at := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	if got := Title("Quarterly Report", at); got != "2024-01-15 Quarterly Report" {
		t.Errorf("Title = %q", got)
	}
}
