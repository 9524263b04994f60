// Package extract fetches a web page and reduces it to plain text for
// summarization.
package extract

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"solrem/internal/domain"
)

const userAgentString = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// minStaticText is the point below which a static fetch is considered
// empty enough to hand the page to the browser fallback (JS-only sites
// render nothing server-side).
const minStaticText = 200

type Config struct {
	Timeout  time.Duration
	MaxBytes int64
	Browser  *Browser // optional render fallback
	Logger   *slog.Logger
}

// Fetcher implements domain.Extractor with a single bounded HTTP GET.
// No retries: a failed fetch surfaces immediately and the dispatcher
// degrades to a pass-through save.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
	browser  *Browser
	logger   *slog.Logger
}

func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 100 * 1024
	}
	return &Fetcher{
		client:   &http.Client{Timeout: cfg.Timeout},
		maxBytes: cfg.MaxBytes,
		browser:  cfg.Browser,
		logger:   cfg.Logger,
	}
}

func (f *Fetcher) Extract(ctx context.Context, rawURL string) (domain.Page, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return domain.Page{}, &domain.FetchError{URL: rawURL, Err: fmt.Errorf("invalid URL: %w", err)}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return domain.Page{}, &domain.FetchError{URL: rawURL, Err: fmt.Errorf("unsupported scheme: %s", parsed.Scheme)}
	}

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return domain.Page{}, &domain.FetchError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", userAgentString)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return domain.Page{}, &domain.FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Page{}, &domain.FetchError{URL: rawURL, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return domain.Page{}, &domain.FetchError{URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}

	page := domain.Page{
		Title: extractTitle(string(body)),
		Text:  stripMarkup(string(body)),
	}

	f.logger.Debug("page fetched",
		"status", resp.StatusCode,
		"bytes", len(body),
		"text_len", len(page.Text),
	)

	if len(page.Text) < minStaticText && f.browser != nil {
		rendered, rerr := f.browser.Render(ctx, rawURL)
		if rerr != nil {
			f.logger.Warn("browser fallback failed, keeping static text", "err", rerr)
			return page, nil
		}
		return rendered, nil
	}

	return page, nil
}

var (
	titlePattern = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	// Elements whose inner content is never visible text.
	invisiblePattern = regexp.MustCompile(`(?is)<(script|style|noscript|nav|header|footer)\b[^>]*>.*?</(?:script|style|noscript|nav|header|footer)>`)
)

func extractTitle(htmlSrc string) string {
	m := titlePattern.FindStringSubmatch(htmlSrc)
	if m == nil {
		return ""
	}
	return collapseWhitespace(html.UnescapeString(m[1]))
}

// stripMarkup removes script/style/nav content, then all remaining
// tags, and collapses whitespace line by line.
func stripMarkup(htmlSrc string) string {
	src := invisiblePattern.ReplaceAllString(htmlSrc, " ")

	var b strings.Builder
	inTag := false
	for _, r := range src {
		switch {
		case r == '<':
			inTag = true
			b.WriteRune(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}

	var lines []string
	for _, line := range strings.Split(html.UnescapeString(b.String()), "\n") {
		if line = collapseWhitespace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
