// Package sink submits formatted notes to the SiYuan cloud inbox.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"solrem/internal/domain"
)

const (
	inboxPath      = "/apis/siyuan/inbox/addCloudShorthand"
	defaultTimeout = 15 * time.Second
)

type Config struct {
	APIBase string
	Token   string
	Logger  *slog.Logger
	Now     func() time.Time // overridable for tests
}

// Client implements domain.NoteSink against the SiYuan inbox API.
// Submissions are single attempts: a rejected note is reported to the
// user and manual resend is the recovery path.
type Client struct {
	apiBase string
	token   string
	client  *http.Client
	logger  *slog.Logger
	now     func() time.Time
}

func New(cfg Config) *Client {
	if cfg.APIBase == "" {
		cfg.APIBase = "https://liuyun.io"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Client{
		apiBase: strings.TrimRight(cfg.APIBase, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: defaultTimeout},
		logger:  cfg.Logger,
		now:     cfg.Now,
	}
}

type submission struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Submit posts one note. An empty title falls back to a timestamp
// title so the inbox entry stays identifiable.
func (c *Client) Submit(ctx context.Context, title, content string) error {
	if title == "" {
		title = "telegram " + c.now().Format("2006-01-02 15:04")
	}

	jsonBody, err := json.Marshal(submission{Title: title, Content: content})
	if err != nil {
		return fmt.Errorf("marshal note: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiBase+inboxPath, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "token "+strings.TrimSpace(c.token))

	c.logger.Debug("submitting note", "title_len", len(title), "content_len", len(content))

	resp, err := c.client.Do(req)
	if err != nil {
		return &domain.SinkError{Status: 0, Body: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &domain.SinkError{Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	c.logger.Info("note submitted", "title", title)
	return nil
}

// Healthy checks that the inbox API is reachable. Any HTTP response
// counts; only transport failures do not.
func (c *Client) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.apiBase+inboxPath, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("inbox API not reachable: %w", err)
	}
	resp.Body.Close()
	return nil
}
