// Package summarize calls an OpenAI-compatible chat completion API to
// produce short titles and summaries for saved notes.
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"solrem/internal/domain"
)

const defaultTimeout = 60 * time.Second

const summarySystemPrompt = "You are a summarization assistant. Create concise summaries that instantly reveal the relevant context when read."

const articleSystemPrompt = "You are a personal assistant tasked with writing down given information into a concise article optimised for human readability and well formatted. You can use markdown syntax, emojis and bulletpoints for lists."

type Config struct {
	APIKey          string
	APIBase         string
	Model           string
	MaxContentChars int
	Logger          *slog.Logger
}

// Client implements domain.Summarizer against the chat completions
// endpoint. The completion is requested as a JSON object with "h"
// (headline) and "s" (summary/article body) keys.
type Client struct {
	apiKey   string
	apiBase  string
	model    string
	maxChars int
	client   *http.Client
	logger   *slog.Logger
}

func New(cfg Config) *Client {
	if cfg.APIBase == "" {
		cfg.APIBase = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxContentChars <= 0 {
		cfg.MaxContentChars = 2048
	}
	return &Client{
		apiKey:   cfg.APIKey,
		apiBase:  cfg.APIBase,
		model:    cfg.Model,
		maxChars: cfg.MaxContentChars,
		client:   &http.Client{Timeout: defaultTimeout},
		logger:   cfg.Logger,
	}
}

// Summarize produces a 2-5 word headline plus a 1-3 sentence summary.
// scraped marks text that came out of the web extractor, which gets an
// extra hint in the prompt.
func (c *Client) Summarize(ctx context.Context, text string, scraped bool) (domain.Summary, error) {
	user := `Return in JSON like: {"h": "headline, max 2 to 5 words", "s": "summary telling what the given input is about, 1-3 sentences long"}`
	if scraped {
		user += "\n\nThis is output from a scraped HTML page, try your best to tell what the content is about."
	}
	user += "\n\nContent: " + c.truncate(text)
	return c.complete(ctx, summarySystemPrompt, user)
}

// Article produces a headline plus a formatted markdown article of at
// most 300 words. Used by the /a command.
func (c *Client) Article(ctx context.Context, text string, scraped bool) (domain.Summary, error) {
	user := `Return in JSON like: {"h": "headline, max 2 to 5 words which let the user at first glance understand what this article is about", "s": "article, max 300 words"}`
	if scraped {
		user += "\n\nThis is output from a scraped HTML page, transform it into a well-structured article."
	}
	user += "\n\nContent: " + c.truncate(text)
	return c.complete(ctx, articleSystemPrompt, user)
}

// Title formats the note title for a summary produced at time t.
func Title(headline string, t time.Time) string {
	return t.Format("2006-01-02") + " " + headline
}

func (c *Client) truncate(text string) string {
	if len(text) <= c.maxChars {
		return text
	}
	c.logger.Debug("truncating summarizer input", "from", len(text), "to", c.maxChars)
	return text[:c.maxChars-3] + "..."
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

// summaryPayload is the JSON object the model is instructed to return.
type summaryPayload struct {
	H string `json:"h"`
	S string `json:"s"`
}

func (c *Client) complete(ctx context.Context, system, user string) (domain.Summary, error) {
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return domain.Summary{}, &domain.SummarizerError{Err: fmt.Errorf("marshal: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiBase+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return domain.Summary{}, &domain.SummarizerError{Err: fmt.Errorf("new request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Summary{}, &domain.SummarizerError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return domain.Summary{}, &domain.SummarizerError{
			Err: fmt.Errorf("completion API %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return domain.Summary{}, &domain.SummarizerError{Err: fmt.Errorf("decode: %w", err)}
	}
	if len(chatResp.Choices) == 0 {
		return domain.Summary{}, &domain.SummarizerError{Err: fmt.Errorf("no choices in response")}
	}

	var payload summaryPayload
	if err := json.Unmarshal([]byte(chatResp.Choices[0].Message.Content), &payload); err != nil {
		return domain.Summary{}, &domain.SummarizerError{Err: fmt.Errorf("malformed summary payload: %w", err)}
	}
	if payload.H == "" {
		return domain.Summary{}, &domain.SummarizerError{Err: fmt.Errorf("summary payload missing headline")}
	}

	c.logger.Debug("summary generated", "headline", payload.H)

	return domain.Summary{Headline: payload.H, Body: payload.S}, nil
}
