// Package dispatch consumes inbound messages from the bus and drives
// each one through guard, classification, enrichment and the note sink.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"solrem/internal/access"
	"solrem/internal/classify"
	"solrem/internal/config"
	"solrem/internal/domain"
	"solrem/internal/summarize"
)

const defaultMaxConcurrent = 5

// StatsProvider produces the system statistics text for /stats.
type StatsProvider interface {
	Collect(ctx context.Context) string
}

type Config struct {
	Bus        domain.MessageBus
	Guard      *access.Guard
	Extractor  domain.Extractor  // nil: URL saves degrade to pass-through
	Summarizer domain.Summarizer // nil: enrichment disabled
	Sink       domain.NoteSink
	Audit      domain.AuditLog
	Archive    domain.Archive // nil: no counters
	Stats      StatsProvider  // nil: /stats shows counters only
	Templates  *config.Templates
	Logger     *slog.Logger

	MaxConcurrent int
	Hostname      string
	Now           func() time.Time
}

type Dispatcher struct {
	bus        domain.MessageBus
	guard      *access.Guard
	extractor  domain.Extractor
	summarizer domain.Summarizer
	sink       domain.NoteSink
	audit      domain.AuditLog
	archive    domain.Archive
	stats      StatsProvider
	templates  *config.Templates
	logger     *slog.Logger

	sem      chan struct{}
	wg       sync.WaitGroup
	hostname string
	now      func() time.Time
}

func New(cfg Config) *Dispatcher {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Hostname == "" {
		cfg.Hostname, _ = os.Hostname()
	}
	if cfg.Templates == nil {
		cfg.Templates = config.DefaultTemplates()
	}
	return &Dispatcher{
		bus:        cfg.Bus,
		guard:      cfg.Guard,
		extractor:  cfg.Extractor,
		summarizer: cfg.Summarizer,
		sink:       cfg.Sink,
		audit:      cfg.Audit,
		archive:    cfg.Archive,
		stats:      cfg.Stats,
		templates:  cfg.Templates,
		logger:     cfg.Logger,
		sem:        make(chan struct{}, cfg.MaxConcurrent),
		hostname:   cfg.Hostname,
		now:        cfg.Now,
	}
}

// Run consumes the bus until ctx is cancelled or the bus closes, then
// waits for in-flight handlers to finish.
func (d *Dispatcher) Run(ctx context.Context) {
	inbox := d.bus.Subscribe()
	for {
		select {
		case <-ctx.Done():
			d.wg.Wait()
			return
		case msg, ok := <-inbox:
			if !ok {
				d.wg.Wait()
				return
			}
			d.sem <- struct{}{}
			d.wg.Add(1)
			go func(m domain.InboundMessage) {
				defer d.wg.Done()
				defer func() { <-d.sem }()
				d.Handle(ctx, m)
			}(msg)
		}
	}
}

// Handle runs the full pipeline for one message. Audit happens first,
// unconditionally: denied and failed messages leave a record too.
func (d *Dispatcher) Handle(ctx context.Context, msg domain.InboundMessage) {
	d.appendAudit(msg)

	if !d.guard.Permit(msg.SenderID, msg.ChatID) {
		d.logger.Warn("message denied",
			"sender_id", msg.SenderID,
			"chat_id", msg.ChatID,
		)
		d.reply(msg, d.templates.AccessDenied)
		d.record(ctx, msg, classify.Classify(msg.Content).String(), "denied", "")
		return
	}

	cmd, rest := splitCommand(msg.Content)
	switch cmd {
	case "":
		if strings.TrimSpace(msg.Content) == "" {
			d.reply(msg, d.templates.MissingContent)
			d.record(ctx, msg, classify.Empty.String(), "empty", "")
			return
		}
		d.save(ctx, msg, msg.Content, false)
	case "s":
		if rest == "" {
			d.reply(msg, d.templates.MissingContent)
			d.record(ctx, msg, classify.Empty.String(), "empty", "")
			return
		}
		d.save(ctx, msg, rest, false)
	case "a":
		if rest == "" {
			d.reply(msg, d.templates.MissingContent)
			d.record(ctx, msg, classify.Empty.String(), "empty", "")
			return
		}
		d.save(ctx, msg, rest, true)
	case "help", "start":
		d.reply(msg, d.templates.HelpText)
		d.record(ctx, msg, "command", "saved", "")
	case "stats":
		d.handleStats(ctx, msg)
	default:
		d.reply(msg, d.templates.GeneralHelp)
		d.record(ctx, msg, "command", "empty", "")
	}
}

// save enriches the text per its classification and submits the note.
// Enrichment failures degrade to an untitled pass-through save; only a
// sink failure is terminal.
func (d *Dispatcher) save(ctx context.Context, msg domain.InboundMessage, text string, article bool) {
	path := classify.Classify(text)
	archPath := path.String()
	if article {
		archPath = "article"
	}

	var title, summary, sourceURL string
	switch path {
	case classify.URL:
		title, summary, sourceURL = d.enrichURL(ctx, text, article)
	case classify.LongText:
		title, summary = d.enrichText(ctx, text, article)
	default:
		if article {
			title, summary = d.enrichText(ctx, text, article)
		}
	}

	body := note{
		Summary:   summary,
		SourceURL: sourceURL,
		Original:  text,
		Sender:    msg.DisplayName(),
		Hostname:  d.hostname,
		When:      d.now(),
	}.render()

	if err := d.sink.Submit(ctx, title, body); err != nil {
		d.logger.Error("note submission failed",
			"chat_id", msg.ChatID,
			"err", err,
		)
		d.reply(msg, d.templates.SendFailed)
		d.record(ctx, msg, archPath, "failed", title)
		return
	}

	d.logger.Info("note saved", "path", archPath, "title", title)
	d.reply(msg, d.templates.Success(title))
	d.record(ctx, msg, archPath, "saved", title)
}

// enrichURL extracts the first URL in the text and summarizes the page.
// On any failure the raw text is saved with the URL as source.
func (d *Dispatcher) enrichURL(ctx context.Context, text string, article bool) (title, summary, sourceURL string) {
	sourceURL = classify.FirstURL(text)

	if d.extractor == nil {
		return "", "", sourceURL
	}
	page, err := d.extractor.Extract(ctx, sourceURL)
	if err != nil {
		d.logger.Warn("extraction failed, saving raw text",
			"url", sourceURL,
			"err", err,
		)
		return "", "", sourceURL
	}
	if d.summarizer == nil {
		return "", "", sourceURL
	}

	sum, err := d.summarize(ctx, page.Text, true, article)
	if err != nil {
		d.logger.Warn("summarization failed, saving raw text", "err", err)
		return "", "", sourceURL
	}
	return summarize.Title(sum.Headline, d.now()), sum.Body, sourceURL
}

func (d *Dispatcher) enrichText(ctx context.Context, text string, article bool) (title, summary string) {
	if d.summarizer == nil {
		return "", ""
	}
	sum, err := d.summarize(ctx, text, false, article)
	if err != nil {
		d.logger.Warn("summarization failed, saving raw text", "err", err)
		return "", ""
	}
	return summarize.Title(sum.Headline, d.now()), sum.Body
}

func (d *Dispatcher) summarize(ctx context.Context, text string, scraped, article bool) (domain.Summary, error) {
	if article {
		return d.summarizer.Article(ctx, text, scraped)
	}
	return d.summarizer.Summarize(ctx, text, scraped)
}

func (d *Dispatcher) handleStats(ctx context.Context, msg domain.InboundMessage) {
	var parts []string
	if d.stats != nil {
		if out := d.stats.Collect(ctx); out != "" {
			parts = append(parts, out)
		}
	}
	if d.archive != nil {
		c, err := d.archive.Counts(ctx)
		if err != nil {
			d.logger.Error("archive counts failed", "err", err)
		} else {
			parts = append(parts, fmt.Sprintf("Messages: %d total, %d saved, %d failed, %d denied",
				c.Total, c.Saved, c.Failed, c.Denied))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "no statistics available")
	}

	d.bus.SendOutbound(domain.OutboundMessage{
		Channel: msg.Channel,
		ChatID:  msg.ChatID,
		Content: "```\n" + strings.Join(parts, "\n\n") + "\n```",
		Format:  "markdown",
	})
	d.record(ctx, msg, "command", "saved", "")
}

func (d *Dispatcher) appendAudit(msg domain.InboundMessage) {
	rec := domain.AuditRecord{
		Timestamp: msg.Timestamp,
		UserID:    msg.SenderID,
		Username:  msg.Username,
		FirstName: msg.FirstName,
		LastName:  msg.LastName,
		ChatID:    msg.ChatID,
		MessageID: msg.MessageID,
		Text:      msg.Content,
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = d.now()
	}
	if err := d.audit.Append(rec); err != nil {
		d.logger.Error("audit append failed", "err", err)
	}
}

func (d *Dispatcher) record(ctx context.Context, msg domain.InboundMessage, path, outcome, title string) {
	if d.archive == nil {
		return
	}
	err := d.archive.Record(ctx, domain.ArchiveEntry{
		UserID:    msg.SenderID,
		Username:  msg.Username,
		ChatID:    msg.ChatID,
		MessageID: msg.MessageID,
		Path:      path,
		Outcome:   outcome,
		Title:     title,
		CreatedAt: d.now(),
	})
	if err != nil {
		d.logger.Error("archive record failed", "err", err)
	}
}

func (d *Dispatcher) reply(msg domain.InboundMessage, text string) {
	d.bus.SendOutbound(domain.OutboundMessage{
		Channel: msg.Channel,
		ChatID:  msg.ChatID,
		Content: text,
		Format:  "text",
	})
}

// splitCommand separates a leading "/cmd" or "/cmd@bot" token from the
// rest of the text. Returns "" for the command when there is none.
func splitCommand(text string) (cmd, rest string) {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "/") {
		return "", t
	}
	token := t
	if i := strings.IndexAny(t, " \t\n"); i >= 0 {
		token = t[:i]
		rest = strings.TrimSpace(t[i:])
	}
	name := strings.TrimPrefix(token, "/")
	if i := strings.Index(name, "@"); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name), rest
}
