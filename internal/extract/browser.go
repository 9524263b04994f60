package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"solrem/internal/domain"
)

const renderTimeout = 30 * time.Second

// Browser renders JS-only pages in headless Chrome and reads the
// visible text out of the DOM. Used as a fallback when the static
// fetch yields no usable content.
type Browser struct {
	profileDir string
	logger     *slog.Logger
}

type BrowserConfig struct {
	ProfileDir string // Chrome user data directory
	Logger     *slog.Logger
}

func NewBrowser(cfg BrowserConfig) *Browser {
	if cfg.ProfileDir == "" {
		home, _ := os.UserHomeDir()
		cfg.ProfileDir = filepath.Join(home, ".solrem", "chrome-profile")
	}
	return &Browser{
		profileDir: cfg.ProfileDir,
		logger:     cfg.Logger,
	}
}

// Render navigates to the URL headlessly and returns document.title
// plus body.innerText.
func (b *Browser) Render(ctx context.Context, url string) (domain.Page, error) {
	if err := os.MkdirAll(b.profileDir, 0o755); err != nil {
		return domain.Page{}, fmt.Errorf("create profile dir: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Headless,
		chromedp.UserDataDir(b.profileDir),
		chromedp.UserAgent(userAgentString),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	taskCtx, timeoutCancel := context.WithTimeout(taskCtx, renderTimeout)
	defer timeoutCancel()

	var title, text string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(1*time.Second),
		chromedp.Title(&title),
		chromedp.Evaluate(`document.body ? document.body.innerText : ''`, &text),
	)
	if err != nil {
		return domain.Page{}, fmt.Errorf("render %s: %w", url, err)
	}

	b.logger.Debug("page rendered in browser", "title_len", len(title), "text_len", len(text))

	return domain.Page{
		Title: collapseWhitespace(title),
		Text:  text,
	}, nil
}
