package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Templates holds the user-facing reply texts. All of them can be
// overridden from a YAML pack next to the config file; empty fields
// fall back to the defaults.
type Templates struct {
	GeneralHelp          string `yaml:"generalHelp"`
	MissingContent       string `yaml:"missingContent"`
	SendFailed           string `yaml:"sendFailed"`
	SendSuccess          string `yaml:"sendSuccess"`
	SendSuccessWithTitle string `yaml:"sendSuccessWithTitle"`
	AccessDenied         string `yaml:"accessDenied"`
	HelpText             string `yaml:"helpText"`
}

func DefaultTemplates() *Templates {
	return &Templates{
		GeneralHelp:          "Hmm, check /help to see how I may assist you...",
		MissingContent:       "Please provide content to save after the /s command",
		SendFailed:           "❌ couldn't send to SiYuan",
		SendSuccess:          "✔️ sent",
		SendSuccessWithTitle: "✔️ sent as \"{title}\"",
		AccessDenied:         "⛔ Unauthorized. Your ID is not in the allow list.",
		HelpText: strings.TrimSpace(`
Available commands:
/help - Show this help message
/s [message] - Save a message to SiYuan
/a [message or URL] - Save as a formatted article
/stats - Get system statistics

Any plain message is saved to SiYuan as well; long messages and URLs
get an AI-generated title and summary when summarization is enabled.
`),
	}
}

// Success formats the success reply, substituting {title} when a
// summary headline is available.
func (t *Templates) Success(title string) string {
	if title == "" {
		return t.SendSuccess
	}
	return strings.ReplaceAll(t.SendSuccessWithTitle, "{title}", title)
}

// LoadTemplates reads a YAML template pack. A missing path (or empty
// string) yields the defaults; a present but unreadable file is an
// error so typos do not silently revert user wording.
func LoadTemplates(path string, logger *slog.Logger) (*Templates, error) {
	defaults := DefaultTemplates()
	if path == "" {
		return defaults, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("template pack not found, using defaults", "path", path)
			return defaults, nil
		}
		return nil, fmt.Errorf("read template pack: %w", err)
	}

	var tpl Templates
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("parse template pack %s: %w", path, err)
	}

	merge(&tpl.GeneralHelp, defaults.GeneralHelp)
	merge(&tpl.MissingContent, defaults.MissingContent)
	merge(&tpl.SendFailed, defaults.SendFailed)
	merge(&tpl.SendSuccess, defaults.SendSuccess)
	merge(&tpl.SendSuccessWithTitle, defaults.SendSuccessWithTitle)
	merge(&tpl.AccessDenied, defaults.AccessDenied)
	merge(&tpl.HelpText, defaults.HelpText)

	logger.Info("loaded reply templates", "path", path)
	return &tpl, nil
}

func merge(field *string, fallback string) {
	if strings.TrimSpace(*field) == "" {
		*field = fallback
	}
}

// SaveTemplates writes the pack (used by the init command to give the
// user an editable starting point).
func SaveTemplates(path string, tpl *Templates) error {
	data, err := yaml.Marshal(tpl)
	if err != nil {
		return fmt.Errorf("marshal templates: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
