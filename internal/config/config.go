package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Config is the root configuration for the relay service.
type Config struct {
	General    GeneralConfig    `json:"general"`
	Telegram   TelegramConfig   `json:"telegram"`
	Note       NoteConfig       `json:"note"`
	Summarizer SummarizerConfig `json:"summarizer"`
	Extractor  ExtractorConfig  `json:"extractor"`
	Audit      AuditConfig      `json:"audit"`
	Archive    ArchiveConfig    `json:"archive"`
	Stats      StatsConfig      `json:"stats"`
}

type GeneralConfig struct {
	Debug                 bool   `json:"debug"`
	MaxConcurrentMessages int    `json:"maxConcurrentMessages"`
	TemplatesPath         string `json:"templatesPath,omitempty"` // optional YAML reply-template pack
}

type TelegramConfig struct {
	Token        string         `json:"token"`
	AllowedUsers FlexStringList `json:"allowedUsers"`
	AllowedChats FlexStringList `json:"allowedChats"`
	ParseMode    string         `json:"parseMode"`
}

// NoteConfig points at the SiYuan inbox API.
type NoteConfig struct {
	APIBase string `json:"apiBase"`
	Token   string `json:"token"`
}

// SummarizerConfig configures the completion API. An empty APIKey
// disables summarization; long and URL messages then degrade to
// pass-through saves.
type SummarizerConfig struct {
	APIKey          string `json:"apiKey,omitempty"`
	APIBase         string `json:"apiBase"`
	Model           string `json:"model"`
	MaxContentChars int    `json:"maxContentChars"`
}

type ExtractorConfig struct {
	TimeoutSeconds  int    `json:"timeoutSeconds"`
	MaxFetchBytes   int64  `json:"maxFetchBytes"`
	BrowserFallback bool   `json:"browserFallback"` // render JS-only pages in headless Chrome
	ProfileDir      string `json:"profileDir,omitempty"`
}

type AuditConfig struct {
	Path string `json:"path"`
}

type ArchiveConfig struct {
	Enabled bool   `json:"enabled"`
	DBPath  string `json:"dbPath"`
}

// StatsConfig configures the /stats command. When FastfetchConfig is
// set and fastfetch is installed, its output is used; otherwise the
// built-in collector runs.
type StatsConfig struct {
	FastfetchConfig string `json:"fastfetchConfig,omitempty"`
}

// FlexStringList is a []string that can unmarshal from JSON arrays
// containing both strings and numbers (e.g. ["123", 456] both become
// "123", "456"). Telegram IDs show up both ways in hand-edited configs.
type FlexStringList []string

func (f *FlexStringList) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make([]string, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			result = append(result, s)
			continue
		}
		var n float64
		if err := json.Unmarshal(item, &n); err == nil {
			result = append(result, strconv.FormatInt(int64(n), 10))
			continue
		}
		result = append(result, string(item))
	}
	*f = result
	return nil
}

// Int64s parses the list into numeric IDs, skipping malformed entries.
func (f FlexStringList) Int64s() []int64 {
	var out []int64
	for _, s := range f {
		if id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			out = append(out, id)
		}
	}
	return out
}

// ConfigError reports an invalid or incomplete configuration. It is
// fatal: the process must not start with one of these.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config validation errors:\n  - %s", strings.Join(e.Problems, "\n  - "))
}

// DefaultConfigDir returns the default config directory (~/.solrem).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".solrem"
	}
	return filepath.Join(home, ".solrem")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.Audit.Path = ExpandPath(cfg.Audit.Path)
	cfg.Archive.DBPath = ExpandPath(cfg.Archive.DBPath)
	cfg.Extractor.ProfileDir = ExpandPath(cfg.Extractor.ProfileDir)
	cfg.General.TemplatesPath = ExpandPath(cfg.General.TemplatesPath)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is
// unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values. Missing required
// tokens are fatal; the summarizer key is the one optional credential.
func Validate(cfg *Config) error {
	var errs []string

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		errs = append(errs, "telegram.token is required")
	}
	if strings.TrimSpace(cfg.Note.Token) == "" {
		errs = append(errs, "note.token is required")
	}
	if cfg.General.MaxConcurrentMessages < 1 || cfg.General.MaxConcurrentMessages > 100 {
		errs = append(errs, "general.maxConcurrentMessages must be between 1 and 100")
	}
	if cfg.Extractor.TimeoutSeconds < 1 {
		errs = append(errs, "extractor.timeoutSeconds must be >= 1")
	}
	if cfg.Extractor.MaxFetchBytes < 1024 {
		errs = append(errs, "extractor.maxFetchBytes must be >= 1024")
	}
	if cfg.Summarizer.MaxContentChars < 256 {
		errs = append(errs, "summarizer.maxContentChars must be >= 256")
	}
	if strings.TrimSpace(cfg.Audit.Path) == "" {
		errs = append(errs, "audit.path is required")
	}
	if cfg.Archive.Enabled && strings.TrimSpace(cfg.Archive.DBPath) == "" {
		errs = append(errs, "archive.dbPath is required when archive is enabled")
	}

	if len(errs) > 0 {
		return &ConfigError{Problems: errs}
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
