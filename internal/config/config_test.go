package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Minimal(t *testing.T) {
	path := writeConfig(t, `{
		"telegram": {"token": "123:abc", "allowedUsers": [111], "allowedChats": ["222"]},
		"note": {"token": "siyuan-tok"}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("token = %q", cfg.Telegram.Token)
	}
	// Defaults survive partial configs.
	if cfg.Summarizer.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", cfg.Summarizer.Model)
	}
	if cfg.General.MaxConcurrentMessages != 5 {
		t.Errorf("maxConcurrentMessages = %d", cfg.General.MaxConcurrentMessages)
	}
}

func TestLoad_MissingTokensFatal(t *testing.T) {
	path := writeConfig(t, `{"telegram": {"token": ""}, "note": {"token": ""}}`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T: %v", err, err)
	}
	if len(cfgErr.Problems) < 2 {
		t.Errorf("expected both token problems, got %v", cfgErr.Problems)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("SOLREM_TEST_TOKEN", "secret")

	out := ExpandEnvVars(`{"token": "${SOLREM_TEST_TOKEN}", "model": "${SOLREM_UNSET:-gpt-4o-mini}"}`)
	if !strings.Contains(out, `"secret"`) {
		t.Errorf("env var not expanded: %s", out)
	}
	if !strings.Contains(out, `"gpt-4o-mini"`) {
		t.Errorf("default not applied: %s", out)
	}
}

func TestFlexStringList_MixedTypes(t *testing.T) {
	path := writeConfig(t, `{
		"telegram": {"token": "t", "allowedUsers": [123, "456"]},
		"note": {"token": "n"}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ids := cfg.Telegram.AllowedUsers.Int64s()
	if len(ids) != 2 || ids[0] != 123 || ids[1] != 456 {
		t.Errorf("Int64s = %v", ids)
	}
}

func TestLoadTemplates_Defaults(t *testing.T) {
	tpl, err := LoadTemplates("", testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if tpl.SendSuccess == "" || tpl.HelpText == "" {
		t.Error("defaults must be populated")
	}
}

func TestLoadTemplates_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.yaml")
	if err := os.WriteFile(path, []byte("sendSuccess: saved!\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tpl, err := LoadTemplates(path, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if tpl.SendSuccess != "saved!" {
		t.Errorf("override lost: %q", tpl.SendSuccess)
	}
	if tpl.SendFailed != DefaultTemplates().SendFailed {
		t.Errorf("default not merged: %q", tpl.SendFailed)
	}
}

func TestTemplates_Success(t *testing.T) {
	tpl := DefaultTemplates()
	if got := tpl.Success(""); got != tpl.SendSuccess {
		t.Errorf("untitled success = %q", got)
	}
	if got := tpl.Success("My Note"); !strings.Contains(got, "My Note") {
		t.Errorf("titled success = %q", got)
	}
}
