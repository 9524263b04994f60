package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			Debug:                 false,
			MaxConcurrentMessages: 5,
		},
		Telegram: TelegramConfig{
			ParseMode: "Markdown",
		},
		Note: NoteConfig{
			APIBase: "https://liuyun.io",
		},
		Summarizer: SummarizerConfig{
			APIBase:         "https://api.openai.com/v1",
			Model:           "gpt-4o-mini",
			MaxContentChars: 2048,
		},
		Extractor: ExtractorConfig{
			TimeoutSeconds:  10,
			MaxFetchBytes:   100 * 1024,
			BrowserFallback: false,
		},
		Audit: AuditConfig{
			Path: "~/.solrem/messages.log",
		},
		Archive: ArchiveConfig{
			Enabled: true,
			DBPath:  "~/.solrem/archive.db",
		},
	}
}
