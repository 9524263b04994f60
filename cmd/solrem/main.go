package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"solrem/internal/access"
	"solrem/internal/archive"
	"solrem/internal/audit"
	"solrem/internal/bus"
	"solrem/internal/channel"
	"solrem/internal/config"
	"solrem/internal/dispatch"
	"solrem/internal/extract"
	"solrem/internal/sink"
	"solrem/internal/stats"
	"solrem/internal/summarize"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	// .env next to the working directory, if present. Real environment
	// variables win.
	_ = godotenv.Load()

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "solrem",
		Short: "solrem: Telegram to SiYuan message relay",
		Long:  "solrem receives Telegram messages, optionally summarizes them, and files them into a SiYuan note inbox.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.solrem/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(runCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(versionCmd())
	root.AddCommand(installDaemonCmd())
	root.AddCommand(uninstallDaemonCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config and reply template pack",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir := config.DefaultConfigDir()
			cfgPath := resolveConfigPath()
			if err := os.MkdirAll(cfgDir, 0o755); err != nil {
				return err
			}

			cfg := config.Defaults()
			cfg.General.TemplatesPath = filepath.Join(cfgDir, "templates.yaml")
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			if err := config.SaveTemplates(cfg.General.TemplatesPath, config.DefaultTemplates()); err != nil {
				return err
			}

			logger.Info("initialized",
				"config", cfgPath,
				"templates", cfg.General.TemplatesPath,
			)
			logger.Info("edit the config to add telegram.token and note.token, then run: solrem run")
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the relay service",
		Long:  "Connects to Telegram and relays messages to the SiYuan inbox. Press Ctrl+C to stop.",
		RunE:  runService,
	}
}

func runService(cmd *cobra.Command, args []string) error {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := slog.LevelInfo
	if cfg.General.Debug {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	messageBus := bus.New(100, logger)

	auditLog, err := audit.New(cfg.Audit.Path, logger)
	if err != nil {
		return fmt.Errorf("audit log: %w", err)
	}
	defer auditLog.Close()

	var archiveStore *archive.Store
	if cfg.Archive.Enabled {
		archiveStore, err = archive.NewStore(cfg.Archive.DBPath, logger)
		if err != nil {
			return fmt.Errorf("archive store: %w", err)
		}
		defer archiveStore.Close()
	} else {
		logger.Info("archive disabled")
	}

	var browser *extract.Browser
	if cfg.Extractor.BrowserFallback {
		browser = extract.NewBrowser(extract.BrowserConfig{
			ProfileDir: cfg.Extractor.ProfileDir,
			Logger:     logger,
		})
		logger.Info("browser render fallback enabled")
	}
	extractor := extract.New(extract.Config{
		Timeout:  time.Duration(cfg.Extractor.TimeoutSeconds) * time.Second,
		MaxBytes: cfg.Extractor.MaxFetchBytes,
		Browser:  browser,
		Logger:   logger,
	})

	var summarizer *summarize.Client
	if cfg.Summarizer.APIKey != "" {
		summarizer = summarize.New(summarize.Config{
			APIKey:          cfg.Summarizer.APIKey,
			APIBase:         cfg.Summarizer.APIBase,
			Model:           cfg.Summarizer.Model,
			MaxContentChars: cfg.Summarizer.MaxContentChars,
			Logger:          logger,
		})
		logger.Info("summarizer enabled", "model", cfg.Summarizer.Model)
	} else {
		logger.Info("summarizer disabled, messages are saved as-is")
	}

	noteSink := sink.New(sink.Config{
		APIBase: cfg.Note.APIBase,
		Token:   cfg.Note.Token,
		Logger:  logger,
	})

	templates, err := config.LoadTemplates(cfg.General.TemplatesPath, logger)
	if err != nil {
		return fmt.Errorf("reply templates: %w", err)
	}

	guard := access.NewGuard(
		cfg.Telegram.AllowedUsers.Int64s(),
		cfg.Telegram.AllowedChats.Int64s(),
		logger,
	)

	dispatcherCfg := dispatch.Config{
		Bus:           messageBus,
		Guard:         guard,
		Extractor:     extractor,
		Sink:          noteSink,
		Audit:         auditLog,
		Stats:         stats.NewCollector(cfg.Stats.FastfetchConfig, logger),
		Templates:     templates,
		Logger:        logger,
		MaxConcurrent: cfg.General.MaxConcurrentMessages,
	}
	// Leave the interface fields nil when the feature is off; a typed
	// nil pointer would not compare equal to nil.
	if summarizer != nil {
		dispatcherCfg.Summarizer = summarizer
	}
	if archiveStore != nil {
		dispatcherCfg.Archive = archiveStore
	}
	dispatcher := dispatch.New(dispatcherCfg)

	go dispatcher.Run(ctx)

	telegramCh := channel.NewTelegram(channel.TelegramConfig{
		Token:     cfg.Telegram.Token,
		ParseMode: cfg.Telegram.ParseMode,
		Logger:    logger,
	})
	go func() {
		if err := telegramCh.Start(ctx, messageBus); err != nil {
			logger.Error("telegram channel error", "err", err)
			stop()
		}
	}()

	logger.Info("relay started. Press Ctrl+C to stop.")

	<-ctx.Done()
	logger.Info("shutting down...")

	const shutdownTimeout = 10 * time.Second
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		messageBus.Close()
	}()

	select {
	case <-done:
		logger.Info("shutdown complete")
		return nil
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timed out, forcing exit")
		return fmt.Errorf("shutdown timed out")
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check config, note sink, and summarizer health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				logger.Error("config", "path", cfgPath, "loaded", false, "err", err)
				return err
			}
			logger.Info("config", "path", cfgPath, "loaded", true)

			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			noteSink := sink.New(sink.Config{
				APIBase: cfg.Note.APIBase,
				Token:   cfg.Note.Token,
				Logger:  logger,
			})
			if err := noteSink.Healthy(ctx); err != nil {
				logger.Warn("note sink", "base", cfg.Note.APIBase, "healthy", false, "err", err)
			} else {
				logger.Info("note sink", "base", cfg.Note.APIBase, "healthy", true)
			}

			logger.Info("summarizer",
				"enabled", cfg.Summarizer.APIKey != "",
				"model", cfg.Summarizer.Model,
			)

			if cfg.Archive.Enabled {
				store, err := archive.NewStore(cfg.Archive.DBPath, logger)
				if err != nil {
					logger.Warn("archive", "healthy", false, "err", err)
					return nil
				}
				defer store.Close()
				if c, err := store.Counts(ctx); err == nil {
					logger.Info("archive",
						"total", c.Total,
						"saved", c.Saved,
						"failed", c.Failed,
						"denied", c.Denied,
					)
				}
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("solrem", version)
		},
	}
}
