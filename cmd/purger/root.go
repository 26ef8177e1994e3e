package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/imedwei/wings-backup-purger/internal/backup"
	"github.com/imedwei/wings-backup-purger/internal/config"
	"github.com/imedwei/wings-backup-purger/internal/database"
	"github.com/imedwei/wings-backup-purger/internal/metrics"
	"github.com/imedwei/wings-backup-purger/internal/prompt"
	"github.com/imedwei/wings-backup-purger/internal/report"
	"github.com/imedwei/wings-backup-purger/internal/server"
	"github.com/imedwei/wings-backup-purger/internal/storage"
)

var errNotRoot = errors.New("this tool must be run as root")

type options struct {
	directory       string
	panelEnv        string
	storage         string
	verifyHash      bool
	nonInteractive  bool
	allowNonRoot    bool
	minAge          time.Duration
	metricsPort     int
	metricsTextfile string
	report          bool
	logFormat       string
	logLevel        string
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "wings-backup-purger",
		Short: "Delete Wings backups the panel no longer considers valid",
		Long: `wings-backup-purger compares the backup archives kept by Pterodactyl Wings
with the backups table of the panel database and deletes archives that are
orphaned, belong to a failed backup, or (with --verify-hash) no longer match
their recorded SHA-1 checksum.

Database credentials are read from the environment, then from the panel .env
file, and are prompted for when still missing.`,
		Version:       backup.Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	bindFlags(cmd.Flags(), opts)

	return cmd
}

func bindFlags(flags *pflag.FlagSet, opts *options) {
	flags.StringVar(&opts.directory, "directory", config.DefaultBackupDirectory, "backup directory")
	flags.StringVar(&opts.panelEnv, "panel-env", config.DefaultPanelEnvFile, "panel .env file")
	flags.StringVar(&opts.storage, "storage", "local", "where archives are kept: local, s3 or gcs")
	flags.BoolVar(&opts.verifyHash, "verify-hash", false, "verify SHA-1 checksums of successful backups")
	flags.BoolVar(&opts.nonInteractive, "non-interactive", false, "never prompt")
	flags.BoolVar(&opts.allowNonRoot, "allow-non-root", false, "skip the root check")
	flags.DurationVar(&opts.minAge, "min-age", 0, "keep archives modified more recently than this")
	flags.IntVar(&opts.metricsPort, "metrics-port", 0, "serve /metrics and /health on this port while running")
	flags.StringVar(&opts.metricsTextfile, "metrics-textfile", "", "write metrics to this file when the run ends")
	flags.BoolVar(&opts.report, "report", false, "print a table of decisions")
	flags.StringVar(&opts.logFormat, "log-format", "text", "log format: text, json or pretty")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")
}

func run(cmd *cobra.Command, opts *options) error {
	level, err := parseLevel(opts.logLevel)
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stdout, opts.logFormat, level)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	logger.Info("Wings backup purger starting", "version", backup.Version)

	if cmd.Flags().Changed("panel-env") {
		if err := os.Setenv("PANEL_ENV_FILE", opts.panelEnv); err != nil {
			return fmt.Errorf("failed to set panel env file: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applyFlags(cmd.Flags(), cfg, opts)

	if !cfg.NonInteractive && !prompt.Interactive() {
		cfg.NonInteractive = true
	}
	if err := prompt.Complete(cfg, prompt.SurveyAsker{}); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := checkPrivileges(cfg, os.Geteuid()); err != nil {
		return err
	}

	logger.Info("Configuration loaded",
		"storage_provider", cfg.StorageProvider,
		"backup_directory", cfg.BackupDirectory,
		"db_connection", cfg.Database.Connection,
		"db_host", cfg.Database.Host,
		"verify_hash", cfg.VerifyHash,
		"min_archive_age", cfg.MinArchiveAge,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var httpServer *server.Server
	var wg sync.WaitGroup
	if cfg.MetricsPort > 0 {
		serverConfig := server.DefaultConfig()
		serverConfig.Port = cfg.MetricsPort
		httpServer = server.New(serverConfig, logger.With("component", "server"))

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := httpServer.Start(); err != nil {
				logger.Error("HTTP server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP server shutdown failed", "error", err)
			}
			wg.Wait()
		}()
	}

	logger.Info("Connecting to database")
	store, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()

	st, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if httpServer != nil {
		httpServer.RegisterProbe("database", store.Ping, map[string]any{
			"connection": cfg.Database.Connection,
		})
		httpServer.RegisterProbe("storage", func(ctx context.Context) error {
			_, err := st.List(ctx, "")
			return err
		}, map[string]any{"provider": st.Provider()})
		httpServer.SetReady(true)
	}

	sinks := backup.MultiSink{backup.NewLogSink(logger)}
	if opts.report {
		sinks = append(sinks, report.NewTable(os.Stdout))
	}

	orchestrator := backup.NewOrchestrator(cfg, st, store, sinks, logger.With("component", "orchestrator"))
	_, runErr := orchestrator.Run(ctx)

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Error("Failed to write metrics", "path", cfg.MetricsTextfile, "error", err)
		}
	}

	return runErr
}

// applyFlags overrides configuration with the flags given on the command line.
func applyFlags(flags *pflag.FlagSet, cfg *config.Config, opts *options) {
	if flags.Changed("directory") {
		cfg.BackupDirectory = opts.directory
	}
	if flags.Changed("panel-env") {
		cfg.PanelEnvFile = opts.panelEnv
	}
	if flags.Changed("storage") {
		cfg.StorageProvider = opts.storage
	}
	if flags.Changed("verify-hash") {
		cfg.VerifyHash = opts.verifyHash
		cfg.VerifyHashSet = true
	}
	if flags.Changed("non-interactive") {
		cfg.NonInteractive = opts.nonInteractive
	}
	if flags.Changed("allow-non-root") {
		cfg.AllowNonRoot = opts.allowNonRoot
	}
	if flags.Changed("min-age") {
		cfg.MinArchiveAge = opts.minAge
	}
	if flags.Changed("metrics-port") {
		cfg.MetricsPort = opts.metricsPort
	}
	if flags.Changed("metrics-textfile") {
		cfg.MetricsTextfile = opts.metricsTextfile
	}
}

// checkPrivileges requires root for local storage, where Wings archives are
// owned by root.
func checkPrivileges(cfg *config.Config, euid int) error {
	if cfg.AllowNonRoot || euid == 0 {
		return nil
	}
	if cfg.StorageProvider != "" && cfg.StorageProvider != "local" {
		return nil
	}
	return errNotRoot
}
