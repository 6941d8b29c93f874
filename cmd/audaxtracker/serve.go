package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"audaxtracker/config"
	"audaxtracker/internal/format"
	"audaxtracker/internal/i18n"
	"audaxtracker/internal/metrics"
	"audaxtracker/internal/remote"
	"audaxtracker/internal/state"
	"audaxtracker/internal/telegram"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for CLI use.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// serveCmd runs the bot.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tracking bot",
	Long: `Run the audaxtracker bot.

The bot will:
  - Load configuration from the specified YAML file
  - Load the persisted state snapshot (or start empty)
  - Resume periodic fetching if it was active before the last shutdown
  - Answer Telegram commands until interrupted

The bot runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  audaxtracker serve -c settings.yaml
  audaxtracker serve --config /etc/audaxtracker/settings.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store := state.New(cfg.StateFile, logger)
	if err := store.Load(); err != nil {
		// A corrupt snapshot needs an operator decision; running on would
		// silently drop every existing subscription.
		return fmt.Errorf("failed to load state: %w", err)
	}

	logger.Info("state loaded",
		"path", cfg.StateFile,
		"participants", store.ParticipantCount(),
		"subscribers", len(store.Subscriptions()),
	)

	cat := i18n.New(cfg.DefaultLanguage, cfg.SupportedLanguages)
	formatter := format.New(store, cat, cfg.Location())

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	logger.Info("authorized on Telegram", "bot", api.Self.UserName)

	transport := telegram.NewTransport(api, logger)
	client := remote.NewClient(cfg.EndpointURL, cfg.EndpointToken, logger)
	engine := remote.NewEngine(store, client, transport, formatter, cat, logger)
	store.OnParticipantsRemoved(engine)

	operatorID := ""
	if cfg.AdminChatID != 0 {
		operatorID = strconv.FormatInt(cfg.AdminChatID, 10)
	}
	scheduler := remote.NewScheduler(engine, store, transport, operatorID,
		cat, logger, cfg.FetchInterval.Duration(), cfg.FetchInitialDelay.Duration())

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsSrv *http.Server
	if cfg.MetricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsSrv = &http.Server{Addr: cfg.MetricsListen, Handler: mux}
		go func() {
			logger.Info("serving metrics", "addr", cfg.MetricsListen)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	// Fetching survives restarts: if the snapshot says it was on, resume
	// without waiting for the operator.
	if store.IsFetching() {
		logger.Info("resuming fetching from the previous run")
		if err := scheduler.Start(ctx); err != nil {
			return fmt.Errorf("failed to resume fetching: %w", err)
		}
	}

	bot := telegram.New(api, transport, store, engine, scheduler, formatter, cat, cfg, logger)

	// run the bot - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- bot.Run(ctx)
	}()

	select {
	case err := <-errChan:
		shutdown(scheduler, metricsSrv, logger)
		if err != nil {
			return fmt.Errorf("bot error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			shutdown(scheduler, metricsSrv, logger)
			if err != nil {
				return fmt.Errorf("bot error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}

// shutdown stops the background pieces after the update loop has exited.
// The scheduler keeps its persisted flag so fetching resumes next run.
func shutdown(scheduler *remote.Scheduler, metricsSrv *http.Server, logger *slog.Logger) {
	if scheduler.Running() {
		scheduler.Shutdown()
	}
	if metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logger.Error("failed to stop metrics server", "error", err)
		}
	}
}
