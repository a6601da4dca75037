package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"slack-taskbot/internal/config"
	"slack-taskbot/internal/httpapi"
	"slack-taskbot/internal/observability/jsonlog"
	"slack-taskbot/internal/reminder"
	"slack-taskbot/internal/slack"
	"slack-taskbot/internal/store/postgres"
	"slack-taskbot/internal/task"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Slack webhook server and the reminder dispatcher",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := jsonlog.New(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Root context cancelled on SIGINT/SIGTERM
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(rootCtx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer pool.Close()

	pingCtx, cancel := context.WithTimeout(rootCtx, 5*time.Second)
	err = pool.Ping(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("db ping: %w", err)
	}

	store := postgres.NewStore(pool)
	if err := store.EnsureSchema(rootCtx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	client := slack.NewClient(cfg.SlackBotToken)
	svc := task.NewService(store, store, client, logger)
	disp := reminder.New(store, client, logger, reminder.Config{
		Interval: cfg.ReminderInterval,
		Batch:    reminder.DefaultConfig().Batch,
	})

	// Start background dispatcher
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		disp.Run(rootCtx)
	}()

	deps := httpapi.Deps{
		SigningSecret: cfg.SlackSigningKey,
		Tasks:         svc,
		Slack:         client,
		Log:           logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", httpapi.HealthzHandler())
	mux.HandleFunc("/readyz", httpapi.ReadyzHandler(store))
	mux.HandleFunc("/slack/command", httpapi.SlashCommandHandler(deps))
	mux.HandleFunc("/slack/interactions", httpapi.InteractionsHandler(deps))
	mux.HandleFunc("/slack/events", httpapi.EventsHandler(deps))
	mux.HandleFunc("/remind/once", httpapi.RemindOnceHandler(disp))

	handler := httpapi.WithRequestID()(
		httpapi.Logging(logger)(
			mux,
		),
	)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server_failed", map[string]any{"err": err.Error()})
			stop()
		}
	}()

	<-rootCtx.Done()
	logger.Info("shutdown_signal_received", nil)

	// Stop accepting new requests; wait for in-flight with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_shutdown_error", map[string]any{"err": err.Error()})
	}

	// Wait for the dispatcher (it stops because rootCtx is cancelled)
	wg.Wait()
	logger.Info("bye", nil)
	return nil
}
