package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"slack-taskbot/internal/config"
	"slack-taskbot/internal/observability/jsonlog"
	"slack-taskbot/internal/reminder"
	"slack-taskbot/internal/slack"
	"slack-taskbot/internal/store/postgres"
)

// remind runs a single dispatch pass and exits, for cron-style deployments
// that don't keep the server running.
func remindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Deliver due reminders once and exit",
		RunE:  runRemind,
	}
}

func runRemind(cmd *cobra.Command, args []string) error {
	logger := jsonlog.New(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer pool.Close()

	store := postgres.NewStore(pool)
	client := slack.NewClient(cfg.SlackBotToken)
	disp := reminder.New(store, client, logger, reminder.DefaultConfig())

	sent, err := disp.DispatchOnce(ctx)
	if err != nil {
		return err
	}
	logger.Info("remind_pass_done", map[string]any{"sent": sent})
	return nil
}
