package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rankwatch/rankwatch/internal/config"
	"github.com/rankwatch/rankwatch/internal/extract"
	"github.com/rankwatch/rankwatch/internal/fetch"
	"github.com/rankwatch/rankwatch/internal/logging"
	"github.com/rankwatch/rankwatch/internal/monitor"
	"github.com/rankwatch/rankwatch/internal/notify"
	"github.com/rankwatch/rankwatch/internal/state"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Performs one fetch/diff/notify/persist cycle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() {
				_ = logger.Sync()
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fetcher := fetch.New(fetch.Config{
				UserAgent:      cfg.HTTP.UserAgent,
				AcceptLanguage: cfg.HTTP.AcceptLanguage,
				Timeout:        cfg.Timeout(),
				Policy: fetch.Policy{
					MaxAttempts: cfg.HTTP.MaxAttempts,
					BaseDelay:   cfg.BackoffBase(),
					MaxJitter:   cfg.BackoffJitter(),
				},
			}, logger.Named("fetch"))

			store := state.NewFileStore(cfg.State.Path, cfg.Source.URL)

			var notifier notify.Notifier = notify.Noop{}
			if cfg.TelegramConfigured() {
				notifier = notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
			} else {
				logger.Info("telegram credentials absent, delivery disabled")
			}

			mon := monitor.New(
				fetcher,
				extract.Parse,
				store,
				notifier,
				monitor.Config{
					URL:         cfg.Source.URL,
					ForceNotify: cfg.Notify.Force,
				},
				logger.Named("monitor"),
			)
			return mon.Run(ctx)
		},
	}
}
