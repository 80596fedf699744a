package commands

// Command to run only the new pools monitor

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pool-sentry/bots_monitor"
	"pool-sentry/internal/clients_api/geckoterminal"
	"pool-sentry/internal/clients_api/rugcheck"
	"pool-sentry/internal/features/alertstats"
	"pool-sentry/internal/infra/config"
	logging "pool-sentry/internal/infra/log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var newPoolsCmd = &cobra.Command{
	Use:   "new-pools",
	Short: "Run only the new pools monitor",
	Long:  `Run only the New Pools monitor, without the trending monitor or the daily digest.`,
	RunE:  runNewPools,
}

func runNewPools(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.LogError("Failed to load config", zap.Error(err))
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Telegram.NewPoolsChatID == "" {
		return fmt.Errorf("telegram.new_pools_chat_id is required for the new-pools command")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store := buildStore(ctx, cfg)
	bot, err := initializeBot(cfg)
	if err != nil {
		return err
	}

	monitor := &bots_monitor.NewPoolsMonitor{
		Bot:          bot,
		Gecko:        geckoterminal.NewClient(requestTimeout(cfg), cfg.App.MaxResponseSize),
		Rug:          rugcheck.NewClient(requestTimeout(cfg), cfg.App.MaxResponseSize),
		Store:        store,
		Recorder:     alertstats.NewRecorder(),
		ChatID:       cfg.Telegram.NewPoolsChatID,
		PollInterval: time.Duration(cfg.Monitor.PollInterval) * time.Second,
		Lease:        time.Duration(cfg.Redis.LockTTLSeconds) * time.Second,
		Filters: bots_monitor.PoolFilters{
			MaxPoolAge:      time.Duration(cfg.Monitor.MaxPoolAgeMin) * time.Minute,
			MinLiquidityUSD: cfg.Monitor.MinLiquidityUSD,
			MaxMarketCapUSD: cfg.Monitor.MaxMarketCapUSD,
			AllowedDexes:    cfg.Monitor.AllowedDexes,
		},
		MaxRugScore: cfg.Monitor.MaxRugScore,
	}

	monitor.Run(ctx)
	return nil
}
