package commands

// Command to run only the trending monitor

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pool-sentry/bots_monitor"
	"pool-sentry/internal/clients_api/dexscreener"
	"pool-sentry/internal/features/alertstats"
	"pool-sentry/internal/infra/config"
	logging "pool-sentry/internal/infra/log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Run only the trending pairs monitor",
	Long:  `Run only the Trending monitor, without the new pools monitor or the daily digest.`,
	RunE:  runTrending,
}

func runTrending(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.LogError("Failed to load config", zap.Error(err))
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Telegram.TrendingChatID == "" {
		return fmt.Errorf("telegram.trending_chat_id is required for the trending command")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store := buildStore(ctx, cfg)
	bot, err := initializeBot(cfg)
	if err != nil {
		return err
	}

	monitor := &bots_monitor.TrendingMonitor{
		Bot:          bot,
		Dex:          dexscreener.NewClient(requestTimeout(cfg), cfg.App.MaxResponseSize),
		Store:        store,
		Recorder:     alertstats.NewRecorder(),
		ChatID:       cfg.Telegram.TrendingChatID,
		PollInterval: time.Duration(cfg.Monitor.PollInterval) * time.Second,
		Lease:        time.Duration(cfg.Redis.LockTTLSeconds) * time.Second,
		Filters: bots_monitor.PairFilters{
			MaxPairAge:       time.Duration(cfg.Monitor.MaxPairAgeHours) * time.Hour,
			MinLiquidityUSD:  cfg.Monitor.MinLiquidityUSD,
			MinPriceChangeH1: cfg.Monitor.MinPriceChangeH1,
		},
	}

	monitor.Run(ctx)
	return nil
}
