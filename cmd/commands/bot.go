package commands

// Command to run the full bot with all monitors
// Initializes configuration, the dedup store and both API clients
// Starts all monitors (New Pools, Trending, Stats)
// Implements graceful shutdown for proper termination

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"pool-sentry/bots_monitor"
	"pool-sentry/internal/clients_api/dexscreener"
	"pool-sentry/internal/clients_api/geckoterminal"
	"pool-sentry/internal/clients_api/rugcheck"
	"pool-sentry/internal/dedup"
	"pool-sentry/internal/features/alertstats"
	"pool-sentry/internal/infra/config"
	logging "pool-sentry/internal/infra/log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run full bot with all monitors",
	Long:  `Run the complete bot with all monitoring features including New Pools, Trending and the daily Stats digest.`,
	RunE:  runBot,
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.LogError("Failed to load config", zap.Error(err))
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store := buildStore(ctx, cfg)
	bot, err := initializeBot(cfg)
	if err != nil {
		return err
	}

	recorder := alertstats.NewRecorder()
	gecko := geckoterminal.NewClient(requestTimeout(cfg), cfg.App.MaxResponseSize)
	dex := dexscreener.NewClient(requestTimeout(cfg), cfg.App.MaxResponseSize)
	rug := rugcheck.NewClient(requestTimeout(cfg), cfg.App.MaxResponseSize)

	lease := time.Duration(cfg.Redis.LockTTLSeconds) * time.Second
	pollInterval := time.Duration(cfg.Monitor.PollInterval) * time.Second

	var wg sync.WaitGroup

	if cfg.Telegram.NewPoolsChatID != "" {
		monitor := &bots_monitor.NewPoolsMonitor{
			Bot:          bot,
			Gecko:        gecko,
			Rug:          rug,
			Store:        store,
			Recorder:     recorder,
			ChatID:       cfg.Telegram.NewPoolsChatID,
			PollInterval: pollInterval,
			Lease:        lease,
			Filters: bots_monitor.PoolFilters{
				MaxPoolAge:      time.Duration(cfg.Monitor.MaxPoolAgeMin) * time.Minute,
				MinLiquidityUSD: cfg.Monitor.MinLiquidityUSD,
				MaxMarketCapUSD: cfg.Monitor.MaxMarketCapUSD,
				AllowedDexes:    cfg.Monitor.AllowedDexes,
			},
			MaxRugScore: cfg.Monitor.MaxRugScore,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			monitor.Run(ctx)
		}()

		stats := &bots_monitor.StatsMonitor{
			Bot:      bot,
			Store:    store,
			Recorder: recorder,
			ChatID:   cfg.Telegram.NewPoolsChatID,
			SendTime: cfg.Telegram.StatsSendTime,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			stats.Run(ctx)
		}()
	}

	if cfg.Telegram.TrendingChatID != "" {
		monitor := &bots_monitor.TrendingMonitor{
			Bot:          bot,
			Dex:          dex,
			Store:        store,
			Recorder:     recorder,
			ChatID:       cfg.Telegram.TrendingChatID,
			PollInterval: pollInterval,
			Lease:        lease,
			Filters: bots_monitor.PairFilters{
				MaxPairAge:       time.Duration(cfg.Monitor.MaxPairAgeHours) * time.Hour,
				MinLiquidityUSD:  cfg.Monitor.MinLiquidityUSD,
				MinPriceChangeH1: cfg.Monitor.MinPriceChangeH1,
			},
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			monitor.Run(ctx)
		}()
	}

	logging.LogSuccess("Bot is running", zap.String("status", "active"))

	<-ctx.Done()
	logging.LogInfo("Shutdown signal received, gracefully stopping all monitors...")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.LogSuccess("All monitors stopped gracefully")
	case <-time.After(10 * time.Second):
		logging.LogWarn("Timeout waiting for monitors to stop, forcing shutdown")
	}

	return nil
}

// buildStore selects the dedup backend. A configured Redis address gets the
// durable store; otherwise the in-memory store keeps the bot usable for
// local runs at the cost of losing dedup state on restart.
func buildStore(ctx context.Context, cfg *config.Config) dedup.Store {
	if cfg.Redis.Addr == "" {
		logging.LogWarn("REDIS_ADDR not set, using in-memory dedup store (state lost on restart)")
		return dedup.NewMemoryStore(cfg.Redis.Namespace)
	}

	metadataTTL := time.Duration(cfg.Redis.MetadataTTLDays) * 24 * time.Hour
	store := dedup.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Namespace, metadataTTL)

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := store.Ping(pingCtx); err != nil {
		// Fail open: monitors run best-effort until Redis comes back.
		logging.LogWarn("Redis unreachable at startup, monitors will run best-effort",
			zap.String("addr", cfg.Redis.Addr),
			zap.Error(err))
	} else {
		logging.LogInfo("Connected to Redis dedup store",
			zap.String("addr", cfg.Redis.Addr),
			zap.String("namespace", cfg.Redis.Namespace))
	}
	return store
}

func initializeBot(cfg *config.Config) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logging.LogError("Failed to initialize Telegram bot", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize telegram bot: %w", err)
	}
	logging.LogInfo("Telegram bot authorized", zap.String("username", bot.Self.UserName))
	return bot, nil
}

func requestTimeout(cfg *config.Config) time.Duration {
	return time.Duration(cfg.App.RequestTimeout) * time.Second
}
