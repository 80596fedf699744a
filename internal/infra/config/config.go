package config

// Configuration layering: defaults -> config.yaml -> .env file -> env vars
// -> flags. Env aliases keep the flat TELEGRAM_* / REDIS_* names the deploy
// scripts already use.

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	App      AppConfig      `mapstructure:"app"`
}

type TelegramConfig struct {
	BotToken       string `mapstructure:"bot_token"`
	NewPoolsChatID string `mapstructure:"new_pools_chat_id"`
	TrendingChatID string `mapstructure:"trending_chat_id"`
	StatsSendTime  string `mapstructure:"stats_send_time"` // "HH:MM", daily digest
}

// RedisConfig drives the dedup store. An empty Addr selects the in-memory
// backend, which loses dedup state across restarts.
type RedisConfig struct {
	Addr            string `mapstructure:"addr"`
	Password        string `mapstructure:"password"`
	DB              int    `mapstructure:"db"`
	Namespace       string `mapstructure:"namespace"`
	LockTTLSeconds  int    `mapstructure:"lock_ttl_seconds"`
	MetadataTTLDays int    `mapstructure:"metadata_ttl_days"`
}

type MonitorConfig struct {
	PollInterval     int      `mapstructure:"poll_interval"` // seconds
	MaxPoolAgeMin    int      `mapstructure:"max_pool_age_minutes"`
	MinLiquidityUSD  float64  `mapstructure:"min_liquidity_usd"`
	MaxMarketCapUSD  float64  `mapstructure:"max_market_cap_usd"`
	AllowedDexes     []string `mapstructure:"allowed_dexes"`
	MaxRugScore      int      `mapstructure:"max_rug_score"`
	MinPriceChangeH1 float64  `mapstructure:"min_price_change_h1"`
	MaxPairAgeHours  int      `mapstructure:"max_pair_age_hours"`
}

type AppConfig struct {
	RequestTimeout  int   `mapstructure:"request_timeout"` // seconds
	MaxResponseSize int64 `mapstructure:"max_response_size"`
}

func LoadConfig() (*Config, error) {
	godotenv.Load(".env")

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.ReadInConfig() // optional file

	v.SetConfigType("env")
	v.SetConfigFile(".env")
	v.ReadInConfig() // optional file

	v.AutomaticEnv()
	setupEnvAliases(v)
	setupFlags(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// AllowedDexes arrives as a comma-separated string from .env or flags,
	// or as a list from YAML.
	if raw := v.Get("monitor.allowed_dexes"); raw != nil {
		switch val := raw.(type) {
		case string:
			config.Monitor.AllowedDexes = splitList(val)
		case []string:
			config.Monitor.AllowedDexes = val
		case []interface{}:
			result := make([]string, 0, len(val))
			for _, item := range val {
				if str, ok := item.(string); ok && strings.TrimSpace(str) != "" {
					result = append(result, strings.TrimSpace(str))
				}
			}
			config.Monitor.AllowedDexes = result
		}
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func splitList(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func setupEnvAliases(v *viper.Viper) {
	v.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("telegram.new_pools_chat_id", "NEW_POOLS_CHAT_ID")
	v.BindEnv("telegram.trending_chat_id", "TRENDING_CHAT_ID")
	v.BindEnv("telegram.stats_send_time", "STATS_SEND_TIME")

	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")
	v.BindEnv("redis.namespace", "REDIS_NAMESPACE")
	v.BindEnv("redis.lock_ttl_seconds", "REDIS_LOCK_TTL_SECONDS")
	v.BindEnv("redis.metadata_ttl_days", "REDIS_METADATA_TTL_DAYS")

	v.BindEnv("monitor.poll_interval", "MONITOR_POLL_INTERVAL")
	v.BindEnv("monitor.max_pool_age_minutes", "MONITOR_MAX_POOL_AGE_MINUTES")
	v.BindEnv("monitor.min_liquidity_usd", "MONITOR_MIN_LIQUIDITY_USD")
	v.BindEnv("monitor.max_market_cap_usd", "MONITOR_MAX_MARKET_CAP_USD")
	v.BindEnv("monitor.allowed_dexes", "MONITOR_ALLOWED_DEXES")
	v.BindEnv("monitor.max_rug_score", "MONITOR_MAX_RUG_SCORE")
	v.BindEnv("monitor.min_price_change_h1", "MONITOR_MIN_PRICE_CHANGE_H1")
	v.BindEnv("monitor.max_pair_age_hours", "MONITOR_MAX_PAIR_AGE_HOURS")

	v.BindEnv("app.request_timeout", "APP_REQUEST_TIMEOUT")
	v.BindEnv("app.max_response_size", "APP_MAX_RESPONSE_SIZE")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.new_pools_chat_id", "")
	v.SetDefault("telegram.trending_chat_id", "")
	v.SetDefault("telegram.stats_send_time", "10:00")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.namespace", "pool-sentry")
	v.SetDefault("redis.lock_ttl_seconds", 600) // 10 minute claim lease
	v.SetDefault("redis.metadata_ttl_days", 30)

	v.SetDefault("monitor.poll_interval", 30)
	v.SetDefault("monitor.max_pool_age_minutes", 60)
	v.SetDefault("monitor.min_liquidity_usd", 10000.0)
	v.SetDefault("monitor.max_market_cap_usd", 5000000.0)
	v.SetDefault("monitor.allowed_dexes", []string{"raydium", "orca", "meteora"})
	v.SetDefault("monitor.max_rug_score", 2000)
	v.SetDefault("monitor.min_price_change_h1", 20.0)
	v.SetDefault("monitor.max_pair_age_hours", 24)

	v.SetDefault("app.request_timeout", 30)
	v.SetDefault("app.max_response_size", 10*1024*1024)
}

func setupFlags(v *viper.Viper) {
	pflag.String("telegram.bot_token", "", "Telegram bot token (env: TELEGRAM_BOT_TOKEN)")
	pflag.String("telegram.new_pools_chat_id", "", "Chat ID for new pool alerts (env: NEW_POOLS_CHAT_ID)")
	pflag.String("telegram.trending_chat_id", "", "Chat ID for trending alerts (env: TRENDING_CHAT_ID)")
	pflag.String("telegram.stats_send_time", "10:00", "Daily digest send time HH:MM (env: STATS_SEND_TIME)")

	pflag.String("redis.addr", "", "Redis address, empty selects in-memory store (env: REDIS_ADDR)")
	pflag.String("redis.password", "", "Redis password (env: REDIS_PASSWORD)")
	pflag.Int("redis.db", 0, "Redis database number (env: REDIS_DB)")
	pflag.String("redis.namespace", "pool-sentry", "Dedup key namespace (env: REDIS_NAMESPACE)")
	pflag.Int("redis.lock_ttl_seconds", 600, "Claim lease duration in seconds (env: REDIS_LOCK_TTL_SECONDS)")
	pflag.Int("redis.metadata_ttl_days", 30, "Audit metadata retention in days (env: REDIS_METADATA_TTL_DAYS)")

	pflag.Int("monitor.poll_interval", 30, "Poll interval in seconds (env: MONITOR_POLL_INTERVAL)")
	pflag.Int("monitor.max_pool_age_minutes", 60, "Max pool age in minutes (env: MONITOR_MAX_POOL_AGE_MINUTES)")
	pflag.Float64("monitor.min_liquidity_usd", 10000, "Min pool liquidity in USD (env: MONITOR_MIN_LIQUIDITY_USD)")
	pflag.Float64("monitor.max_market_cap_usd", 5000000, "Max market cap in USD (env: MONITOR_MAX_MARKET_CAP_USD)")
	pflag.String("monitor.allowed_dexes", "", "Comma-separated dex allowlist (env: MONITOR_ALLOWED_DEXES)")
	pflag.Int("monitor.max_rug_score", 2000, "Max acceptable RugCheck score (env: MONITOR_MAX_RUG_SCORE)")
	pflag.Float64("monitor.min_price_change_h1", 20, "Min 1h price change percent for trending (env: MONITOR_MIN_PRICE_CHANGE_H1)")
	pflag.Int("monitor.max_pair_age_hours", 24, "Max pair age in hours for trending, 0 disables (env: MONITOR_MAX_PAIR_AGE_HOURS)")

	pflag.Int("app.request_timeout", 30, "HTTP request timeout in seconds (env: APP_REQUEST_TIMEOUT)")
	pflag.Int64("app.max_response_size", 10*1024*1024, "Max HTTP response size in bytes (env: APP_MAX_RESPONSE_SIZE)")

	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)
}

func validateConfig(cfg *Config) error {
	if cfg.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if cfg.Telegram.NewPoolsChatID == "" && cfg.Telegram.TrendingChatID == "" {
		return fmt.Errorf("at least one chat is required: telegram.new_pools_chat_id or telegram.trending_chat_id")
	}
	if cfg.Redis.Namespace == "" {
		return fmt.Errorf("redis.namespace must not be empty")
	}
	if cfg.Redis.LockTTLSeconds <= 0 {
		return fmt.Errorf("redis.lock_ttl_seconds must be positive, got %d", cfg.Redis.LockTTLSeconds)
	}
	return nil
}
