package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	assert.Empty(t, splitList(""))
	assert.Equal(t, []string{"raydium"}, splitList("raydium"))
	assert.Equal(t, []string{"raydium", "orca", "meteora"}, splitList(" raydium, orca ,meteora,"))
}

func validBaseConfig() Config {
	return Config{
		Telegram: TelegramConfig{
			BotToken:       "123:abc",
			NewPoolsChatID: "-100123",
		},
		Redis: RedisConfig{
			Namespace:      "pool-sentry",
			LockTTLSeconds: 600,
		},
	}
}

func TestValidateConfig(t *testing.T) {
	cfg := validBaseConfig()
	assert.NoError(t, validateConfig(&cfg))

	cfg = validBaseConfig()
	cfg.Telegram.BotToken = ""
	assert.Error(t, validateConfig(&cfg))

	cfg = validBaseConfig()
	cfg.Telegram.NewPoolsChatID = ""
	cfg.Telegram.TrendingChatID = ""
	assert.Error(t, validateConfig(&cfg))

	cfg = validBaseConfig()
	cfg.Redis.Namespace = ""
	assert.Error(t, validateConfig(&cfg))

	cfg = validBaseConfig()
	cfg.Redis.LockTTLSeconds = 0
	assert.Error(t, validateConfig(&cfg))
}

func TestValidateConfigTrendingOnly(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Telegram.NewPoolsChatID = ""
	cfg.Telegram.TrendingChatID = "-100456"
	assert.NoError(t, validateConfig(&cfg))
}
