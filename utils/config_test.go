package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DISCORD_TOKEN", "DATABASE_URL", "REDIS_URL", "CASINO_ADMINS"} {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "roulette", cfg.Casino.Game)
	assert.Equal(t, int64(StipendCredits), cfg.Casino.Stipend)
	assert.Equal(t, BackendSQLite, cfg.Ledger.Backend)
	assert.Equal(t, "!", cfg.Discord.Prefix)

	cooldown, err := cfg.StipendCooldownDuration()
	require.NoError(t, err)
	assert.Equal(t, 20*time.Hour, cooldown)

	roulette, err := cfg.Roulette.Timings()
	require.NoError(t, err)
	assert.Equal(t, DefaultRouletteTimings(), roulette)

	blackjack, err := cfg.Blackjack.Timings()
	require.NoError(t, err)
	assert.Equal(t, DefaultBlackjackTimings(), blackjack)
}

func TestLoadConfigMissingFile(t *testing.T) {
	clearConfigEnv(t)
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigFile(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), "casino.hcl")
	err := os.WriteFile(path, []byte(`
casino {
  game             = "blackjack"
  stipend          = 50
  bonus_multiplier = 3
  admins           = [11, 22]
}

ledger {
  backend   = "memory"
  cache_ttl = "0s"
}

blackjack {
  bet_window = "20s"
  auto_stand = "1m"
}

status {
  enabled = true
  address = ":9090"
}
`), 0o644)
	require.NoError(t, err)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "blackjack", cfg.Casino.Game)
	assert.Equal(t, int64(50), cfg.Casino.Stipend)
	assert.Equal(t, int64(3), cfg.Casino.BonusMultiplier)
	assert.True(t, cfg.IsAdmin(22))
	assert.False(t, cfg.IsAdmin(33))
	assert.Equal(t, BackendMemory, cfg.Ledger.Backend)
	assert.True(t, cfg.Status.Enabled)
	assert.Equal(t, ":9090", cfg.Status.Address)

	ttl, err := cfg.CacheTTLDuration()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), ttl)

	timings, err := cfg.Blackjack.Timings()
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, timings.BetWindow)
	assert.Equal(t, time.Minute, timings.AutoStand)
	assert.Equal(t, 15*time.Second, timings.SplitExtension, "unset fields keep their defaults")
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DISCORD_TOKEN", "secret")
	t.Setenv("REDIS_URL", "redis://cache:6379/0")
	t.Setenv("CASINO_ADMINS", "5, 6")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Discord.Token)
	assert.Equal(t, "redis://cache:6379/0", cfg.Ledger.RedisURL)
	assert.Equal(t, []int64{5, 6}, cfg.Casino.Admins)

	t.Setenv("CASINO_ADMINS", "5,x")
	_, err = LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfigBadHCL(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), "casino.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`casino { game = `), 0o644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown game", func(c *Config) { c.Casino.Game = "poker" }},
		{"negative stipend", func(c *Config) { c.Casino.Stipend = -1 }},
		{"bonus below one", func(c *Config) { c.Casino.BonusMultiplier = 0 }},
		{"bonus above cap", func(c *Config) { c.Casino.BonusMultiplier = MaxBonus + 1 }},
		{"bad cooldown", func(c *Config) { c.Casino.StipendCooldown = "soon" }},
		{"unknown backend", func(c *Config) { c.Ledger.Backend = "mongo" }},
		{"postgres without url", func(c *Config) { c.Ledger.Backend = BackendPostgres }},
		{"redis without url", func(c *Config) { c.Ledger.Backend = BackendRedis }},
		{"bad timing", func(c *Config) { c.Roulette.Settle = "12 seconds" }},
		{"negative timing", func(c *Config) { c.Blackjack.Cooldown = "-1s" }},
		{"window inside cutoff", func(c *Config) { c.Roulette.BetWindow = "2s" }},
		{"no auto stand", func(c *Config) { c.Blackjack.AutoStand = "0s" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseIDList(t *testing.T) {
	ids, err := ParseIDList(" 1,2 ,,3 ")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	ids, err = ParseIDList("")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = ParseIDList("1,two")
	assert.Error(t, err)
}
