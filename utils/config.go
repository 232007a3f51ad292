package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete casino configuration
type Config struct {
	Casino    CasinoSettings
	Ledger    LedgerSettings
	Discord   DiscordSettings
	Roulette  TimingSettings
	Blackjack TimingSettings
	Status    StatusSettings
}

// fileConfig mirrors Config with every block optional
type fileConfig struct {
	Casino    *CasinoSettings  `hcl:"casino,block"`
	Ledger    *LedgerSettings  `hcl:"ledger,block"`
	Discord   *DiscordSettings `hcl:"discord,block"`
	Roulette  *TimingSettings  `hcl:"roulette,block"`
	Blackjack *TimingSettings  `hcl:"blackjack,block"`
	Status    *StatusSettings  `hcl:"status,block"`
}

// CasinoSettings contains the economy and room configuration
type CasinoSettings struct {
	Game            string  `hcl:"game,optional"`
	Stipend         int64   `hcl:"stipend,optional"`
	StipendCooldown string  `hcl:"stipend_cooldown,optional"`
	BonusMultiplier int64   `hcl:"bonus_multiplier,optional"`
	Admins          []int64 `hcl:"admins,optional"`
	Seed            int64   `hcl:"seed,optional"`
	LogLevel        string  `hcl:"log_level,optional"`
}

// LedgerSettings selects and configures the player store
type LedgerSettings struct {
	Backend     string `hcl:"backend,optional"`
	Path        string `hcl:"path,optional"`
	PostgresURL string `hcl:"postgres_url,optional"`
	RedisURL    string `hcl:"redis_url,optional"`
	CacheTTL    string `hcl:"cache_ttl,optional"`
}

// DiscordSettings configures the Discord transport
type DiscordSettings struct {
	Token     string `hcl:"token,optional"`
	ChannelID string `hcl:"channel_id,optional"`
	Prefix    string `hcl:"prefix,optional"`
}

// TimingSettings holds one table's phase delays as duration strings
type TimingSettings struct {
	BetWindow      string `hcl:"bet_window,optional"`
	CancelCutoff   string `hcl:"cancel_cutoff,optional"`
	Settle         string `hcl:"settle,optional"`
	AutoStand      string `hcl:"auto_stand,optional"`
	SplitExtension string `hcl:"split_extension,optional"`
	Cooldown       string `hcl:"cooldown,optional"`
}

// StatusSettings configures the HTTP status server
type StatusSettings struct {
	Enabled bool   `hcl:"enabled,optional"`
	Address string `hcl:"address,optional"`
}

// Ledger backends
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// DefaultConfig returns the configuration used when no file exists
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig loads configuration from an HCL file, falling back to defaults
// when the file does not exist. Environment overrides are applied last.
func LoadConfig(filename string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(filename); filename != "" && err == nil {
		parser := hclparse.NewParser()
		file, diags := parser.ParseHCLFile(filename)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
		}

		var fc fileConfig
		diags = gohcl.DecodeBody(file.Body, nil, &fc)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
		}
		cfg.merge(&fc)
	} else if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config %s: %w", filename, err)
	}

	cfg.applyDefaults()
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) merge(fc *fileConfig) {
	if fc.Casino != nil {
		c.Casino = *fc.Casino
	}
	if fc.Ledger != nil {
		c.Ledger = *fc.Ledger
	}
	if fc.Discord != nil {
		c.Discord = *fc.Discord
	}
	if fc.Roulette != nil {
		c.Roulette = *fc.Roulette
	}
	if fc.Blackjack != nil {
		c.Blackjack = *fc.Blackjack
	}
	if fc.Status != nil {
		c.Status = *fc.Status
	}
}

func (c *Config) applyDefaults() {
	if c.Casino.Game == "" {
		c.Casino.Game = "roulette"
	}
	if c.Casino.Stipend == 0 {
		c.Casino.Stipend = StipendCredits
	}
	if c.Casino.StipendCooldown == "" {
		c.Casino.StipendCooldown = StipendCooldown.String()
	}
	if c.Casino.BonusMultiplier == 0 {
		c.Casino.BonusMultiplier = DefaultBonus
	}
	if c.Casino.LogLevel == "" {
		c.Casino.LogLevel = "info"
	}

	if c.Ledger.Backend == "" {
		c.Ledger.Backend = BackendSQLite
	}
	if c.Ledger.Path == "" {
		c.Ledger.Path = "casino.db"
	}
	if c.Ledger.CacheTTL == "" {
		c.Ledger.CacheTTL = DefaultCacheTTL.String()
	}

	if c.Discord.Prefix == "" {
		c.Discord.Prefix = "!"
	}

	c.Roulette.fill(DefaultRouletteTimings())
	c.Blackjack.fill(DefaultBlackjackTimings())

	if c.Status.Address == "" {
		c.Status.Address = "127.0.0.1:8080"
	}
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("DISCORD_TOKEN"); v != "" {
		c.Discord.Token = v
	}
	if v := getenv("DATABASE_URL"); v != "" {
		c.Ledger.PostgresURL = v
	}
	if v := getenv("REDIS_URL"); v != "" {
		c.Ledger.RedisURL = v
	}
	if v := getenv("CASINO_ADMINS"); v != "" {
		admins, err := ParseIDList(v)
		if err != nil {
			return fmt.Errorf("CASINO_ADMINS: %w", err)
		}
		c.Casino.Admins = admins
	}
	return nil
}

// ParseIDList reads a comma separated list of member ids
func ParseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid member id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (t *TimingSettings) fill(d Timings) {
	set := func(field *string, v time.Duration) {
		if *field == "" && v > 0 {
			*field = v.String()
		}
	}
	set(&t.BetWindow, d.BetWindow)
	set(&t.CancelCutoff, d.CancelCutoff)
	set(&t.Settle, d.Settle)
	set(&t.AutoStand, d.AutoStand)
	set(&t.SplitExtension, d.SplitExtension)
	set(&t.Cooldown, d.Cooldown)
}

// Timings parses the delays
func (t TimingSettings) Timings() (Timings, error) {
	var out Timings
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"bet_window", t.BetWindow, &out.BetWindow},
		{"cancel_cutoff", t.CancelCutoff, &out.CancelCutoff},
		{"settle", t.Settle, &out.Settle},
		{"auto_stand", t.AutoStand, &out.AutoStand},
		{"split_extension", t.SplitExtension, &out.SplitExtension},
		{"cooldown", t.Cooldown, &out.Cooldown},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return Timings{}, fmt.Errorf("%s: %w", f.name, err)
		}
		if d < 0 {
			return Timings{}, fmt.Errorf("%s: must not be negative", f.name)
		}
		*f.dst = d
	}
	return out, nil
}

// StipendCooldownDuration parses the stipend cooldown
func (c *Config) StipendCooldownDuration() (time.Duration, error) {
	return time.ParseDuration(c.Casino.StipendCooldown)
}

// CacheTTLDuration parses the ledger cache TTL; zero disables caching
func (c *Config) CacheTTLDuration() (time.Duration, error) {
	return time.ParseDuration(c.Ledger.CacheTTL)
}

// IsAdmin reports whether id is a configured casino admin
func (c *Config) IsAdmin(id int64) bool {
	for _, a := range c.Casino.Admins {
		if a == id {
			return true
		}
	}
	return false
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Casino.Game {
	case "roulette", "blackjack":
	default:
		return fmt.Errorf("casino: unknown game %q", c.Casino.Game)
	}
	if c.Casino.Stipend < 0 {
		return fmt.Errorf("casino: stipend must not be negative")
	}
	if c.Casino.BonusMultiplier < 1 || c.Casino.BonusMultiplier > MaxBonus {
		return fmt.Errorf("casino: bonus multiplier must be between 1 and %d", MaxBonus)
	}
	if _, err := c.StipendCooldownDuration(); err != nil {
		return fmt.Errorf("casino: stipend_cooldown: %w", err)
	}

	switch c.Ledger.Backend {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if c.Ledger.PostgresURL == "" {
			return fmt.Errorf("ledger: postgres backend needs postgres_url or DATABASE_URL")
		}
	case BackendRedis:
		if c.Ledger.RedisURL == "" {
			return fmt.Errorf("ledger: redis backend needs redis_url or REDIS_URL")
		}
	default:
		return fmt.Errorf("ledger: unknown backend %q", c.Ledger.Backend)
	}
	if _, err := c.CacheTTLDuration(); err != nil {
		return fmt.Errorf("ledger: cache_ttl: %w", err)
	}

	roulette, err := c.Roulette.Timings()
	if err != nil {
		return fmt.Errorf("roulette: %w", err)
	}
	if roulette.BetWindow <= roulette.CancelCutoff {
		return fmt.Errorf("roulette: bet_window must be longer than cancel_cutoff")
	}
	blackjack, err := c.Blackjack.Timings()
	if err != nil {
		return fmt.Errorf("blackjack: %w", err)
	}
	if blackjack.BetWindow <= blackjack.CancelCutoff {
		return fmt.Errorf("blackjack: bet_window must be longer than cancel_cutoff")
	}
	if blackjack.AutoStand <= 0 {
		return fmt.Errorf("blackjack: auto_stand must be positive")
	}
	return nil
}
