package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/joho/godotenv"

	"ccasino/cogs"
	"ccasino/utils"
)

// version is set by ldflags during build
var version = "dev"

// shutdownGrace is how long shutdown waits for the live round to settle
const shutdownGrace = 30 * time.Second

// Globals are the flags shared by every command
type Globals struct {
	Config   string `short:"c" default:"casino.hcl" help:"Path to HCL configuration file"`
	LogLevel string `short:"l" name:"log-level" help:"Log level (overrides config)"`
	Seed     int64  `help:"Seed for cards and wheel, 0 for time based (overrides config)"`
}

type CLI struct {
	Globals

	Version kong.VersionFlag `short:"v" help:"Show version"`
	Discord DiscordCmd       `cmd:"" default:"1" help:"Run the casino in a Discord channel"`
	Console ConsoleCmd       `cmd:"" help:"Play the casino on this terminal"`
}

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("ccasino"),
		kong.Description("Chat casino with roulette and blackjack tables"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}

// app is the process-wide state built from the configuration
type app struct {
	cfg    *utils.Config
	logger *log.Logger
	clock  quartz.Clock
	ledger utils.Ledger
}

// bootstrap loads configuration, sets up logging and opens the ledger
func bootstrap(ctx context.Context, g *Globals) (*app, error) {
	cfg, err := utils.LoadConfig(g.Config)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	if g.LogLevel != "" {
		cfg.Casino.LogLevel = g.LogLevel
	}
	if g.Seed != 0 {
		cfg.Casino.Seed = g.Seed
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := log.ParseLevel(cfg.Casino.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})

	clock := quartz.NewReal()
	ledger, err := openLedger(ctx, cfg, clock, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("ledger ready", "backend", cfg.Ledger.Backend)

	return &app{cfg: cfg, logger: logger, clock: clock, ledger: ledger}, nil
}

// openLedger connects the configured backend and puts the cache in front
func openLedger(ctx context.Context, cfg *utils.Config, clock quartz.Clock, logger *log.Logger) (utils.Ledger, error) {
	var (
		inner utils.Ledger
		err   error
	)
	switch cfg.Ledger.Backend {
	case utils.BackendMemory:
		return utils.NewMemoryLedger(clock), nil
	case utils.BackendSQLite:
		inner, err = utils.NewSQLiteLedger(ctx, cfg.Ledger.Path)
	case utils.BackendPostgres:
		inner, err = utils.NewPostgresLedger(ctx, cfg.Ledger.PostgresURL)
	case utils.BackendRedis:
		rc := utils.DefaultRedisConfig()
		rc.URL = cfg.Ledger.RedisURL
		inner, err = utils.NewRedisLedger(ctx, rc)
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s ledger: %w", cfg.Ledger.Backend, err)
	}

	ttl, err := cfg.CacheTTLDuration()
	if err != nil || ttl == 0 {
		return inner, nil
	}
	return utils.NewCachedLedger(inner, ttl, clock, logger), nil
}

// newCasino builds the coordinator on top of a transport
func (a *app) newCasino(messenger utils.Messenger, avatar utils.Avatar) (*cogs.Casino, error) {
	roulette, err := a.cfg.Roulette.Timings()
	if err != nil {
		return nil, err
	}
	blackjack, err := a.cfg.Blackjack.Timings()
	if err != nil {
		return nil, err
	}
	cooldown, err := a.cfg.StipendCooldownDuration()
	if err != nil {
		return nil, err
	}

	return cogs.NewCasino(cogs.Options{
		Ledger:    a.ledger,
		Messenger: messenger,
		Avatar:    avatar,
		Catalog:   utils.DefaultCatalog(),
		Clock:     a.clock,
		Rand:      utils.NewRand(a.cfg.Casino.Seed),
		Logger:    a.logger,
		Game:      a.cfg.Casino.Game,
		Timings: map[string]utils.Timings{
			"roulette":  roulette,
			"blackjack": blackjack,
		},
		Stipend:         a.cfg.Casino.Stipend,
		StipendCooldown: cooldown,
		BonusMultiplier: a.cfg.Casino.BonusMultiplier,
	})
}

// shutdown closes the live table and the ledger
func (a *app) shutdown(casino *cogs.Casino) {
	if casino != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := casino.Table().Close(ctx); err != nil {
			a.logger.Warn("table did not finish its round", "err", err)
		}
	}
	if err := a.ledger.Close(); err != nil {
		a.logger.Error("failed to close ledger", "err", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
