package cogs

import (
	"context"
	"errors"
	"fmt"
	rand "math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"ccasino/games/blackjack"
	"ccasino/games/roulette"
	"ccasino/models"
	"ccasino/utils"
)

// switchTimeout bounds how long a game switch waits for the live round
const switchTimeout = 10 * time.Minute

// TableFactory builds a table of one variant
type TableFactory func(env *utils.TableEnv) utils.TableGame

// DefaultTables returns the built-in table variants
func DefaultTables() map[string]TableFactory {
	return map[string]TableFactory{
		"roulette": func(env *utils.TableEnv) utils.TableGame {
			return roulette.NewTable(env)
		},
		"blackjack": func(env *utils.TableEnv) utils.TableGame {
			return blackjack.NewTable(env)
		},
	}
}

// Options configures a Casino
type Options struct {
	Ledger    utils.Ledger
	Messenger utils.Messenger
	Avatar    utils.Avatar
	Catalog   *utils.Catalog
	Roster    *Roster
	Clock     quartz.Clock
	Rand      *rand.Rand
	Logger    *log.Logger

	Game            string
	Tables          map[string]TableFactory
	Timings         map[string]utils.Timings
	Stipend         int64
	StipendCooldown time.Duration
	BonusMultiplier int64
}

// Casino coordinates the single live table, the economy commands and the
// forfeit bookkeeping shared by every table.
type Casino struct {
	ledger    utils.Ledger
	messenger utils.Messenger
	avatar    utils.Avatar
	catalog   *utils.Catalog
	locks     *utils.LockedItemRegistry
	validator *utils.BetValidator
	stipend   *utils.StipendManager
	roster    *Roster
	clock     quartz.Clock
	rng       *rand.Rand
	logger    *log.Logger

	Commands *CommandRegistry

	factories    map[string]TableFactory
	timings      map[string]utils.Timings
	defaultBonus int64
	multiplier   atomic.Int64

	mutex     sync.RWMutex
	table     utils.TableGame
	switching bool
	switches  sync.WaitGroup

	// stipendDue is when each player's next stipend claim is worth trying
	stipendMutex sync.Mutex
	stipendDue   map[int64]time.Time
}

var (
	_ utils.Host     = (*Casino)(nil)
	_ utils.Punisher = (*Casino)(nil)
)

// NewCasino builds the coordinator and opens the configured table
func NewCasino(opts Options) (*Casino, error) {
	if opts.Ledger == nil || opts.Messenger == nil || opts.Avatar == nil {
		return nil, errors.New("casino needs a ledger, a messenger and an avatar layer")
	}
	if opts.Catalog == nil {
		opts.Catalog = utils.DefaultCatalog()
	}
	if opts.Roster == nil {
		opts.Roster = NewRoster()
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.Rand == nil {
		opts.Rand = utils.NewRand(0)
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Tables == nil {
		opts.Tables = DefaultTables()
	}
	if opts.Timings == nil {
		opts.Timings = map[string]utils.Timings{
			"roulette":  utils.DefaultRouletteTimings(),
			"blackjack": utils.DefaultBlackjackTimings(),
		}
	}
	if opts.Game == "" {
		opts.Game = "roulette"
	}
	if opts.Stipend == 0 {
		opts.Stipend = utils.StipendCredits
	}
	if opts.StipendCooldown == 0 {
		opts.StipendCooldown = utils.StipendCooldown
	}
	if opts.BonusMultiplier == 0 {
		opts.BonusMultiplier = utils.DefaultBonus
	}

	logger := opts.Logger.WithPrefix("casino")
	c := &Casino{
		ledger:       opts.Ledger,
		messenger:    opts.Messenger,
		avatar:       opts.Avatar,
		catalog:      opts.Catalog,
		locks:        utils.NewLockedItemRegistry(opts.Clock),
		roster:       opts.Roster,
		clock:        opts.Clock,
		rng:          opts.Rand,
		logger:       logger,
		Commands:     NewCommandRegistry(),
		factories:    opts.Tables,
		timings:      opts.Timings,
		defaultBonus: opts.BonusMultiplier,
		stipendDue:   make(map[int64]time.Time),
	}
	c.multiplier.Store(1)
	c.stipend = utils.NewStipendManager(opts.Ledger, opts.Clock, opts.Stipend, opts.StipendCooldown, opts.Logger)
	c.validator = &utils.BetValidator{
		Catalog:  opts.Catalog,
		Avatar:   opts.Avatar,
		Locks:    c.locks,
		Ledger:   opts.Ledger,
		Punisher: c,
		Logger:   opts.Logger.WithPrefix("validator"),
	}

	table, err := c.newTable(opts.Game)
	if err != nil {
		return nil, err
	}
	c.table = table
	c.registerCommands()
	c.bindTable(table)
	c.logger.Info("casino open", "game", table.Name())
	return c, nil
}

func (c *Casino) newTable(name string) (utils.TableGame, error) {
	factory, ok := c.factories[name]
	if !ok {
		return nil, utils.UserInputError("Unknown game: %s", name)
	}
	env := &utils.TableEnv{
		Ledger:    c.ledger,
		Messenger: c.messenger,
		Validator: c.validator,
		Host:      c,
		Clock:     c.clock,
		Rand:      c.rng,
		Logger:    c.logger,
		Timings:   c.timings[name],
	}
	return factory(env), nil
}

// Table returns the live table
func (c *Casino) Table() utils.TableGame {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.table
}

// Locks exposes the registry of forfeit items still under lock
func (c *Casino) Locks() *utils.LockedItemRegistry {
	return c.locks
}

// Ledger exposes the player store
func (c *Casino) Ledger() utils.Ledger {
	return c.ledger
}

func (c *Casino) ForfeitMultiplier() int64 {
	return c.multiplier.Load()
}

func (c *Casino) ResetForfeitMultiplier() {
	if c.multiplier.Swap(1) != 1 {
		c.logger.Info("bonus round over")
	}
}

// Handle dispatches one chat line from sender
func (c *Casino) Handle(ctx context.Context, sender utils.Sender, line string) {
	name, args, ok := ParseCommand(line)
	if !ok {
		return
	}
	c.roster.Seen(sender)

	if c.stipendDueFor(sender.ID) {
		result, err := c.claimStipend(ctx, sender)
		if err != nil {
			c.logger.Error("stipend claim failed", "player", sender.ID, "err", err)
		} else if result.Granted {
			c.whisper(ctx, sender, result.Greeting(sender.Name))
		}
	}

	h, ok := c.Commands.Lookup(name)
	if !ok {
		return
	}
	if err := h(ctx, sender, args); err != nil {
		c.replyError(ctx, sender, name, err)
	}
}

func (c *Casino) replyError(ctx context.Context, sender utils.Sender, command string, err error) {
	switch utils.KindOf(err) {
	case utils.KindCheatDetected:
		c.logger.Warn("cheat blocked", "player", sender.ID, "command", command, "err", err)
		return
	case utils.KindInternal:
		c.logger.Error("command failed", "player", sender.ID, "command", command, "err", err)
	default:
		c.logger.Debug("command refused", "player", sender.ID, "command", command, "err", err)
	}
	c.reply(ctx, sender, utils.ReplyText(err))
}

// PlayerEntered greets a member joining the room and pays the daily stipend.
// Members already in the room are paid from Handle once it is due.
func (c *Casino) PlayerEntered(ctx context.Context, sender utils.Sender) error {
	c.roster.Seen(sender)
	result, err := c.claimStipend(ctx, sender)
	if err != nil {
		return err
	}
	c.whisper(ctx, sender, result.Greeting(sender.Name))
	return nil
}

func (c *Casino) stipendDueFor(id int64) bool {
	c.stipendMutex.Lock()
	defer c.stipendMutex.Unlock()
	due, ok := c.stipendDue[id]
	return !ok || !c.clock.Now().Before(due)
}

// claimStipend pays the stipend if it is due and remembers when to try again
func (c *Casino) claimStipend(ctx context.Context, sender utils.Sender) (*utils.StipendResult, error) {
	result, err := c.stipend.Claim(ctx, sender)
	if err != nil {
		return nil, err
	}
	next := c.clock.Now().Add(result.TimeRemaining)
	if result.Granted {
		next = c.clock.Now().Add(c.stipend.Cooldown)
	}
	c.stipendMutex.Lock()
	c.stipendDue[sender.ID] = next
	c.stipendMutex.Unlock()
	return result, nil
}

func (c *Casino) registerCommands() {
	r := c.Commands
	r.Register(string(utils.ActionBet), c.onBet)
	r.Register(string(utils.ActionCancel), c.onCancel)
	r.Register("help", c.onHelp)
	r.Register("forfeits", c.onForfeits)
	r.Register("chips", c.onChips)
	r.Register("give", c.onGive)
	r.Register("score", c.onScore)
	r.Register("scoreboard", c.onScoreboard)
	r.Register("remove", c.onRemove)
	r.Register("checkforfeits", c.onCheckForfeits)
	r.Register("bonus", c.onBonus)
	r.Register("game", c.onGame)
	if _, ok := c.avatar.(*utils.Wardrobe); ok {
		r.Register("consent", c.onConsent)
		r.Register("block", c.onBlock)
		r.Register("unblock", c.onUnblock)
	}
}

// bindTable registers the in-round actions of tables that have them
func (c *Casino) bindTable(table utils.TableGame) {
	actions, ok := table.(utils.PlayActions)
	if !ok {
		return
	}
	c.Commands.Register(string(utils.ActionHit), func(ctx context.Context, s utils.Sender, _ []string) error {
		return actions.Hit(ctx, s)
	})
	c.Commands.Register(string(utils.ActionStand), func(ctx context.Context, s utils.Sender, _ []string) error {
		return actions.Stand(ctx, s)
	})
	c.Commands.Register(string(utils.ActionDouble), func(ctx context.Context, s utils.Sender, _ []string) error {
		return actions.Double(ctx, s)
	})
	c.Commands.Register(string(utils.ActionSplit), func(ctx context.Context, s utils.Sender, _ []string) error {
		return actions.Split(ctx, s)
	})
}

func (c *Casino) unbindTable(table utils.TableGame) {
	if _, ok := table.(utils.PlayActions); !ok {
		return
	}
	for _, a := range []utils.GameAction{utils.ActionHit, utils.ActionStand, utils.ActionDouble, utils.ActionSplit} {
		c.Commands.Unregister(string(a))
	}
}

func (c *Casino) onBet(ctx context.Context, sender utils.Sender, args []string) error {
	return c.Table().PlaceBet(ctx, sender, args)
}

func (c *Casino) onCancel(ctx context.Context, sender utils.Sender, args []string) error {
	if err := c.Table().CancelBet(ctx, sender); err != nil {
		return err
	}
	c.reply(ctx, sender, "Bet cancelled.")
	return nil
}

const casinoHelp = `
Casino commands:
chips - Show your current chip balance.
give <name or member number> <amount> - Give chips to another player.
forfeits - Show the forfeit table.
remove <forfeit> - Pay to be released from a locked forfeit.
checkforfeits - Show your forfeits that are still locked.
score - Show your score.
scoreboard - Show the top players.
help - Show this help.`

func (c *Casino) onHelp(ctx context.Context, sender utils.Sender, args []string) error {
	help := c.Table().Help() + "\n" + casinoHelp
	if _, ok := c.avatar.(*utils.Wardrobe); ok {
		help += "\nconsent <on|off> - Allow or refuse forfeits.\nblock <forfeit> / unblock <forfeit> - Refuse or allow one forfeit's items."
	}
	c.reply(ctx, sender, help)
	return nil
}

func (c *Casino) onForfeits(ctx context.Context, sender utils.Sender, args []string) error {
	text := utils.ForfeitTable(c.catalog, c.ForfeitMultiplier()) + "\n" + utils.RemovalTable(c.catalog)
	c.reply(ctx, sender, text)
	return nil
}

// target resolves the optional player argument of chips and score.
// Looking at anyone else is for admins only.
func (c *Casino) target(sender utils.Sender, args []string, what string) (utils.Sender, bool, error) {
	if len(args) == 0 {
		return sender, true, nil
	}
	if !sender.Admin {
		return utils.Sender{}, false, utils.PermissionDeniedError("Only admins can see other people's %s.", what)
	}
	target, ok := c.roster.Find(strings.Join(args, " "))
	if !ok {
		return utils.Sender{}, false, utils.UserInputError("I can't find that person.")
	}
	return target, target.ID == sender.ID, nil
}

func (c *Casino) onChips(ctx context.Context, sender utils.Sender, args []string) error {
	target, self, err := c.target(sender, args, "balances")
	if err != nil {
		return err
	}
	player, err := c.ledger.GetPlayer(ctx, target.ID)
	if err != nil {
		return utils.InternalError(err, "failed to load player")
	}
	if self {
		c.reply(ctx, sender, fmt.Sprintf("%s, you have %s chips.", sender.Name, utils.FormatNumber(player.Credits)))
	} else {
		c.reply(ctx, sender, fmt.Sprintf("%s has %s chips.", target.Name, utils.FormatNumber(player.Credits)))
	}
	return nil
}

func (c *Casino) onScore(ctx context.Context, sender utils.Sender, args []string) error {
	target, self, err := c.target(sender, args, "scores")
	if err != nil {
		return err
	}
	player, err := c.ledger.GetPlayer(ctx, target.ID)
	if err != nil {
		return utils.InternalError(err, "failed to load player")
	}
	if self {
		c.reply(ctx, sender, fmt.Sprintf("%s, you have a score of %d.", sender.Name, player.Score))
	} else {
		c.reply(ctx, sender, fmt.Sprintf("%s has a score of %d.", target.Name, player.Score))
	}
	return nil
}

func (c *Casino) onGive(ctx context.Context, sender utils.Sender, args []string) error {
	if len(args) < 2 {
		return utils.UserInputError("Usage: give <name or member number> <amount>")
	}
	amount, err := strconv.ParseInt(args[len(args)-1], 10, 64)
	if err != nil || amount < 1 {
		return utils.UserInputError("Invalid amount.")
	}
	target, ok := c.roster.Find(strings.Join(args[:len(args)-1], " "))
	if !ok {
		return utils.UserInputError("I can't find that person.")
	}
	if target.ID == sender.ID {
		return utils.UserInputError("You can't give chips to yourself.")
	}

	if _, err := c.ledger.UpdatePlayer(ctx, sender.ID, models.PlayerUpdate{CreditsIncrement: -amount}); err != nil {
		return ledgerFailure(err)
	}
	if _, err := c.ledger.UpdatePlayer(ctx, target.ID, models.PlayerUpdate{CreditsIncrement: amount}); err != nil {
		if _, rerr := c.ledger.UpdatePlayer(ctx, sender.ID, models.PlayerUpdate{CreditsIncrement: amount}); rerr != nil {
			c.logger.Error("failed to return chips after failed give", "player", sender.ID, "amount", amount, "err", rerr)
		}
		return ledgerFailure(err)
	}
	c.logger.Info("chips given", "from", sender.ID, "to", target.ID, "amount", amount)
	c.broadcast(ctx, fmt.Sprintf("%s gave %d chips to %s", sender.Name, amount, target.Name))
	return nil
}

func (c *Casino) onScoreboard(ctx context.Context, sender utils.Sender, args []string) error {
	players, err := c.ledger.TopPlayers(ctx, utils.ScoreboardSize)
	if err != nil {
		return utils.InternalError(err, "failed to load scoreboard")
	}
	c.reply(ctx, sender, "Scoreboard\n"+utils.ScoreboardText(players))
	return nil
}

func (c *Casino) onRemove(ctx context.Context, sender utils.Sender, args []string) error {
	if len(args) < 1 {
		return utils.UserInputError("Usage: remove <restraint>")
	}
	entry, ok := c.catalog.Lookup(args[0])
	if !ok {
		return utils.UserInputError("Unknown restraint.")
	}
	item, ok := entry.SingleItem()
	if !ok {
		return utils.UserInputError("You can't buy your way out of %s.", entry.Name)
	}
	worn, ok := c.avatar.Worn(ctx, sender.ID, item.Slot)
	if !ok {
		return utils.StateConflictError("It doesn't look like you're wearing %s.", entry.Name)
	}
	if worn.Lock == nil || worn.Lock.Owner != utils.CasinoLockOwner {
		return utils.PermissionDeniedError("You can only buy yourself out of my restraints, not others.")
	}

	cost := entry.Value * utils.RemoveCostFactor
	if _, err := c.ledger.UpdatePlayer(ctx, sender.ID, models.PlayerUpdate{CreditsIncrement: -cost}); err != nil {
		return ledgerFailure(err)
	}
	if err := c.avatar.Remove(ctx, sender.ID, item.Slot); err != nil {
		if _, rerr := c.ledger.UpdatePlayer(ctx, sender.ID, models.PlayerUpdate{CreditsIncrement: cost}); rerr != nil {
			c.logger.Error("failed to refund removal", "player", sender.ID, "cost", cost, "err", rerr)
		}
		return utils.InternalError(err, "failed to remove %s", item.Name)
	}
	c.locks.Unlock(sender.ID, item.Slot)
	c.logger.Info("forfeit bought out", "player", sender.ID, "forfeit", entry.Key, "cost", cost)
	c.broadcast(ctx, fmt.Sprintf("%s paid to remove their %s. Enjoy your freedom, while it lasts.", sender.Name, entry.Name))
	return nil
}

func (c *Casino) onCheckForfeits(ctx context.Context, sender utils.Sender, args []string) error {
	now := c.clock.Now()
	var b strings.Builder
	for _, lock := range c.locks.Active(sender.ID) {
		remaining := utils.FormatDuration(lock.Until.Sub(now))
		if worn, ok := c.avatar.Worn(ctx, sender.ID, lock.Slot); ok {
			fmt.Fprintf(&b, "%s (%s): %s remaining\n", worn.Name, lock.Slot, remaining)
		} else {
			fmt.Fprintf(&b, "%s (no item found): %s remaining\n", lock.Slot, remaining)
		}
	}
	if b.Len() == 0 {
		c.reply(ctx, sender, "You have no active forfeits.")
		return nil
	}
	c.reply(ctx, sender, strings.TrimRight(b.String(), "\n"))
	return nil
}

func (c *Casino) onBonus(ctx context.Context, sender utils.Sender, args []string) error {
	if !sender.Admin {
		return utils.PermissionDeniedError("Sorry, you need to be an admin")
	}
	if len(c.Table().DescribeRound().Bets) > 0 {
		return utils.StateConflictError("There are already bets placed.")
	}
	multiplier := c.defaultBonus
	if len(args) > 0 {
		m, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || m < 1 {
			return utils.UserInputError("Invalid multiplier.")
		}
		if m > utils.MaxBonus {
			return utils.UserInputError("The multiplier can be at most %d.", utils.MaxBonus)
		}
		multiplier = m
	}
	c.multiplier.Store(multiplier)
	c.logger.Info("bonus round", "admin", sender.ID, "multiplier", multiplier)
	c.broadcast(ctx, fmt.Sprintf("⭐️⭐️⭐️ Bonus round! ⭐️⭐️⭐️ All forfeit bets are worth %dx their normal value!", multiplier))
	return nil
}

func (c *Casino) onGame(ctx context.Context, sender utils.Sender, args []string) error {
	if !sender.Admin {
		return utils.PermissionDeniedError("Sorry, you need to be an admin")
	}
	if len(args) < 1 {
		return utils.UserInputError("Usage: game <roulette|blackjack>")
	}
	name := strings.ToLower(args[0])
	if _, ok := c.factories[name]; !ok {
		return utils.UserInputError("Unknown game: %s", name)
	}

	old, err := c.beginSwitch(name)
	if err != nil {
		return err
	}
	c.broadcast(ctx, fmt.Sprintf("After this round the game will switch to %s.", name))

	c.switches.Add(1)
	go func() {
		defer c.switches.Done()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), switchTimeout)
		defer cancel()
		if err := c.finishSwitch(sctx, old, name); err != nil {
			c.logger.Error("game switch failed", "to", name, "err", err)
			c.reply(sctx, sender, utils.ReplyText(err))
			return
		}
		c.reply(sctx, sender, fmt.Sprintf("Switched to %s.", name))
	}()
	return nil
}

// SwitchGame closes the live table, waits for its round to finish and
// opens a table of the named variant in its place.
func (c *Casino) SwitchGame(ctx context.Context, name string) error {
	old, err := c.beginSwitch(name)
	if err != nil {
		return err
	}
	return c.finishSwitch(ctx, old, name)
}

func (c *Casino) beginSwitch(name string) (utils.TableGame, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.switching {
		return nil, utils.StateConflictError("A game switch is already in progress.")
	}
	if c.table.Name() == name {
		return nil, utils.StateConflictError("We're already playing %s.", name)
	}
	if _, ok := c.factories[name]; !ok {
		return nil, utils.UserInputError("Unknown game: %s", name)
	}
	c.switching = true
	return c.table, nil
}

func (c *Casino) finishSwitch(ctx context.Context, old utils.TableGame, name string) error {
	defer func() {
		c.mutex.Lock()
		c.switching = false
		c.mutex.Unlock()
	}()

	c.logger.Info("switching game", "from", old.Name(), "to", name)
	if err := old.Close(ctx); err != nil {
		return utils.InternalError(err, "table %s did not go idle", old.Name())
	}

	table, err := c.newTable(name)
	if err != nil {
		return err
	}

	c.mutex.Lock()
	c.unbindTable(old)
	c.table = table
	c.bindTable(table)
	c.mutex.Unlock()

	c.logger.Info("game switched", "game", name)
	c.broadcast(ctx, fmt.Sprintf("The game has switched to %s, please place your bets!", name))
	return nil
}

// Wait blocks until background game switches have finished
func (c *Casino) Wait() {
	c.switches.Wait()
}

func (c *Casino) onConsent(ctx context.Context, sender utils.Sender, args []string) error {
	w := c.avatar.(*utils.Wardrobe)
	if len(args) != 1 {
		return utils.UserInputError("Usage: consent <on|off>")
	}
	switch strings.ToLower(args[0]) {
	case "on", "yes":
		w.SetConsent(sender.ID, true)
		c.reply(ctx, sender, "You can now bet forfeits.")
	case "off", "no":
		w.SetConsent(sender.ID, false)
		c.reply(ctx, sender, "You will no longer receive forfeits.")
	default:
		return utils.UserInputError("Usage: consent <on|off>")
	}
	return nil
}

func (c *Casino) onBlock(ctx context.Context, sender utils.Sender, args []string) error {
	return c.setBlocked(ctx, sender, args, true)
}

func (c *Casino) onUnblock(ctx context.Context, sender utils.Sender, args []string) error {
	return c.setBlocked(ctx, sender, args, false)
}

// setBlocked toggles the permission block on every item a forfeit needs
func (c *Casino) setBlocked(ctx context.Context, sender utils.Sender, args []string, blocked bool) error {
	w := c.avatar.(*utils.Wardrobe)
	if len(args) != 1 {
		return utils.UserInputError("Usage: block <forfeit>")
	}
	entry, ok := c.catalog.Lookup(args[0])
	if !ok {
		return utils.UserInputError("Unknown forfeit.")
	}
	names := make([]string, 0, len(entry.Items)+1)
	for _, item := range entry.RequiredItems() {
		w.SetSlotBlocked(sender.ID, item.Slot, blocked)
		names = append(names, item.Name)
	}
	verb := "Blocked"
	if !blocked {
		verb = "Unblocked"
	}
	c.reply(ctx, sender, fmt.Sprintf("%s: %s.", verb, strings.Join(names, ", ")))
	return nil
}

func (c *Casino) reply(ctx context.Context, to utils.Sender, text string) {
	if err := c.messenger.Reply(ctx, to, text); err != nil {
		c.logger.Warn("reply failed", "player", to.ID, "err", err)
	}
}

func (c *Casino) whisper(ctx context.Context, to utils.Sender, text string) {
	if err := c.messenger.Whisper(ctx, to, text); err != nil {
		c.logger.Warn("whisper failed", "player", to.ID, "err", err)
	}
}

func (c *Casino) broadcast(ctx context.Context, text string) {
	if err := c.messenger.Broadcast(ctx, text); err != nil {
		c.logger.Warn("broadcast failed", "err", err)
	}
}

// ledgerFailure passes taxonomy errors through and hides the rest
func ledgerFailure(err error) error {
	var ce *utils.CasinoError
	if errors.As(err, &ce) {
		return err
	}
	return utils.InternalError(err, "ledger unavailable")
}
