package cogs

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"ccasino/utils"
)

// discordSendsPerSecond stays under the per-channel message limit
const discordSendsPerSecond = 5

// Discord connects the casino to one Discord channel. Commands are
// messages in that channel starting with the prefix.
type Discord struct {
	session   *discordgo.Session
	channelID string
	prefix    string
	admins    map[int64]bool
	clock     quartz.Clock
	limiter   *utils.RateLimiter
	logger    *log.Logger
}

var _ utils.Messenger = (*Discord)(nil)

// NewDiscord creates the session without connecting
func NewDiscord(cfg utils.DiscordSettings, admins []int64, clock quartz.Clock, logger *log.Logger) (*Discord, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN not set")
	}
	if cfg.ChannelID == "" {
		return nil, fmt.Errorf("discord channel_id not set")
	}
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent

	d := &Discord{
		session:   session,
		channelID: cfg.ChannelID,
		prefix:    cfg.Prefix,
		admins:    make(map[int64]bool, len(admins)),
		clock:     clock,
		limiter:   utils.NewRateLimiter(clock, discordSendsPerSecond, time.Second),
		logger:    logger.WithPrefix("discord"),
	}
	for _, id := range admins {
		d.admins[id] = true
	}
	return d, nil
}

func (d *Discord) Reply(ctx context.Context, to utils.Sender, text string) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := d.session.ChannelMessageSend(d.channelID, fmt.Sprintf("<@%d> %s", to.ID, text),
		discordgo.WithContext(ctx))
	return err
}

func (d *Discord) Whisper(ctx context.Context, to utils.Sender, text string) error {
	channel, err := d.session.UserChannelCreate(strconv.FormatInt(to.ID, 10), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to open DM with %d: %w", to.ID, err)
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err = d.session.ChannelMessageSend(channel.ID, text, discordgo.WithContext(ctx))
	return err
}

func (d *Discord) Broadcast(ctx context.Context, text string) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	if !strings.Contains(text, "\n") {
		_, err := d.session.ChannelMessageSend(d.channelID, text, discordgo.WithContext(ctx))
		return err
	}
	title, body, _ := strings.Cut(text, "\n")
	embed := utils.CreateBrandedEmbed(title, body, utils.BotColor, d.clock.Now())
	_, err := d.session.ChannelMessageSendEmbed(d.channelID, embed, discordgo.WithContext(ctx))
	return err
}

func (d *Discord) sender(user *discordgo.User) (utils.Sender, bool) {
	id, err := strconv.ParseInt(user.ID, 10, 64)
	if err != nil {
		d.logger.Warn("unparseable user id", "id", user.ID)
		return utils.Sender{}, false
	}
	name := user.GlobalName
	if name == "" {
		name = user.Username
	}
	return utils.Sender{ID: id, Name: name, Admin: d.admins[id]}, true
}

// Run connects, serves the channel until ctx is done and disconnects
func (d *Discord) Run(ctx context.Context, casino *Casino) error {
	d.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		d.logger.Info("logged in", "user", r.User.Username, "id", r.User.ID)
		if err := s.UpdateGameStatus(0, "Casino: "+casino.Table().Name()); err != nil {
			d.logger.Warn("failed to update status", "err", err)
		}
	})

	d.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot || m.ChannelID != d.channelID {
			return
		}
		line, ok := strings.CutPrefix(m.Content, d.prefix)
		if !ok {
			return
		}
		sender, ok := d.sender(m.Author)
		if !ok {
			return
		}
		casino.Handle(ctx, sender, line)
	})

	d.session.AddHandler(func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
		if m.User == nil || m.User.Bot {
			return
		}
		sender, ok := d.sender(m.User)
		if !ok {
			return
		}
		if err := casino.PlayerEntered(ctx, sender); err != nil {
			d.logger.Error("failed to greet member", "player", sender.ID, "err", err)
		}
	})

	if err := d.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}
	d.logger.Info("connected", "channel", d.channelID)

	<-ctx.Done()
	d.logger.Info("disconnecting")
	return d.session.Close()
}
