package discord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/afk-bro/discord-bot/config"
	"github.com/afk-bro/discord-bot/internal/application/command"
	"github.com/afk-bro/discord-bot/internal/domain/progression"
	"github.com/afk-bro/discord-bot/internal/interface/discord/handler"
	"github.com/afk-bro/discord-bot/internal/interface/discord/middleware"
	"github.com/afk-bro/discord-bot/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// BOT
// ══════════════════════════════════════════════════════════════════════════════

// API is the subset of *discordgo.Session used to answer events.
type API interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	UserChannelPermissions(userID, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error)
}

// SettingsStore provides guild settings to the bot.
type SettingsStore interface {
	Prefix(ctx context.Context, guildID string) string
	Remove(ctx context.Context, guildID string) error
}

// XPAwarder awards chat XP.
type XPAwarder interface {
	Handle(ctx context.Context, cmd command.AwardXPCommand) (*progression.AwardResult, error)
}

// LongMessageRule decides whether a message earns the long message bonus.
type LongMessageRule interface {
	IsLongMessage(content string) bool
}

// BotConfig holds bot behaviour settings.
type BotConfig struct {
	IgnoreBots            bool
	ActivityName          string
	DefaultPrefix         string
	RemoveSettingsOnLeave bool

	// EventTimeout bounds the work done for one gateway event.
	EventTimeout time.Duration

	// NotFound answers slash commands the router does not know.
	NotFound string

	// Disabled answers slash commands switched off by a feature flag.
	Disabled string
}

// BotDeps groups the bot dependencies.
type BotDeps struct {
	Session  *discordgo.Session
	Router   *Router
	Settings SettingsStore
	Awarder  XPAwarder
	Rules    LongMessageRule
	Features middleware.FeatureChecker
	Logger   *logger.Logger
	Config   BotConfig
}

// Bot connects the gateway to the router and the XP engine.
type Bot struct {
	session  *discordgo.Session
	router   *Router
	settings SettingsStore
	awarder  XPAwarder
	rules    LongMessageRule
	features middleware.FeatureChecker
	logger   *logger.Logger
	config   BotConfig

	guildsMu   sync.RWMutex
	guildNames map[string]string

	removeHandlers []func()
}

// NewBot creates a bot. Call Start to connect.
func NewBot(deps BotDeps) *Bot {
	if deps.Logger == nil {
		deps.Logger = logger.FromSlog(nil)
	}
	if deps.Config.DefaultPrefix == "" {
		deps.Config.DefaultPrefix = "!"
	}
	if deps.Config.EventTimeout <= 0 {
		deps.Config.EventTimeout = 20 * time.Second
	}
	if deps.Config.NotFound == "" {
		deps.Config.NotFound = "❓ Command not found."
	}
	if deps.Config.Disabled == "" {
		deps.Config.Disabled = "This command is disabled on this server."
	}
	return &Bot{
		session:  deps.Session,
		router:   deps.Router,
		settings: deps.Settings,
		awarder:  deps.Awarder,
		rules:    deps.Rules,
		features: deps.Features,
		logger:     deps.Logger.Component("discord_bot"),
		config:     deps.Config,
		guildNames: make(map[string]string),
	}
}

// Start registers event handlers and opens the gateway connection.
func (b *Bot) Start() error {
	b.removeHandlers = append(b.removeHandlers,
		b.session.AddHandler(b.onReady),
		b.session.AddHandler(b.onGuildCreate),
		b.session.AddHandler(b.onGuildDelete),
		b.session.AddHandler(b.onMessageCreate),
		b.session.AddHandler(b.onInteractionCreate),
	)
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	return nil
}

// Stop closes the gateway connection.
func (b *Bot) Stop() error {
	for _, remove := range b.removeHandlers {
		remove()
	}
	b.removeHandlers = nil
	return b.session.Close()
}

// ══════════════════════════════════════════════════════════════════════════════
// GATEWAY EVENTS
// ══════════════════════════════════════════════════════════════════════════════

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.BotReady(r.User.String(), len(r.Guilds))
	if b.config.ActivityName != "" {
		if err := s.UpdateGameStatus(0, b.config.ActivityName); err != nil {
			b.logger.Warn("failed to set presence", "error", err)
		}
	}
}

func (b *Bot) onGuildCreate(_ *discordgo.Session, g *discordgo.GuildCreate) {
	b.GuildJoined(g.Guild)
}

func (b *Bot) onGuildDelete(_ *discordgo.Session, g *discordgo.GuildDelete) {
	b.GuildLeft(g.Guild)
}

// GuildJoined records the guild name used in command logs.
func (b *Bot) GuildJoined(g *discordgo.Guild) {
	b.guildsMu.Lock()
	b.guildNames[g.ID] = g.Name
	b.guildsMu.Unlock()
	b.logger.GuildJoin(g.Name, g.ID, g.MemberCount)
}

// GuildLeft forgets the guild and, when configured, removes its settings.
// Outages (Unavailable) keep both.
func (b *Bot) GuildLeft(g *discordgo.Guild) {
	if g.Unavailable {
		b.logger.Warn("guild unavailable", "guild_id", g.ID)
		return
	}
	name := b.guildName(g.ID)
	b.guildsMu.Lock()
	delete(b.guildNames, g.ID)
	b.guildsMu.Unlock()
	b.logger.GuildLeave(name, g.ID)

	if !b.config.RemoveSettingsOnLeave {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), b.config.EventTimeout)
	defer cancel()
	if err := b.settings.Remove(ctx, g.ID); err != nil {
		b.logger.Error("failed to remove guild settings", "guild_id", g.ID, "error", err)
	}
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), b.config.EventTimeout)
	defer cancel()
	b.HandleMessage(ctx, s, m.Message)
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), b.config.EventTimeout)
	defer cancel()
	b.HandleInteraction(ctx, s, i.Interaction)
}

// ══════════════════════════════════════════════════════════════════════════════
// MESSAGES
// ══════════════════════════════════════════════════════════════════════════════

// HandleMessage runs a prefix command, or awards XP for a plain guild message.
func (b *Bot) HandleMessage(ctx context.Context, api API, m *discordgo.Message) {
	if m.Author == nil || (m.Author.Bot && b.config.IgnoreBots) {
		return
	}

	prefix := b.config.DefaultPrefix
	if m.GuildID != "" {
		prefix = b.settings.Prefix(ctx, m.GuildID)
	}

	if name, args, ok := ParsePrefixCommand(m.Content, prefix); ok {
		if _, known := b.router.Resolve(name); known {
			c := &handler.Context{
				GuildID:   m.GuildID,
				GuildName: b.guildName(m.GuildID),
				ChannelID: m.ChannelID,
				MessageID: m.ID,
				UserID:    m.Author.ID,
				Username:  m.Author.Username,
				IsAdmin:   b.isAdmin(api, m),
				Prefix:    prefix,
				Command:   name,
				Args:      args,
				Mentions:  mentionIDs(m.Mentions),
			}
			resp, _ := b.router.Dispatch(ctx, c)
			b.reply(api, m, resp)
			return
		}
	}

	b.awardXP(ctx, m)
}

func (b *Bot) awardXP(ctx context.Context, m *discordgo.Message) {
	if m.GuildID == "" || m.Author.Bot || b.awarder == nil {
		return
	}
	if b.features != nil && !b.features.IsEnabled(config.FeatureLevelingXP, m.GuildID) {
		return
	}

	cmd := command.AwardXPCommand{
		UserID:        m.Author.ID,
		GuildID:       m.GuildID,
		ChannelID:     m.ChannelID,
		HasMedia:      len(m.Attachments) > 0,
		IsLongMessage: b.rules != nil && b.rules.IsLongMessage(m.Content),
		CorrelationID: m.ID,
	}
	if _, err := b.awarder.Handle(ctx, cmd); err != nil {
		b.logger.Error("failed to award xp",
			"guild_id", m.GuildID,
			"user_id", m.Author.ID,
			"error", err,
		)
	}
}

func (b *Bot) isAdmin(api API, m *discordgo.Message) bool {
	if m.GuildID == "" {
		return false
	}
	perms, err := api.UserChannelPermissions(m.Author.ID, m.ChannelID)
	if err != nil {
		b.logger.Warn("failed to resolve permissions", "user_id", m.Author.ID, "error", err)
		return false
	}
	return perms&discordgo.PermissionAdministrator != 0
}

func (b *Bot) reply(api API, m *discordgo.Message, resp *handler.Response) {
	if resp == nil {
		return
	}
	msg := &discordgo.MessageSend{
		Content:         resp.Content,
		Reference:       m.Reference(),
		AllowedMentions: &discordgo.MessageAllowedMentions{RepliedUser: true},
	}
	if resp.Embed != nil {
		msg.Embeds = []*discordgo.MessageEmbed{resp.Embed}
	}
	if _, err := api.ChannelMessageSendComplex(m.ChannelID, msg); err != nil {
		b.logger.Error("failed to send reply", "channel_id", m.ChannelID, "error", err)
	}
}

func (b *Bot) guildName(guildID string) string {
	if guildID == "" {
		return ""
	}
	b.guildsMu.RLock()
	defer b.guildsMu.RUnlock()
	return b.guildNames[guildID]
}

func mentionIDs(users []*discordgo.User) []string {
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

// ══════════════════════════════════════════════════════════════════════════════
// INTERACTIONS
// ══════════════════════════════════════════════════════════════════════════════

// HandleInteraction runs a slash command.
func (b *Bot) HandleInteraction(ctx context.Context, api API, i *discordgo.Interaction) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	c := interactionContext(i)
	if c.UserID == "" {
		return
	}
	c.GuildName = b.guildName(c.GuildID)
	if c.GuildID != "" {
		c.Prefix = b.settings.Prefix(ctx, c.GuildID)
	} else {
		c.Prefix = b.config.DefaultPrefix
	}

	resp, ok := b.router.Dispatch(ctx, c)
	if !ok {
		resp = handler.Ephemeral(b.config.NotFound)
	}
	if resp == nil {
		resp = handler.Ephemeral(b.config.Disabled)
	}

	data := &discordgo.InteractionResponseData{Content: resp.Content}
	if resp.Embed != nil {
		data.Embeds = []*discordgo.MessageEmbed{resp.Embed}
	}
	if resp.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := api.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		b.logger.Error("failed to respond to interaction", "command", c.Command, "error", err)
	}
}

// interactionContext flattens a slash command interaction into a Context.
func interactionContext(i *discordgo.Interaction) *handler.Context {
	data := i.ApplicationCommandData()
	c := &handler.Context{
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		Command:   data.Name,
		Options:   make(map[string]interface{}, len(data.Options)),
	}

	switch {
	case i.Member != nil && i.Member.User != nil:
		c.UserID = i.Member.User.ID
		c.Username = i.Member.User.Username
		c.IsAdmin = i.Member.Permissions&discordgo.PermissionAdministrator != 0
	case i.User != nil:
		c.UserID = i.User.ID
		c.Username = i.User.Username
	}

	for _, opt := range data.Options {
		switch opt.Type {
		case discordgo.ApplicationCommandOptionString:
			c.Options[opt.Name] = opt.StringValue()
		case discordgo.ApplicationCommandOptionInteger:
			c.Options[opt.Name] = opt.IntValue()
		case discordgo.ApplicationCommandOptionNumber:
			c.Options[opt.Name] = opt.FloatValue()
		case discordgo.ApplicationCommandOptionBoolean:
			c.Options[opt.Name] = opt.BoolValue()
		case discordgo.ApplicationCommandOptionUser:
			if id, ok := opt.Value.(string); ok {
				c.Options[opt.Name] = id
			}
		}
	}
	return c
}
