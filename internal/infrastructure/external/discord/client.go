// Package discord wraps the discordgo session with retries and a circuit
// breaker for the REST calls the bot makes outside of a direct reply: level-up
// announcements, milestone role grants and slash command registration.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/afk-bro/discord-bot/pkg/circuitbreaker"
	"github.com/afk-bro/discord-bot/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// RESTSession is the subset of *discordgo.Session the client calls.
type RESTSession interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	ApplicationCommandBulkOverwrite(appID, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// Client sends messages and manages roles through the Discord REST API.
type Client struct {
	session RESTSession
	retrier *retry.Retrier
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewClient creates a client over an open or closed discordgo session. REST
// calls do not need the gateway connection.
func NewClient(session RESTSession, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "discord_client")

	return &Client{
		session: session,
		retrier: retry.DiscordRetrier(retry.WithRetryIf(IsTransient)),
		breaker: circuitbreaker.DiscordAPIBreaker(IsTransient, func(name string, from, to circuitbreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		}),
		logger: logger,
	}
}

// NewSession creates a discordgo session with the intents the bot needs.
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMessages |
		discordgo.IntentMessageContent
	return session, nil
}

// SendMessage posts a message to a channel.
func (c *Client) SendMessage(ctx context.Context, channelID string, msg *discordgo.MessageSend) error {
	return c.call(ctx, "send_message", func(ctx context.Context) error {
		_, err := c.session.ChannelMessageSendComplex(channelID, msg, discordgo.WithContext(ctx))
		return err
	})
}

// GrantRole adds a role to a guild member.
func (c *Client) GrantRole(ctx context.Context, guildID, userID, roleID string) error {
	return c.call(ctx, "grant_role", func(ctx context.Context) error {
		return c.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx))
	})
}

// RegisterCommands replaces the application's command set. An empty guildID
// registers the commands globally.
func (c *Client) RegisterCommands(ctx context.Context, appID, guildID string, commands []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error) {
	var registered []*discordgo.ApplicationCommand
	err := c.call(ctx, "register_commands", func(ctx context.Context) error {
		var err error
		registered, err = c.session.ApplicationCommandBulkOverwrite(appID, guildID, commands, discordgo.WithContext(ctx))
		return err
	})
	return registered, err
}

// BreakerState exposes the breaker state for readiness checks.
func (c *Client) BreakerState() circuitbreaker.State {
	return c.breaker.State()
}

func (c *Client) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, fn)
	})
	if err != nil {
		c.logger.Debug("discord call failed", "op", op, "error", err)
		return fmt.Errorf("discord %s: %w", op, err)
	}
	return nil
}

// IsTransient reports whether a Discord error is worth retrying: rate limits,
// server errors and network failures. Client errors (missing permissions,
// unknown channel) are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		code := restErr.Response.StatusCode
		return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
