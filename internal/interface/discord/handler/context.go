// Package handler contains the bot's chat command handlers. Each handler works
// on a Context that the router builds from either a prefix message or a slash
// command interaction, so one implementation serves both entry points.
package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST / RESPONSE
// ══════════════════════════════════════════════════════════════════════════════

// Context describes one command invocation.
type Context struct {
	GuildID   string
	GuildName string
	ChannelID string
	MessageID string

	UserID   string
	Username string

	// IsAdmin is true for guild administrators and configured bot owners.
	IsAdmin bool

	// Prefix is the guild prefix in effect, used in usage hints.
	Prefix string

	// Command is the canonical command name.
	Command string

	// Args are the whitespace-separated words after a prefix command.
	Args []string

	// Mentions are the user ids mentioned in a prefix message.
	Mentions []string

	// Options are slash command options by name. Nil for prefix commands.
	Options map[string]interface{}
}

// Slash reports whether the invocation came from a slash command.
func (c *Context) Slash() bool {
	return c.Options != nil
}

// InGuild reports whether the command was sent inside a server.
func (c *Context) InGuild() bool {
	return c.GuildID != ""
}

// Text returns a free-text argument: the named option, or every prefix word.
func (c *Context) Text(name string) string {
	if c.Slash() {
		s, _ := c.Options[name].(string)
		return strings.TrimSpace(s)
	}
	return strings.Join(c.Args, " ")
}

// Word returns the positional prefix argument or the named option as a string.
func (c *Context) Word(name string, pos int) string {
	if c.Slash() {
		s, _ := c.Options[name].(string)
		return s
	}
	if pos < len(c.Args) {
		return c.Args[pos]
	}
	return ""
}

// Int returns an integer argument. ok is false when it is absent or malformed.
func (c *Context) Int(name string, pos int) (int, bool) {
	if c.Slash() {
		switch v := c.Options[name].(type) {
		case int64:
			return int(v), true
		case float64:
			return int(v), true
		}
		return 0, false
	}
	if pos >= len(c.Args) {
		return 0, false
	}
	n, err := strconv.Atoi(c.Args[pos])
	return n, err == nil
}

// Float returns a numeric argument.
func (c *Context) Float(name string, pos int) (float64, bool) {
	if c.Slash() {
		switch v := c.Options[name].(type) {
		case float64:
			return v, true
		case int64:
			return float64(v), true
		}
		return 0, false
	}
	if pos >= len(c.Args) {
		return 0, false
	}
	f, err := strconv.ParseFloat(c.Args[pos], 64)
	return f, err == nil
}

// Flag returns a boolean option, or whether keyword appears among the prefix
// words.
func (c *Context) Flag(name, keyword string) bool {
	if c.Slash() {
		b, _ := c.Options[name].(bool)
		return b
	}
	for _, a := range c.Args {
		if strings.EqualFold(a, keyword) {
			return true
		}
	}
	return false
}

// TargetUser returns the user the command is about: the named user option or
// the first mention, falling back to the caller.
func (c *Context) TargetUser(name string) string {
	if c.Slash() {
		if id, ok := c.Options[name].(string); ok && id != "" {
			return id
		}
		return c.UserID
	}
	if len(c.Mentions) > 0 {
		return c.Mentions[0]
	}
	return c.UserID
}

// Response is what the router sends back.
type Response struct {
	Content string
	Embed   *discordgo.MessageEmbed

	// Ephemeral hides a slash reply from everyone but the caller.
	Ephemeral bool
}

// Text creates a plain text response.
func Text(content string) *Response {
	return &Response{Content: content}
}

// Ephemeral creates a text response visible only to the caller on slash commands.
func Ephemeral(content string) *Response {
	return &Response{Content: content, Ephemeral: true}
}

// Embed creates an embed response.
func Embed(embed *discordgo.MessageEmbed) *Response {
	return &Response{Embed: embed}
}

// Func handles one command.
type Func func(ctx context.Context, c *Context) (*Response, error)

// RandomSource is the random source used by fun commands.
type RandomSource interface {
	IntN(n int) int
}
