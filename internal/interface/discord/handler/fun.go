package handler

import (
	"context"
	"fmt"

	"github.com/afk-bro/discord-bot/internal/domain/progression"
)

// ══════════════════════════════════════════════════════════════════════════════
// FUN COMMANDS
// ping, hello, 8ball, joke, quote, coinflip, dice.
// ══════════════════════════════════════════════════════════════════════════════

const (
	defaultDiceSides = 6
	minDiceSides     = 2
	maxDiceSides     = 100
)

var eightBallAnswers = []string{
	"🎱 It is certain.",
	"🎱 Without a doubt.",
	"🎱 Yes, definitely.",
	"🎱 You may rely on it.",
	"🎱 As I see it, yes.",
	"🎱 Most likely.",
	"🎱 Outlook good.",
	"🎱 Yes.",
	"🎱 Signs point to yes.",
	"🎱 Reply hazy, try again.",
	"🎱 Ask again later.",
	"🎱 Better not tell you now.",
	"🎱 Cannot predict now.",
	"🎱 Concentrate and ask again.",
	"🎱 Don't count on it.",
	"🎱 My reply is no.",
	"🎱 My sources say no.",
	"🎱 Outlook not so good.",
	"🎱 Very doubtful.",
}

var jokes = []string{
	"Why do programmers prefer dark mode? Because light attracts bugs! 🐛",
	"Why did the developer go broke? Because he used up all his cache! 💰",
	"How many programmers does it take to change a light bulb? None, that's a hardware problem! 💡",
	"Why do Java developers wear glasses? Because they don't C#! 👓",
	"What's a programmer's favorite hangout place? Foo Bar! 🍺",
	"Why did the function break up with the variable? Because it had too many arguments! 💔",
	"What do you call a programmer from Finland? Nerdic! 🇫🇮",
	"Why did the programmer quit his job? Because he didn't get arrays! 📊",
}

var quotes = []string{
	`"The only way to do great work is to love what you do." - Steve Jobs`,
	`"Code is like humor. When you have to explain it, it's bad." - Cory House`,
	`"First, solve the problem. Then, write the code." - John Johnson`,
	`"Experience is the name everyone gives to their mistakes." - Oscar Wilde`,
	`"In order to be irreplaceable, one must always be different." - Coco Chanel`,
	`"Java is to JavaScript what car is to Carpet." - Chris Heilmann`,
	`"Knowledge is power." - Francis Bacon`,
	`"Sometimes it pays to stay in bed on Monday, rather than spending the rest of the week debugging Monday's code." - Dan Salomon`,
	`"Perfection is achieved not when there is nothing more to add, but rather when there is nothing more to take away." - Antoine de Saint-Exupery`,
	`"Talk is cheap. Show me the code." - Linus Torvalds`,
}

// FunHandler answers the fun commands.
type FunHandler struct {
	random RandomSource
}

// NewFunHandler creates a FunHandler. A nil random uses the shared source.
func NewFunHandler(random RandomSource) *FunHandler {
	if random == nil {
		random = progression.SystemRandom{}
	}
	return &FunHandler{random: random}
}

// Ping handles "ping".
func (h *FunHandler) Ping(ctx context.Context, c *Context) (*Response, error) {
	return Text("Pong! 🏓"), nil
}

// Hello handles "/hello".
func (h *FunHandler) Hello(ctx context.Context, c *Context) (*Response, error) {
	return Text("Hey there! 👋"), nil
}

// EightBall handles "8ball <question>".
func (h *FunHandler) EightBall(ctx context.Context, c *Context) (*Response, error) {
	question := c.Text("question")
	if question == "" {
		return Text(fmt.Sprintf("❓ Please ask a question! Usage: %s8ball <question>", c.Prefix)), nil
	}
	answer := eightBallAnswers[h.random.IntN(len(eightBallAnswers))]
	return Text(fmt.Sprintf("**Question:** %s\n%s", question, answer)), nil
}

// Joke handles "joke".
func (h *FunHandler) Joke(ctx context.Context, c *Context) (*Response, error) {
	return Text(jokes[h.random.IntN(len(jokes))]), nil
}

// Quote handles "quote".
func (h *FunHandler) Quote(ctx context.Context, c *Context) (*Response, error) {
	return Text("💭 " + quotes[h.random.IntN(len(quotes))]), nil
}

// CoinFlip handles "coinflip" and "flip".
func (h *FunHandler) CoinFlip(ctx context.Context, c *Context) (*Response, error) {
	side := "Heads"
	if h.random.IntN(2) == 1 {
		side = "Tails"
	}
	return Text(fmt.Sprintf("🪙 The coin landed on: **%s**!", side)), nil
}

// Dice handles "dice [sides]" and "roll [sides]". Missing or non-numeric
// sides default to 6.
func (h *FunHandler) Dice(ctx context.Context, c *Context) (*Response, error) {
	sides, ok := c.Int("sides", 0)
	if !ok || sides == 0 {
		sides = defaultDiceSides
	}
	if sides < minDiceSides || sides > maxDiceSides {
		return Text("🎲 Please specify a number between 2 and 100!"), nil
	}
	roll := h.random.IntN(sides) + 1
	return Text(fmt.Sprintf("🎲 You rolled a **%d** (1-%d)", roll, sides)), nil
}
