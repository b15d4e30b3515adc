// Package middleware contains command middlewares: panic recovery, per-user
// rate limiting and administrator checks.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/afk-bro/discord-bot/internal/interface/discord/handler"
)

// Middleware wraps a command handler.
type Middleware func(handler.Func) handler.Func

// Chain applies middlewares so that the first one runs outermost.
func Chain(h handler.Func, mws ...Middleware) handler.Func {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// ══════════════════════════════════════════════════════════════════════════════
// RECOVERY
// ══════════════════════════════════════════════════════════════════════════════

// Recovery turns a handler panic into an error so the router answers with the
// generic failure message instead of killing the gateway goroutine.
func Recovery(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next handler.Func) handler.Func {
		return func(ctx context.Context, c *handler.Context) (resp *handler.Response, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("command panic recovered",
						"command", c.Command,
						"user_id", c.UserID,
						"guild_id", c.GuildID,
						"panic", r,
						"stack", string(debug.Stack()),
					)
					resp, err = nil, fmt.Errorf("%w: %v", ErrPanic, r)
				}
			}()
			return next(ctx, c)
		}
	}
}
