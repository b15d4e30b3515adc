package middleware

import (
	"context"
	"errors"

	"github.com/afk-bro/discord-bot/internal/interface/discord/handler"
)

var (
	// ErrPanic wraps a recovered handler panic.
	ErrPanic = errors.New("command panicked")
)

// AdminOnly answers with denied unless the caller is an administrator.
func AdminOnly(denied string) Middleware {
	return func(next handler.Func) handler.Func {
		return func(ctx context.Context, c *handler.Context) (*handler.Response, error) {
			if !c.IsAdmin {
				return handler.Ephemeral(denied), nil
			}
			return next(ctx, c)
		}
	}
}

// Owners marks configured bot owners as administrators everywhere.
func Owners(ids []string) Middleware {
	owners := make(map[string]bool, len(ids))
	for _, id := range ids {
		owners[id] = true
	}
	return func(next handler.Func) handler.Func {
		return func(ctx context.Context, c *handler.Context) (*handler.Response, error) {
			if owners[c.UserID] {
				c.IsAdmin = true
			}
			return next(ctx, c)
		}
	}
}

// FeatureChecker reports per-guild feature flags.
type FeatureChecker interface {
	IsEnabled(featureName, guildID string) bool
}

// RequireFeature silently ignores the command when the feature is off for the
// guild.
func RequireFeature(features FeatureChecker, feature string) Middleware {
	return func(next handler.Func) handler.Func {
		return func(ctx context.Context, c *handler.Context) (*handler.Response, error) {
			if features != nil && !features.IsEnabled(feature, c.GuildID) {
				return nil, nil
			}
			return next(ctx, c)
		}
	}
}
