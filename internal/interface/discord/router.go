// Package discord is the bot's Discord interface: gateway event wiring, the
// command router shared by prefix and slash commands, and the slash command
// definitions.
package discord

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/afk-bro/discord-bot/internal/interface/discord/handler"
	"github.com/afk-bro/discord-bot/internal/interface/discord/middleware"
	"github.com/afk-bro/discord-bot/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROUTES
// ══════════════════════════════════════════════════════════════════════════════

// Route describes one command.
type Route struct {
	// Name is the canonical command name, also the slash command name.
	Name string

	// Aliases are extra prefix command names.
	Aliases []string

	Handler handler.Func

	// AdminOnly requires administrator permission or bot ownership.
	AdminOnly bool

	// Feature, when set, is the feature flag gating the command.
	Feature string
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	Logger *logger.Logger

	// Features gates routes that name a feature. Nil enables everything.
	Features middleware.FeatureChecker

	// RateLimiter limits commands per user. Nil disables rate limiting.
	RateLimiter *middleware.RateLimiter

	OwnerIDs []string

	// GenericError is sent when a handler fails.
	GenericError string

	// PermissionDenied is sent to non-admins calling admin commands.
	PermissionDenied string

	// Timeout bounds one command.
	Timeout time.Duration
}

// Router dispatches commands to handlers.
type Router struct {
	mu     sync.RWMutex
	routes map[string]*compiledRoute
	names  map[string]string
	config RouterConfig
	logger *logger.Logger
}

type compiledRoute struct {
	route Route
	fn    handler.Func
}

// NewRouter creates a router.
func NewRouter(config RouterConfig) *Router {
	if config.Logger == nil {
		config.Logger = logger.FromSlog(nil)
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	return &Router{
		routes: make(map[string]*compiledRoute),
		names:  make(map[string]string),
		config: config,
		logger: config.Logger.Component("router"),
	}
}

// Handle registers a route. Later registrations replace earlier ones with
// the same name or alias.
func (r *Router) Handle(route Route) {
	mws := []middleware.Middleware{middleware.Recovery(r.logger.Logger)}
	if len(r.config.OwnerIDs) > 0 {
		mws = append(mws, middleware.Owners(r.config.OwnerIDs))
	}
	if route.Feature != "" {
		mws = append(mws, middleware.RequireFeature(r.config.Features, route.Feature))
	}
	if r.config.RateLimiter != nil {
		mws = append(mws, r.config.RateLimiter.Middleware())
	}
	if route.AdminOnly {
		mws = append(mws, middleware.AdminOnly(r.config.PermissionDenied))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.routes[route.Name] = &compiledRoute{route: route, fn: middleware.Chain(route.Handler, mws...)}
	r.names[route.Name] = route.Name
	for _, alias := range route.Aliases {
		r.names[alias] = route.Name
	}
}

// Resolve maps a command name or alias to its canonical name.
func (r *Router) Resolve(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	canonical, ok := r.names[strings.ToLower(name)]
	return canonical, ok
}

// Routes returns the registered routes.
func (r *Router) Routes() []Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Route, 0, len(r.routes))
	for _, cr := range r.routes {
		out = append(out, cr.route)
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCH
// ══════════════════════════════════════════════════════════════════════════════

// Dispatch runs the command named by c.Command. Unknown commands return
// (nil, false). Handler errors are logged and turned into the generic reply.
func (r *Router) Dispatch(ctx context.Context, c *handler.Context) (*handler.Response, bool) {
	name, ok := r.Resolve(c.Command)
	if !ok {
		return nil, false
	}
	r.mu.RLock()
	cr := r.routes[name]
	r.mu.RUnlock()

	c.Command = name
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	resp, err := cr.fn(ctx, c)
	if err != nil {
		r.logger.CommandError(name, err, c.Username, c.UserID, c.GuildName, c.GuildID)
		return handler.Ephemeral(r.config.GenericError), true
	}

	r.logger.CommandExecuted(name, c.Username, c.UserID, c.GuildName, c.GuildID)
	return resp, true
}

// ParsePrefixCommand splits "<prefix><command> args..." into the lower-cased
// command name and its arguments. ok is false when content does not start
// with prefix or names no command.
func ParsePrefixCommand(content, prefix string) (name string, args []string, ok bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(content[len(prefix):])
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}
