// Package main is the entry point of the Discord leveling bot.
//
// The bot awards XP for chat activity, keeps per-guild leaderboards,
// answers prefix and slash commands, and optionally exposes a read-only
// HTTP API with a live WebSocket feed of progression events.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/afk-bro/discord-bot/config"

	// Application layer
	"github.com/afk-bro/discord-bot/internal/application/command"
	"github.com/afk-bro/discord-bot/internal/application/eventhandler"
	"github.com/afk-bro/discord-bot/internal/application/query"

	// Domain layer
	"github.com/afk-bro/discord-bot/internal/domain/progression"
	"github.com/afk-bro/discord-bot/internal/domain/shared"

	// Infrastructure layer
	discordapi "github.com/afk-bro/discord-bot/internal/infrastructure/external/discord"
	"github.com/afk-bro/discord-bot/internal/infrastructure/messaging"
	"github.com/afk-bro/discord-bot/internal/infrastructure/persistence/file"
	"github.com/afk-bro/discord-bot/internal/infrastructure/persistence/ledger"
	"github.com/afk-bro/discord-bot/internal/infrastructure/persistence/postgres"
	"github.com/afk-bro/discord-bot/internal/infrastructure/persistence/redis"
	"github.com/afk-bro/discord-bot/internal/infrastructure/persistence/sqlite"
	"github.com/afk-bro/discord-bot/internal/infrastructure/scheduler"
	"github.com/afk-bro/discord-bot/internal/infrastructure/scheduler/jobs"
	"github.com/afk-bro/discord-bot/internal/infrastructure/service"

	// Interface layer
	"github.com/afk-bro/discord-bot/internal/interface/discord"
	"github.com/afk-bro/discord-bot/internal/interface/discord/handler"
	"github.com/afk-bro/discord-bot/internal/interface/discord/middleware"
	httpserver "github.com/afk-bro/discord-bot/internal/interface/http"
	"github.com/afk-bro/discord-bot/internal/interface/http/handlers"

	// Packages
	"github.com/afk-bro/discord-bot/pkg/circuitbreaker"
	"github.com/afk-bro/discord-bot/pkg/logger"
	"github.com/afk-bro/discord-bot/pkg/retry"
	"github.com/afk-bro/discord-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Console: cfg.Logging.Console,
		File:    cfg.Logging.File,
		Dir:     cfg.Logging.Dir,
	})
	defer func() { _ = log.Close() }()

	log.Info("starting bot",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"env", cfg.App.Environment,
		"storage", cfg.Storage.Backend,
		"timezone", cfg.App.Timezone,
	)

	var disabled []string
	for name, f := range cfg.Features.GetAllFeatures() {
		if !f.Enabled {
			disabled = append(disabled, name)
		}
	}
	if len(disabled) > 0 {
		sort.Strings(disabled)
		log.Info("features disabled", "features", strings.Join(disabled, ", "))
	}
	if cfg.IsProduction() && cfg.HTTP.Enabled && cfg.HTTP.AdminTokenHash == "" {
		log.Warn("HTTP_ADMIN_TOKEN_HASH is empty, admin routes will reject every request")
	}

	clock := timeutil.NewSystemClock(cfg.App.Location)
	rules := cfg.Leveling

	// ─────────────────────────────────────────────────────────────────────────
	// 3. SNAPSHOT BACKEND
	// ─────────────────────────────────────────────────────────────────────────
	snapshots, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer snapshots.close()
	backend := snapshots.store

	// ─────────────────────────────────────────────────────────────────────────
	// 4. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log.Logger
	busConfig.AsyncMode = true
	bus := messaging.NewInMemoryEventBus(busConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = bus.Close()
	}()

	dispatcher := messaging.NewDispatcher(bus, 100, log.Logger)
	dispatcher.Use(messaging.RecoveryMiddleware(log.Logger))
	dispatcher.Use(messaging.LoggingMiddleware(log.Logger))

	// ─────────────────────────────────────────────────────────────────────────
	// 5. LEDGER
	// ─────────────────────────────────────────────────────────────────────────
	store := ledger.NewStore(backend, clock, log.Logger)
	if err := store.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to load XP snapshot: %w", err)
	}
	defer func() {
		persistCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.Persist(persistCtx); err != nil {
			log.Error("final snapshot save failed", "error", err)
		}
	}()
	log.Info("XP snapshot loaded", "records", store.Len(), "backend", backend.Name())

	weeklyReset := command.NewWeeklyResetHandler(store, rules, clock, bus, log.Logger)
	if err := weeklyReset.CheckWeeklyReset(ctx); err != nil {
		log.Warn("startup weekly reset check failed", "error", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. SERVER SETTINGS
	// ─────────────────────────────────────────────────────────────────────────
	settingsRepo, err := sqlite.NewSettingsRepository(ctx, cfg.Settings.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open settings database: %w", err)
	}
	defer func() { _ = settingsRepo.Close() }()
	settingsService := service.NewSettingsService(settingsRepo, clock, bus, log.Logger)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. DISCORD CLIENTS
	// ─────────────────────────────────────────────────────────────────────────
	session, err := discordapi.NewSession(cfg.Discord.Token)
	if err != nil {
		return fmt.Errorf("failed to create discord session: %w", err)
	}
	discordClient := discordapi.NewClient(session, log.Logger)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	cooldowns := progression.NewCooldowns(rules.Cooldown)
	awardXP := command.NewAwardXPHandler(store, rules, cooldowns, nil, clock, bus, log.Logger)
	claimDaily := command.NewClaimDailyHandler(store, rules, clock, bus, log.Logger)
	prestige := command.NewPrestigeHandler(store, rules, clock, bus, log.Logger)
	addBooster := command.NewAddBoosterHandler(store, rules, clock, bus, log.Logger)
	setPrefix := command.NewSetPrefixHandler(settingsService)

	profileQuery := query.NewGetProfileHandler(store, rules, weeklyReset, clock, log.Logger)
	leaderboardQuery := query.NewGetLeaderboardHandler(store, weeklyReset, clock, log.Logger)
	rankQuery := query.NewGetUserRankHandler(store, weeklyReset, log.Logger)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	levelUp := eventhandler.NewOnLevelUpHandler(
		store,
		discord.NewAnnouncer(discordClient),
		discordClient,
		cfg.Features,
		log.Logger,
		eventhandler.LevelUpConfig{
			AnnounceLevels: cfg.Discord.AnnounceLevels,
			MilestoneRoles: cfg.Discord.MilestoneRoles,
		},
	)
	if err := dispatcher.Register(shared.EventLevelUp, "level_up", levelUp.Handle); err != nil {
		return fmt.Errorf("failed to register level-up handler: %w", err)
	}

	var feed *httpserver.Hub
	if cfg.HTTP.Enabled {
		feed = httpserver.NewHub(cfg.HTTP.AllowedOrigins, log.Logger)
		liveFeed := eventhandler.NewOnLiveFeedHandler(feed, cfg.Features, log.Logger)
		if err := dispatcher.RegisterAll("live_feed", liveFeed.Handle); err != nil {
			return fmt.Errorf("failed to register live feed: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. DISCORD BOT
	// ─────────────────────────────────────────────────────────────────────────
	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerMinute: cfg.Discord.UserRateLimit,
		BurstSize:         cfg.Discord.UserRateBurst,
		Message:           cfg.Messages.Cooldown,
	})

	router := discord.NewRouter(discord.RouterConfig{
		Logger:           log,
		Features:         cfg.Features,
		RateLimiter:      limiter,
		OwnerIDs:         cfg.Discord.OwnerIDs,
		GenericError:     cfg.Messages.Generic,
		PermissionDenied: cfg.Messages.PermissionDenied,
		Timeout:          10 * time.Second,
	})
	discord.RegisterRoutes(router, discord.Handlers{
		Fun: handler.NewFunHandler(nil),
		Leveling: handler.NewLevelingHandler(handler.LevelingDeps{
			Profile:     profileQuery,
			Leaderboard: leaderboardQuery,
			Daily:       claimDaily,
			Prestige:    prestige,
			Booster:     addBooster,
			Rules:       rules,
			Features:    cfg.Features,
			Location:    cfg.App.Location,
		}),
		Settings: handler.NewSettingsHandler(setPrefix, cfg.Messages.PermissionDenied),
	})

	bot := discord.NewBot(discord.BotDeps{
		Session:  session,
		Router:   router,
		Settings: settingsService,
		Awarder:  awardXP,
		Rules:    rules,
		Features: cfg.Features,
		Logger:   log,
		Config: discord.BotConfig{
			IgnoreBots:            cfg.Discord.IgnoreBots,
			ActivityName:          cfg.Discord.ActivityName,
			DefaultPrefix:         cfg.Discord.DefaultPrefix,
			RemoveSettingsOnLeave: cfg.Discord.RemoveSettingsOnLeave,
			EventTimeout:          15 * time.Second,
			NotFound:              cfg.Messages.NotFound,
			Disabled:              cfg.Messages.Disabled,
		},
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 11. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.NewScheduler(scheduler.SchedulerConfig{
			Logger:         log.Logger,
			Timezone:       cfg.App.Location,
			JobTimeout:     cfg.Scheduler.JobTimeout,
			MaxHistorySize: 200,
			EnableMetrics:  true,
		})
		if err != nil {
			return fmt.Errorf("failed to create scheduler: %w", err)
		}
		sched.OnJobError(func(jobName string, err error) {
			log.Error("scheduled job failed", "job", jobName, "error", err)
		})

		weeklyJob := jobs.NewWeeklyResetJob(weeklyReset, log.Logger)
		if cfg.Scheduler.WeeklyResetCron != "" {
			err = sched.Cron(weeklyJob, cfg.Scheduler.WeeklyResetCron)
		} else {
			err = sched.Every(weeklyJob, cfg.Scheduler.WeeklyResetCheckInterval, false)
		}
		if err != nil {
			return fmt.Errorf("failed to schedule weekly reset: %w", err)
		}
		sweepers := map[string]jobs.Sweeper{
			"xp_cooldowns": cooldowns,
			"rate_limits":  limiter,
		}
		if err := sched.Every(jobs.NewSweepCooldownsJob(sweepers, clock, log.Logger), cfg.Scheduler.CooldownSweepInterval, false); err != nil {
			return fmt.Errorf("failed to schedule cooldown sweep: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 12. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	var httpServer *httpserver.Server
	if cfg.HTTP.Enabled {
		health := handlers.NewCompositeHealthChecker(cfg.App.Version)
		health.SetTimeout(3 * time.Second)
		health.AddCheck("snapshot_store", handlers.PingCheck(store))
		health.AddCheck("settings_db", handlers.PingCheck(settingsRepo))
		health.AddCheck("discord_api", func(context.Context) error {
			if state := discordClient.BreakerState(); state == circuitbreaker.StateOpen {
				return fmt.Errorf("circuit breaker %s", state)
			}
			return nil
		})
		if snapshots.health != nil {
			health.AddCheck(backend.Name()+"_pool", snapshots.health)
		}

		stats := map[string]httpserver.StatsFunc{
			"ledger": func(context.Context) (interface{}, error) {
				return map[string]interface{}{
					"backend":     backend.Name(),
					"records":     store.Len(),
					"persistence": store.Stats(),
				}, nil
			},
			"event_bus": func(context.Context) (interface{}, error) {
				out := map[string]interface{}{
					"dead_letters":        dispatcher.DeadLetterQueue().Size(),
					"recent_dead_letters": dispatcher.DeadLetterQueue().Entries(),
				}
				if m := bus.Metrics(); m != nil {
					out["metrics"] = m.Snapshot()
				}
				return out, nil
			},
			"commands": func(context.Context) (interface{}, error) {
				names := make([]string, 0)
				for _, route := range router.Routes() {
					names = append(names, route.Name)
				}
				sort.Strings(names)
				return names, nil
			},
		}
		for name, fn := range snapshots.stats {
			stats[name] = fn
		}

		deps := httpserver.Dependencies{
			Leaderboard: leaderboardQuery,
			Profile:     profileQuery,
			UserRank:    rankQuery,
			AddBooster:  addBooster,
			Health:      health,
			Feed:        feed,
			Stats:       stats,
			Logger:      log.Logger,
		}
		if sched != nil {
			deps.Jobs = sched
			stats["scheduler"] = func(context.Context) (interface{}, error) {
				out := map[string]interface{}{
					"jobs":    sched.ListJobs(),
					"history": sched.GetHistory(20),
				}
				if m := sched.GetMetrics(); m != nil {
					out["metrics"] = m.Snapshot()
				}
				return out, nil
			}
		}

		httpConfig := httpserver.DefaultConfig()
		httpConfig.Addr = cfg.HTTP.Addr
		httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
		httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
		httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
		httpConfig.AdminTokenHash = cfg.HTTP.AdminTokenHash

		httpServer = httpserver.NewServer(httpConfig, deps)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 13. START
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)

	if httpServer != nil {
		go func() {
			if err := <-httpServer.StartAsync(); err != nil {
				errCh <- fmt.Errorf("http server error: %w", err)
			}
		}()
	}

	if err := bot.Start(); err != nil {
		return fmt.Errorf("failed to start bot: %w", err)
	}

	if sched != nil {
		if err := sched.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	log.Info("bot is running",
		"http_enabled", cfg.HTTP.Enabled,
		"http_addr", cfg.HTTP.Addr,
		"scheduler_enabled", cfg.Scheduler.Enabled,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 14. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case runErr = <-errCh:
		log.Error("service failed", "error", runErr)
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := bot.Stop(); err != nil {
		log.Error("failed to close discord session", "error", err)
	}
	if sched != nil {
		if err := sched.Stop(); err != nil {
			log.Error("failed to stop scheduler", "error", err)
		}
	}
	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shutdown http server", "error", err)
		}
	}

	log.Info("shutdown complete")
	return runErr
}

// snapshotBackend is the opened snapshot store plus the hooks the HTTP layer
// reports on.
type snapshotBackend struct {
	store progression.SnapshotStore
	close func()

	// health, when set, is an extra readiness check for the backend pool.
	health handlers.HealthCheckFunc

	// stats are extra sections for GET /api/stats.
	stats map[string]httpserver.StatsFunc
}

// openBackend selects the snapshot backend.
func openBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (*snapshotBackend, error) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		opts := postgres.DefaultPoolOptions()
		opts.MaxConns = int32(cfg.Database.MaxConns)
		opts.MinConns = int32(cfg.Database.MinConns)
		opts.MaxConnLifetime = cfg.Database.ConnMaxLifetime
		opts.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

		log.Info("connecting to postgres...")
		var conn *postgres.Connection
		err := connectRetrier(log, "postgres").Do(ctx, func(ctx context.Context) error {
			var err error
			conn, err = postgres.NewConnectionFromURL(ctx, cfg.Database.URL, opts)
			if errors.Is(err, postgres.ErrInvalidDatabaseURL) {
				return retry.Permanent(err)
			}
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		migrator := postgres.NewMigrator(conn)
		if err := migrator.Migrate(ctx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return &snapshotBackend{
			store: postgres.NewSnapshotStore(conn, cfg.Database.LedgerID, cfg.Storage.HistoryDepth),
			close: conn.Close,
			health: func(ctx context.Context) error {
				status, err := conn.Health(ctx)
				if err != nil {
					return err
				}
				if !status.Healthy {
					return errors.New(status.Error)
				}
				return nil
			},
			stats: map[string]httpserver.StatsFunc{
				"postgres_pool": func(ctx context.Context) (interface{}, error) {
					return conn.Health(ctx)
				},
				"migrations": func(ctx context.Context) (interface{}, error) {
					return migrator.Status(ctx)
				},
			},
		}, nil

	case config.BackendRedis:
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.KeyPrefix = cfg.Redis.KeyPrefix
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		log.Info("connecting to redis...", "addr", redisCfg.Addr())
		var cache *redis.Cache
		err := connectRetrier(log, "redis").Do(ctx, func(ctx context.Context) error {
			var err error
			cache, err = redis.NewCache(ctx, redisCfg)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return &snapshotBackend{
			store: redis.NewSnapshotStore(cache),
			close: func() { _ = cache.Close() },
		}, nil

	default:
		return &snapshotBackend{
			store: file.NewSnapshotStore(cfg.Storage.FilePath),
			close: func() {},
		}, nil
	}
}

func connectRetrier(log *logger.Logger, backend string) *retry.Retrier {
	return retry.BackendConnectRetrier(retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		log.Warn("backend connection failed, retrying",
			"backend", backend,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
	}))
}
