package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/afk-bro/discord-bot/internal/domain/settings"
	"github.com/afk-bro/discord-bot/internal/domain/shared"
	"github.com/afk-bro/discord-bot/pkg/timeutil"
)

// SettingsService provides get-or-create access to server settings with an
// in-memory cache in front of the repository.
type SettingsService struct {
	repo      settings.Repository
	clock     timeutil.Clock
	publisher shared.EventPublisher
	logger    *slog.Logger

	mu    sync.RWMutex
	cache map[string]*settings.ServerSettings
}

// NewSettingsService creates a new SettingsService. publisher may be nil.
func NewSettingsService(repo settings.Repository, clock timeutil.Clock, publisher shared.EventPublisher, logger *slog.Logger) *SettingsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsService{
		repo:      repo,
		clock:     clock,
		publisher: publisher,
		logger:    logger.With("component", "settings"),
		cache:     make(map[string]*settings.ServerSettings),
	}
}

// Get returns a copy of the guild's settings, creating defaults if absent.
func (s *SettingsService) Get(ctx context.Context, guildID string) (*settings.ServerSettings, error) {
	if guildID == "" {
		return nil, shared.ErrInvalidGuildID
	}

	s.mu.RLock()
	cached, ok := s.cache[guildID]
	s.mu.RUnlock()
	if ok {
		c := *cached
		return &c, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.loadLocked(ctx, guildID)
	if err != nil {
		return nil, err
	}
	c := *current
	return &c, nil
}

// Prefix returns the guild's command prefix, falling back to the default on error.
func (s *SettingsService) Prefix(ctx context.Context, guildID string) string {
	if guildID == "" {
		return settings.DefaultPrefix
	}
	cfg, err := s.Get(ctx, guildID)
	if err != nil {
		s.logger.Warn("failed to load settings, using default prefix", "guild_id", guildID, "error", err)
		return settings.DefaultPrefix
	}
	return cfg.Prefix
}

// Set changes a single setting.
func (s *SettingsService) Set(ctx context.Context, guildID, key, value string) (*settings.ServerSettings, error) {
	return s.Update(ctx, guildID, map[string]string{key: value})
}

// Update applies a patch atomically: either every key is applied or none.
func (s *SettingsService) Update(ctx context.Context, guildID string, patch map[string]string) (*settings.ServerSettings, error) {
	if guildID == "" {
		return nil, shared.ErrInvalidGuildID
	}

	s.mu.Lock()
	current, err := s.loadLocked(ctx, guildID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	next := *current
	if err := next.Apply(patch); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	next.UpdatedAt = s.clock.Now()

	if err := s.repo.Save(ctx, &next); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.cache[guildID] = &next
	s.mu.Unlock()

	for key, value := range patch {
		s.publish(shared.NewSettingsChangedEvent(guildID, key, value, next.UpdatedAt))
	}

	out := next
	return &out, nil
}

// Reset restores the defaults.
func (s *SettingsService) Reset(ctx context.Context, guildID string) (*settings.ServerSettings, error) {
	if guildID == "" {
		return nil, shared.ErrInvalidGuildID
	}

	def := settings.Defaults(guildID)
	def.UpdatedAt = s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Save(ctx, def); err != nil {
		return nil, err
	}
	s.cache[guildID] = def

	out := *def
	return &out, nil
}

// Remove deletes the guild's settings from the repository and the cache.
func (s *SettingsService) Remove(ctx context.Context, guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Delete(ctx, guildID); err != nil {
		return err
	}
	delete(s.cache, guildID)
	return nil
}

// loadLocked must be called with s.mu held for writing.
func (s *SettingsService) loadLocked(ctx context.Context, guildID string) (*settings.ServerSettings, error) {
	if cached, ok := s.cache[guildID]; ok {
		return cached, nil
	}

	loaded, err := s.repo.Get(ctx, guildID)
	if errors.Is(err, shared.ErrNotFound) {
		loaded = settings.Defaults(guildID)
		loaded.UpdatedAt = s.clock.Now()
		if err := s.repo.Save(ctx, loaded); err != nil {
			return nil, err
		}
		s.logger.Info("created default settings", "guild_id", guildID)
	} else if err != nil {
		return nil, err
	}

	s.cache[guildID] = loaded
	return loaded, nil
}

func (s *SettingsService) publish(event shared.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(event); err != nil {
		s.logger.Warn("failed to publish settings event", "error", err)
	}
}
