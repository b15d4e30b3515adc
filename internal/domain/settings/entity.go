// Package settings содержит настройки серверов (префикс команд, служебные каналы).
package settings

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/afk-bro/discord-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER SETTINGS
// ══════════════════════════════════════════════════════════════════════════════

// DefaultPrefix - префикс команд по умолчанию.
const DefaultPrefix = "!"

// MaxPrefixLength - максимальная длина префикса.
const MaxPrefixLength = 5

// Ключи настроек.
const (
	KeyPrefix         = "prefix"
	KeyWelcomeChannel = "welcomeChannel"
	KeyLogChannel     = "logChannel"
	KeyAutoRole       = "autoRole"
)

// ServerSettings - настройки одного сервера. Пустая строка означает "не задано".
type ServerSettings struct {
	// GuildID - идентификатор сервера.
	GuildID string `json:"guildId"`

	// Prefix - префикс текстовых команд.
	Prefix string `json:"prefix"`

	// WelcomeChannel - канал приветствий.
	WelcomeChannel string `json:"welcomeChannel,omitempty"`

	// LogChannel - канал журнала бота.
	LogChannel string `json:"logChannel,omitempty"`

	// AutoRole - роль, выдаваемая новым участникам.
	AutoRole string `json:"autoRole,omitempty"`

	// UpdatedAt - время последнего изменения.
	UpdatedAt time.Time `json:"updatedAt"`
}

// Defaults возвращает настройки по умолчанию для сервера.
func Defaults(guildID string) *ServerSettings {
	return &ServerSettings{
		GuildID: guildID,
		Prefix:  DefaultPrefix,
	}
}

// Set изменяет одну настройку по ключу.
func (s *ServerSettings) Set(key, value string) error {
	switch key {
	case KeyPrefix:
		if err := ValidatePrefix(value); err != nil {
			return err
		}
		s.Prefix = value
	case KeyWelcomeChannel:
		s.WelcomeChannel = value
	case KeyLogChannel:
		s.LogChannel = value
	case KeyAutoRole:
		s.AutoRole = value
	default:
		return shared.ErrUnknownSetting
	}
	return nil
}

// Apply применяет набор изменений. При ошибке настройки не меняются.
func (s *ServerSettings) Apply(patch map[string]string) error {
	next := *s
	for k, v := range patch {
		if err := next.Set(k, v); err != nil {
			return err
		}
	}
	*s = next
	return nil
}

// ValidatePrefix проверяет префикс: непустой, без пробелов, не длиннее MaxPrefixLength.
func ValidatePrefix(prefix string) error {
	if prefix == "" || strings.ContainsAny(prefix, " \t\n") {
		return shared.ErrInvalidPrefix
	}
	if utf8.RuneCountInString(prefix) > MaxPrefixLength {
		return shared.ErrInvalidPrefix
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// Repository - хранилище настроек серверов.
type Repository interface {
	// Get возвращает настройки или shared.ErrSettingsNotFound.
	Get(ctx context.Context, guildID string) (*ServerSettings, error)

	// Save создаёт или перезаписывает настройки.
	Save(ctx context.Context, s *ServerSettings) error

	// Delete удаляет настройки сервера.
	Delete(ctx context.Context, guildID string) error

	// List возвращает настройки всех серверов.
	List(ctx context.Context) ([]*ServerSettings, error)
}
