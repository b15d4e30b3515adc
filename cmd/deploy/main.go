// Package main registers the bot's slash commands with Discord.
//
// Commands go to a single guild when DEPLOY_GUILD_ONLY is set (instant
// propagation, handy while developing) and globally otherwise.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/afk-bro/discord-bot/config"
	discordapi "github.com/afk-bro/discord-bot/internal/infrastructure/external/discord"
	"github.com/afk-bro/discord-bot/internal/interface/discord"
	"github.com/afk-bro/discord-bot/pkg/logger"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "deploy failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Discord.ClientID == "" {
		return errors.New("CLIENT_ID is required")
	}

	guildID := ""
	if cfg.Discord.GuildOnly {
		if cfg.Discord.GuildID == "" {
			return errors.New("GUILD_ID is required when DEPLOY_GUILD_ONLY is set")
		}
		guildID = cfg.Discord.GuildID
	}

	log := logger.New(logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Console: true,
	})
	defer func() { _ = log.Close() }()

	session, err := discordapi.NewSession(cfg.Discord.Token)
	if err != nil {
		return fmt.Errorf("failed to create discord session: %w", err)
	}
	client := discordapi.NewClient(session, log.Logger)

	commands := discord.SlashCommands()
	scope := "global"
	if guildID != "" {
		scope = "guild " + guildID
	}
	log.Info("registering slash commands", "count", len(commands), "scope", scope)

	registered, err := client.RegisterCommands(ctx, cfg.Discord.ClientID, guildID, commands)
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	names := make([]string, 0, len(registered))
	for _, c := range registered {
		names = append(names, "/"+c.Name)
	}
	log.Info("slash commands registered",
		"count", len(registered),
		"scope", scope,
		"commands", strings.Join(names, ", "),
	)
	return nil
}
