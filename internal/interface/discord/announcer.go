package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/afk-bro/discord-bot/internal/application/eventhandler"
	"github.com/afk-bro/discord-bot/internal/interface/discord/presenter"
)

// MessageSender posts a message to a channel.
type MessageSender interface {
	SendMessage(ctx context.Context, channelID string, msg *discordgo.MessageSend) error
}

// Announcer posts level-up congratulations in the channel where the member
// leveled up.
type Announcer struct {
	sender MessageSender
}

// NewAnnouncer creates an announcer over the REST client.
func NewAnnouncer(sender MessageSender) *Announcer {
	return &Announcer{sender: sender}
}

// AnnounceLevelUp implements eventhandler.Announcer.
func (a *Announcer) AnnounceLevelUp(ctx context.Context, notice eventhandler.LevelUpNotice) error {
	return a.sender.SendMessage(ctx, notice.ChannelID, presenter.LevelUpMessage(notice))
}

var _ eventhandler.Announcer = (*Announcer)(nil)
