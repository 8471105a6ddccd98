package notifier

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/gdg-garage/achievement-board/internal/models"
	"github.com/m-mizutani/goerr/v2"
)

type discordSender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordPoster announces achievements in a Discord channel.
type DiscordPoster struct {
	session   discordSender
	guildID   string
	channelID string
	baseURL   string
}

func NewDiscordPoster(session *discordgo.Session, guildID, channelID, baseURL string) *DiscordPoster {
	p := &DiscordPoster{
		guildID:   guildID,
		channelID: channelID,
		baseURL:   baseURL,
	}
	if session != nil {
		p.session = session
	}
	return p
}

func (p *DiscordPoster) PostAchievement(ctx context.Context, a models.Achievement) (string, error) {
	if p.session == nil {
		return "", goerr.New("discord session is nil")
	}
	if p.channelID == "" {
		return "", goerr.New("discord channel ID is empty")
	}

	message := &discordgo.MessageSend{
		Content: fmt.Sprintf("🏆 **New achievement:** %s\n%s", a.Title, AchievementURL(p.baseURL, a.ID)),
		// titles are user input; never let them ping anyone
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}

	msg, err := p.session.ChannelMessageSendComplex(p.channelID, message, discordgo.WithContext(ctx))
	if err != nil {
		return "", goerr.Wrap(err, "failed to send discord message", goerr.V("channel_id", p.channelID))
	}

	guildID := msg.GuildID
	if guildID == "" {
		guildID = p.guildID
	}
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, msg.ChannelID, msg.ID), nil
}
