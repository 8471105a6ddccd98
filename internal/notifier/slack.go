package notifier

import (
	"context"
	"fmt"

	"github.com/gdg-garage/achievement-board/internal/models"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

type slackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	GetPermalinkContext(ctx context.Context, params *slack.PermalinkParameters) (string, error)
}

// SlackPoster announces achievements in a Slack channel.
type SlackPoster struct {
	api       slackAPI
	channelID string
	baseURL   string
}

func NewSlackPoster(token, channelID, baseURL string, opts ...slack.Option) (*SlackPoster, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}
	return &SlackPoster{
		api:       slack.New(token, opts...),
		channelID: channelID,
		baseURL:   baseURL,
	}, nil
}

func (p *SlackPoster) PostAchievement(ctx context.Context, a models.Achievement) (string, error) {
	text := fmt.Sprintf(":trophy: *New achievement:* %s\n%s", a.Title, AchievementURL(p.baseURL, a.ID))

	channel, ts, err := p.api.PostMessageContext(ctx, p.channelID, slack.MsgOptionText(text, true))
	if err != nil {
		return "", goerr.Wrap(err, "failed to post slack message", goerr.V("channel_id", p.channelID))
	}

	link, err := p.api.GetPermalinkContext(ctx, &slack.PermalinkParameters{Channel: channel, Ts: ts})
	if err != nil {
		return "", goerr.Wrap(err, "failed to get slack permalink", goerr.V("channel_id", channel), goerr.V("ts", ts))
	}
	return link, nil
}
