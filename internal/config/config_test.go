package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "9090")
	t.Setenv("SOCIAL_PROVIDER", "slack")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("SLACK_CHANNEL_ID", "C123")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "achievements.db", cfg.DatabasePath)
	assert.Equal(t, "slack", cfg.SocialProvider)
	assert.Equal(t, "C123", cfg.SlackChannelID)
	assert.Equal(t, int64(5<<20), cfg.MaxUploadBytes)
	assert.False(t, cfg.MailEnabled())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "minimal", cfg: Config{JWTSecret: "s"}},
		{name: "missing secret", cfg: Config{}, wantErr: true},
		{name: "discord without channel", cfg: Config{JWTSecret: "s", SocialProvider: "discord", DiscordBotToken: "t"}, wantErr: true},
		{name: "discord", cfg: Config{JWTSecret: "s", SocialProvider: "discord", DiscordBotToken: "t", DiscordAnnounceChannelID: "c"}},
		{name: "unknown provider", cfg: Config{JWTSecret: "s", SocialProvider: "twitter"}, wantErr: true},
		{name: "short csrf key", cfg: Config{JWTSecret: "s", CSRFKey: "short"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
