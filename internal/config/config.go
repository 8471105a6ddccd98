package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/viper"
)

type Config struct {
	Port          string `mapstructure:"PORT"`
	BaseURL       string `mapstructure:"BASE_URL"`
	DatabasePath  string `mapstructure:"DATABASE_PATH"`
	JWTSecret     string `mapstructure:"JWT_SECRET"`
	SecureCookies bool   `mapstructure:"SECURE_COOKIES"`
	CSRFKey       string `mapstructure:"CSRF_KEY"`

	DiscordClientID          string `mapstructure:"DISCORD_CLIENT_ID"`
	DiscordClientSecret      string `mapstructure:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURL       string `mapstructure:"DISCORD_REDIRECT_URL"`
	DiscordGuildID           string `mapstructure:"DISCORD_GUILD_ID"`
	DiscordBotToken          string `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordAnnounceChannelID string `mapstructure:"DISCORD_ANNOUNCE_CHANNEL_ID"`

	SlackBotToken  string `mapstructure:"SLACK_BOT_TOKEN"`
	SlackChannelID string `mapstructure:"SLACK_CHANNEL_ID"`
	// SocialProvider selects the post-create announcer: "discord", "slack" or empty for none.
	SocialProvider string `mapstructure:"SOCIAL_PROVIDER"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	MailFrom     string `mapstructure:"MAIL_FROM"`

	UploadDir      string `mapstructure:"UPLOAD_DIR"`
	MaxUploadBytes int64  `mapstructure:"MAX_UPLOAD_BYTES"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogFile  string `mapstructure:"LOG_FILE"`
}

var boundKeys = []string{
	"JWT_SECRET",
	"SECURE_COOKIES",
	"CSRF_KEY",
	"DISCORD_CLIENT_ID",
	"DISCORD_CLIENT_SECRET",
	"DISCORD_GUILD_ID",
	"DISCORD_BOT_TOKEN",
	"DISCORD_ANNOUNCE_CHANNEL_ID",
	"SLACK_BOT_TOKEN",
	"SLACK_CHANNEL_ID",
	"SOCIAL_PROVIDER",
	"SMTP_HOST",
	"SMTP_USERNAME",
	"SMTP_PASSWORD",
	"LOG_FILE",
}

func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("PORT", "8080")
	v.SetDefault("BASE_URL", "http://127.0.0.1:8080")
	v.SetDefault("DATABASE_PATH", "achievements.db")
	v.SetDefault("DISCORD_REDIRECT_URL", "http://127.0.0.1:8080/auth/discord/callback")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("MAIL_FROM", "achievements@localhost")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("MAX_UPLOAD_BYTES", 5<<20)
	v.SetDefault("LOG_LEVEL", "info")

	for _, key := range boundKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, goerr.Wrap(err, "failed to bind env", goerr.V("key", key))
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, goerr.Wrap(err, "unable to decode config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects combinations that cannot start a working server.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return goerr.New("JWT_SECRET is required")
	}

	switch c.SocialProvider {
	case "":
	case "discord":
		if c.DiscordBotToken == "" || c.DiscordAnnounceChannelID == "" {
			return goerr.New("discord social provider needs DISCORD_BOT_TOKEN and DISCORD_ANNOUNCE_CHANNEL_ID")
		}
	case "slack":
		if c.SlackBotToken == "" || c.SlackChannelID == "" {
			return goerr.New("slack social provider needs SLACK_BOT_TOKEN and SLACK_CHANNEL_ID")
		}
	default:
		return goerr.New("unknown SOCIAL_PROVIDER", goerr.V("provider", c.SocialProvider))
	}

	if c.CSRFKey != "" && len(c.CSRFKey) != 32 {
		return goerr.New("CSRF_KEY must be 32 bytes")
	}

	return nil
}

// MailEnabled reports whether owner notifications can be delivered.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}
