// Package sink delivers rendered alerts to chat channels.
package sink

import (
	"context"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/errwatch/observability/logger"
)

const (
	ProviderSlack    = "slack"
	ProviderDiscord  = "discord"
	ProviderTelegram = "telegram"
	ProviderSentinel = "sentinel"
	ProviderLog      = "log"
	ProviderNoop     = "noop"

	codeInvalidSinkConfig = "INVALID_SINK_CONFIG"
)

// Sink transmits an alert text to its channel.
// Implementations must be safe for concurrent use. Sinks holding a connection
// also implement io.Closer.
type Sink interface {
	Send(ctx context.Context, text string) error
}

// Config defines configuration options for the delivery sink.
type Config struct {
	// Provider selects the sink implementation.
	Provider string `yaml:"provider" validate:"oneof=slack discord telegram sentinel log noop" default:"log"`

	// SlackBotToken is the Slack bot token (required when Provider is "slack").
	SlackBotToken string `yaml:"slack_bot_token" mask:"true"`

	// SlackChannelIDs is the list of Slack channel IDs to send alerts to.
	SlackChannelIDs []string `yaml:"slack_channel_ids"`

	// DiscordBotToken is the Discord bot token (required when Provider is "discord").
	DiscordBotToken string `yaml:"discord_bot_token" mask:"true"`

	// DiscordChannelIDs is the list of Discord channel IDs to send alerts to.
	DiscordChannelIDs []string `yaml:"discord_channel_ids"`

	// TelegramBotToken is the Telegram bot token (required when Provider is "telegram").
	TelegramBotToken string `yaml:"telegram_bot_token" mask:"true"`

	// TelegramChatIDs is the list of Telegram chat IDs to send alerts to.
	TelegramChatIDs []int64 `yaml:"telegram_chat_ids"`

	// SentinelHost is the hostname of the Sentinel service (required when Provider is "sentinel").
	SentinelHost string `yaml:"sentinel_host"`

	// SentinelPort is the port of the Sentinel service.
	SentinelPort int `yaml:"sentinel_port"`
}

// New creates the sink selected by cfg.Provider.
// The logger is used by the log sink only.
func New(cfg Config, log logger.Logger) (Sink, error) {
	switch cfg.Provider {
	case ProviderSlack:
		return newSlackSink(cfg.SlackBotToken, cfg.SlackChannelIDs)
	case ProviderDiscord:
		return newDiscordSink(cfg.DiscordBotToken, cfg.DiscordChannelIDs)
	case ProviderTelegram:
		return newTelegramSink(cfg.TelegramBotToken, cfg.TelegramChatIDs)
	case ProviderSentinel:
		return newSentinelSink(cfg.SentinelHost, cfg.SentinelPort)
	case ProviderLog:
		return NewLog(log), nil
	case ProviderNoop, "":
		return Noop(), nil
	default:
		return nil, errx.New(
			"invalid alert sink provider: "+cfg.Provider,
			errx.WithCode(codeInvalidSinkConfig),
			errx.WithType(errx.T_Validation),
		)
	}
}

// Noop returns a sink that drops every alert.
func Noop() Sink {
	return noopSink{}
}

type noopSink struct{}

func (noopSink) Send(context.Context, string) error { return nil }

// NewLog returns a sink that writes alerts to the structured logger.
func NewLog(log logger.Logger) Sink {
	return &logSink{log: log.Named("alert.sink")}
}

type logSink struct {
	log logger.Logger
}

func (s *logSink) Send(ctx context.Context, text string) error {
	s.log.WithContext(ctx).With("alert", text).Error("alert raised")
	return nil
}
