package sink

import (
	"context"
	"strings"

	"github.com/code19m/errx"
	"github.com/nikoksr/notify"
	"github.com/nikoksr/notify/service/discord"
	"github.com/nikoksr/notify/service/slack"
	"github.com/nikoksr/notify/service/telegram"
)

// notifySink sends alerts through a notify.Notifier.
// The first line of the alert (the mention) goes out as the subject.
type notifySink struct {
	n notify.Notifier
}

func (s *notifySink) Send(ctx context.Context, text string) error {
	subject, body, _ := strings.Cut(text, "\n")

	if err := s.n.Send(ctx, subject, body); err != nil {
		return errx.Wrap(err)
	}

	return nil
}

func newSlackSink(token string, channelIDs []string) (Sink, error) {
	if token == "" || len(channelIDs) == 0 {
		return nil, missingCredentials(ProviderSlack)
	}

	s := slack.New(token)
	s.AddReceivers(channelIDs...)

	n := notify.New()
	n.UseServices(s)

	return &notifySink{n: n}, nil
}

func newDiscordSink(token string, channelIDs []string) (Sink, error) {
	if token == "" || len(channelIDs) == 0 {
		return nil, missingCredentials(ProviderDiscord)
	}

	d := discord.New()
	if err := d.AuthenticateWithBotToken(token); err != nil {
		return nil, errx.Wrap(err)
	}
	d.AddReceivers(channelIDs...)

	n := notify.New()
	n.UseServices(d)

	return &notifySink{n: n}, nil
}

func newTelegramSink(token string, chatIDs []int64) (Sink, error) {
	if token == "" || len(chatIDs) == 0 {
		return nil, missingCredentials(ProviderTelegram)
	}

	tg, err := telegram.New(token)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	// alerts carry markdown-ish markers that Telegram's HTML mode would reject
	tg.SetParseMode("")
	tg.AddReceivers(chatIDs...)

	n := notify.New()
	n.UseServices(tg)

	return &notifySink{n: n}, nil
}

func missingCredentials(provider string) error {
	return errx.New(
		provider+" sink requires a bot token and at least one receiver",
		errx.WithCode(codeInvalidSinkConfig),
		errx.WithType(errx.T_Validation),
		errx.WithDetails(errx.D{"provider": provider}),
	)
}
