package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/slack-go/slack"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/millflow/internal/config"
	"github.com/Additional-Code/millflow/internal/tracking"
)

// Notifier announces production events to people on the floor.
type Notifier interface {
	Notify(ctx context.Context, ev tracking.Event) error
}

// Module provides the Notifier selected by configuration.
var Module = fx.Provide(New)

// New builds the Notifier named by cfg.Notify.Driver.
func New(cfg config.Config, logger *zap.Logger) (Notifier, error) {
	n := cfg.Notify
	switch n.Driver {
	case "", "log":
		return NewLogNotifier(logger), nil
	case "noop":
		return Noop{}, nil
	case "slack":
		return NewSlackNotifier(slack.New(n.Slack.Token), n.Slack.ChannelID), nil
	case "discord":
		session, err := discordgo.New("Bot " + n.Discord.Token)
		if err != nil {
			return nil, fmt.Errorf("create discord session: %w", err)
		}
		return NewDiscordNotifier(session, n.Discord.ChannelID), nil
	default:
		return nil, fmt.Errorf("unsupported notify driver: %s", n.Driver)
	}
}

// Noop drops every event.
type Noop struct{}

func (Noop) Notify(context.Context, tracking.Event) error { return nil }

// LogNotifier writes events to the application log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier returns a Notifier backed by logger.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger.Named("notify")}
}

func (n *LogNotifier) Notify(_ context.Context, ev tracking.Event) error {
	n.logger.Info(Format(ev),
		zap.String("event.type", string(ev.Type)),
		zap.String("order.id", ev.OrderID),
		zap.String("stage", string(ev.Stage)),
	)
	return nil
}

type slackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier posts events to a slack channel.
type SlackNotifier struct {
	client    slackPoster
	channelID string
}

func NewSlackNotifier(client slackPoster, channelID string) *SlackNotifier {
	return &SlackNotifier{client: client, channelID: channelID}
}

func (n *SlackNotifier) Notify(ctx context.Context, ev tracking.Event) error {
	if _, _, err := n.client.PostMessageContext(ctx, n.channelID, slack.MsgOptionText(Format(ev), false)); err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	return nil
}

type discordSender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts events to a discord channel.
type DiscordNotifier struct {
	session   discordSender
	channelID string
}

func NewDiscordNotifier(session discordSender, channelID string) *DiscordNotifier {
	return &DiscordNotifier{session: session, channelID: channelID}
}

func (n *DiscordNotifier) Notify(ctx context.Context, ev tracking.Event) error {
	if _, err := n.session.ChannelMessageSend(n.channelID, Format(ev), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord send: %w", err)
	}
	return nil
}

// Format renders ev as one human readable line.
func Format(ev tracking.Event) string {
	order := "order " + ev.OrderNumber
	var msg string
	switch ev.Type {
	case tracking.EventDetailReturnedForRework:
		msg = fmt.Sprintf("Detail %s returned from %s to %s", ev.Code, ev.FromStage, ev.ToStage)
		if ev.Reason != "" {
			msg += ": " + ev.Reason
		}
	case tracking.EventDetailSplit:
		msg = fmt.Sprintf("Detail %s split into %s", ev.Code, strings.Join(ev.Children, ", "))
	case tracking.EventPackageCreated:
		msg = fmt.Sprintf("Package %s (%s) created at %s", ev.PackageQR, ev.PackageName, ev.Stage)
	case tracking.EventPackageDeleted:
		msg = fmt.Sprintf("Package %s deleted at %s", ev.PackageQR, ev.Stage)
	case tracking.EventTaskCompleted:
		msg = fmt.Sprintf("Stage %s completed %d/%d", ev.Stage, ev.Scanned, ev.Planned)
		if ev.ShortageConfirmed {
			msg += " with confirmed shortage"
		}
	case tracking.EventTaskReopened:
		msg = fmt.Sprintf("Stage %s reopened for rework of %s", ev.Stage, ev.Code)
	default:
		msg = fmt.Sprintf("%s at %s", ev.Type, ev.Stage)
	}
	if ev.Actor != "" {
		return fmt.Sprintf("%s (%s, by %s)", msg, order, ev.Actor)
	}
	return fmt.Sprintf("%s (%s)", msg, order)
}
