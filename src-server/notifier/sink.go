package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/bwmarrin/discordgo"
)

// Notification is what a sink delivers when a trigger fires.
type Notification struct {
	TriggerID string
	Title     string
	Body      string
	Sound     string
	ChannelID string
	FireAt    time.Time
}

type Sink interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}

type LogSink struct{}

func (LogSink) Name() string { return "log" }

func (LogSink) Send(ctx context.Context, n Notification) error {
	slog.Info(n.Title, "body", n.Body, "trigger_id", n.TriggerID, "fire_at", n.FireAt)
	return nil
}

type discordSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordSink posts reminders as embeds into one text channel.
type DiscordSink struct {
	session   discordSender
	channelID string
}

func NewDiscordSink(session discordSender, channelID string) *DiscordSink {
	return &DiscordSink{session: session, channelID: channelID}
}

func (d *DiscordSink) Name() string { return "discord" }

func (d *DiscordSink) Send(ctx context.Context, n Notification) error {
	if _, err := d.session.ChannelMessageSendEmbed(d.channelID, ToDiscordEmbed(n), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("(*DiscordSink).Send: %w", err)
	}
	return nil
}

func ToDiscordEmbed(n Notification) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       n.Title,
		Description: n.Body,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Start Date",
				Value:  fmt.Sprintf("<t:%d:f>", n.FireAt.Unix()),
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: n.TriggerID,
		},
	}
}

type snsPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSink publishes reminders to an SNS topic.
type SNSSink struct {
	client   snsPublisher
	topicARN string
}

func NewSNSSink(client snsPublisher, topicARN string) *SNSSink {
	return &SNSSink{client: client, topicARN: topicARN}
}

func (s *SNSSink) Name() string { return "sns" }

func (s *SNSSink) Send(ctx context.Context, n Notification) error {
	msg := strings.Join([]string{
		n.Body,
		"At: " + n.FireAt.UTC().Format(time.RFC1123),
	}, "\n")
	if _, err := s.client.Publish(ctx, &sns.PublishInput{
		Message:  aws.String(msg),
		Subject:  aws.String(asciiSubject(n.Title)),
		TopicArn: aws.String(s.topicARN),
	}); err != nil {
		return fmt.Errorf("(*SNSSink).Send: topic %s: %w", s.topicARN, err)
	}
	return nil
}

// SNS subjects must be printable ASCII under 100 characters.
func asciiSubject(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if len(s) > 99 {
		s = s[:99]
	}
	return s
}
