package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dayplan/src-server/model"
	"dayplan/src-server/timeutil"
	"dayplan/src-server/utils"

	"github.com/bwmarrin/discordgo"
)

// Discord allows 10 embeds per message.
const maxEmbeds = 10

func Events(as *utils.AppState) {
	id := "events"
	as.AddAppCmdHandler(id, eventsHandler(as))
	as.AddAppCmdInfo(id, &discordgo.ApplicationCommand{
		Name:        id,
		Description: "List events of one day, or the upcoming ones.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "date",
				Description: "`YYYY-MM-DD` or something like `tomorrow`",
				Required:    false,
			},
		},
	})
}

func eventsHandler(as *utils.AppState) utils.AppCmdHandlerFunc {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) error {
		if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		}); err != nil {
			slog.Warn("can't respond", "handler", "events", "content", "deferring", "error", err)
		}

		var dateText string
		if options := i.ApplicationCommandData().Options; len(options) > 0 {
			dateText = strings.TrimSpace(options[0].StringValue())
		}

		var events []model.Event
		var content string
		if dateText == "" {
			events = Upcoming(as.Aggregator.GetAllEvents(context.Background()), as.Clock.Now())
			content = summary(len(events), "upcoming")
		} else {
			date, err := ResolveDate(as.Natural, dateText, as.Clock.Now().In(as.Config.GetLocation()))
			if err != nil {
				msg := fmt.Sprintf("Can't parse date\n```\n%s```", err.Error())
				if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
					Content: &msg,
				}); err != nil {
					slog.Warn("can't respond", "handler", "events", "content", "bad-date", "error", err)
				}
				return fmt.Errorf("eventsHandler: %w", err)
			}
			events = as.EventStore.List(context.Background(), date)
			content = summary(len(events), date)
		}

		embeds := make([]*discordgo.MessageEmbed, 0, maxEmbeds)
		for _, event := range events {
			if len(embeds) == maxEmbeds {
				break
			}
			embeds = append(embeds, ToDiscordEmbed(event))
		}
		if err := utils.InteractRespEditEmbeds(s, i, content, embeds); err != nil {
			slog.Warn("can't respond", "handler", "events", "content", "events-list", "error", err)
		}
		return nil
	}
}

// ResolveDate accepts a bucket date as is and reads anything else as natural
// language relative to base.
func ResolveDate(p *timeutil.NaturalParser, text string, base time.Time) (string, error) {
	if timeutil.ValidDate(text) {
		return text, nil
	}
	t, err := p.Parse(text, base)
	if err != nil {
		return "", fmt.Errorf("ResolveDate: %w", err)
	}
	return timeutil.Date(t.In(base.Location())), nil
}

// Upcoming keeps the events of the feed that haven't ended at now.
func Upcoming(feed []model.Event, now time.Time) []model.Event {
	events := make([]model.Event, 0, len(feed))
	for _, event := range feed {
		end, err := event.End()
		if err != nil || end.Before(now) {
			continue
		}
		events = append(events, event)
	}
	return events
}

func ToDiscordEmbed(event model.Event) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       event.Title,
		Description: event.Description,
		Footer: &discordgo.MessageEmbedFooter{
			Text: event.ID,
		},
	}
	if start, err := event.Start(); err == nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Start Date",
			Value:  fmt.Sprintf("<t:%d:f>", start.Unix()),
			Inline: true,
		})
	}
	if end, err := event.End(); err == nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "End Date",
			Value:  fmt.Sprintf("<t:%d:f>", end.Unix()),
			Inline: true,
		})
	}
	if event.Location != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Location",
			Value: event.Location,
		})
	}
	return embed
}

func summary(n int, when string) string {
	if n == 0 {
		return fmt.Sprintf("No event for %s", when)
	}
	var suffix string
	if n > 1 {
		suffix = "s"
	}
	if n > maxEmbeds {
		return fmt.Sprintf("There are %d event%s for %s, showing the first %d", n, suffix, when, maxEmbeds)
	}
	return fmt.Sprintf("There are %d event%s for %s", n, suffix, when)
}
