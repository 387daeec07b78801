// Package ical renders the aggregated feed as an iCalendar document.
package ical

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"dayplan/src-server/model"

	ics "github.com/arran4/golang-ical"
)

const ProductID = "-//dayplan//calendar//EN"

// FromEvents builds one VEVENT per event. Events whose start or end can't
// be parsed are skipped; they are still listed by the JSON feed.
func FromEvents(events []model.Event, name string, stamp time.Time) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(ProductID)
	if name != "" {
		cal.SetXWRCalName(name)
	}
	for _, event := range events {
		start, err := event.Start()
		if err != nil {
			slog.Warn("ical: skipping event with bad start", "id", event.ID, "error", err)
			continue
		}
		end, err := event.End()
		if err != nil {
			slog.Warn("ical: skipping event with bad end", "id", event.ID, "error", err)
			continue
		}
		vevent := cal.AddEvent(event.ID + "@dayplan")
		vevent.SetDtStampTime(stamp.UTC())
		vevent.SetStartAt(start.UTC())
		vevent.SetEndAt(end.UTC())
		vevent.SetSummary(event.Title)
		if event.Location != "" {
			vevent.SetLocation(event.Location)
		}
		if event.Description != "" {
			vevent.SetDescription(event.Description)
		}
		if event.Color != "" {
			vevent.SetColor(event.Color)
		}
	}
	return cal
}

func Write(w io.Writer, events []model.Event, name string, stamp time.Time) error {
	if err := FromEvents(events, name, stamp).SerializeTo(w); err != nil {
		return fmt.Errorf("Write: %w", err)
	}
	return nil
}
