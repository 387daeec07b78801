package handler_test

import (
	"errors"
	"testing"
	"time"

	"dayplan/src-server/handler"
	"dayplan/src-server/model"
	"dayplan/src-server/timeutil"
)

func TestResolveDate(t *testing.T) {
	p := timeutil.NewNaturalParser()
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want string
	}{
		{"2024-05-17", "2024-05-17"},
		{"tomorrow", "2024-03-02"},
		{"today", "2024-03-01"},
	}
	for _, tt := range tests {
		got, err := handler.ResolveDate(p, tt.in, base)
		if err != nil || got != tt.want {
			t.Errorf("ResolveDate(%q) = %q, %v, want %q", tt.in, got, err, tt.want)
		}
	}
	if _, err := handler.ResolveDate(p, "whenever", base); !errors.Is(err, timeutil.ErrInvalidTime) {
		t.Errorf("expected ErrInvalidTime, got %v", err)
	}
}

func TestUpcoming(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	feed := []model.Event{
		{ID: "over", StartTime: "2024-03-01T06:00:00.000Z", EndTime: "2024-03-01T07:00:00.000Z"},
		{ID: "running", StartTime: "2024-03-01T07:30:00.000Z", EndTime: "2024-03-01T08:30:00.000Z"},
		{ID: "broken", StartTime: "2024-03-01T09:00:00.000Z", EndTime: "later"},
		{ID: "next", StartTime: "2024-03-01T09:00:00.000Z", EndTime: "2024-03-01T10:00:00.000Z"},
	}
	got := handler.Upcoming(feed, now)
	if len(got) != 2 || got[0].ID != "running" || got[1].ID != "next" {
		t.Errorf("Upcoming() = %+v", got)
	}
}

func TestToDiscordEmbed(t *testing.T) {
	embed := handler.ToDiscordEmbed(model.Event{
		ID:        "1",
		Title:     "Standup",
		StartTime: "2024-03-01T09:00:00.000Z",
		EndTime:   "2024-03-01T09:15:00.000Z",
		Location:  "Room 4",
	})
	if embed.Title != "Standup" || embed.Footer.Text != "1" || len(embed.Fields) != 3 {
		t.Fatalf("embed = %+v", embed)
	}
	if embed.Fields[0].Value != "<t:1709283600:f>" || embed.Fields[2].Value != "Room 4" {
		t.Errorf("fields = %+v %+v", embed.Fields[0], embed.Fields[2])
	}

	// unparsable times leave the date fields out
	embed = handler.ToDiscordEmbed(model.Event{ID: "2", Title: "x", StartTime: "?", EndTime: "?"})
	if len(embed.Fields) != 0 {
		t.Errorf("fields = %+v", embed.Fields)
	}
}
