package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dayplan/src-server/timeutil"
)

var ErrInvalidEvent = errors.New("invalid event")

// TimeLayout is the display form stored in Event.Time.
const TimeLayout = "15:04"

// Event is the persisted unit inside a day bucket. The JSON shape is the
// storage wire format.
type Event struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Time        string `json:"time"`      // "HH:mm", display only
	StartTime   string `json:"startTime"` // ISO-8601
	EndTime     string `json:"endTime"`   // ISO-8601
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
}

type NewEventParams struct {
	ID          string // generated from the current time when blank
	Title       string
	Location    string
	Description string
	Color       string
	Start       time.Time
	End         time.Time
	Zone        *time.Location // zone for Time and the bucket date, UTC when nil
}

// NewEvent builds a validated Event and returns it with the date of the
// bucket it belongs to.
func NewEvent(p NewEventParams) (Event, string, error) {
	zone := p.Zone
	if zone == nil {
		zone = time.UTC
	}
	switch {
	case p.Start.IsZero():
		return Event{}, "", fmt.Errorf("NewEvent: start time is blank: %w", ErrInvalidEvent)
	case p.End.IsZero():
		return Event{}, "", fmt.Errorf("NewEvent: end time is blank: %w", ErrInvalidEvent)
	}
	id := p.ID
	if id == "" {
		id = strconv.FormatInt(time.Now().UnixMilli(), 10)
	}
	e := Event{
		ID:          id,
		Title:       p.Title,
		Time:        p.Start.In(zone).Format(TimeLayout),
		StartTime:   timeutil.ToUTC(p.Start),
		EndTime:     timeutil.ToUTC(p.End),
		Location:    p.Location,
		Description: p.Description,
		Color:       p.Color,
	}
	if err := e.Validate(); err != nil {
		return Event{}, "", fmt.Errorf("NewEvent: %w", err)
	}
	return e, BucketDate(p.Start, zone), nil
}

// BucketDate is the YYYY-MM-DD of start in zone.
func BucketDate(start time.Time, zone *time.Location) string {
	if zone == nil {
		zone = time.UTC
	}
	return timeutil.Date(start.In(zone))
}

func (e *Event) Validate() error {
	switch {
	case e.ID == "":
		return fmt.Errorf("(*Event).Validate: id is blank: %w", ErrInvalidEvent)
	case strings.TrimSpace(e.Title) == "":
		return fmt.Errorf("(*Event).Validate: title is blank: %w", ErrInvalidEvent)
	}
	if t, err := time.Parse(TimeLayout, e.Time); err != nil || t.Format(TimeLayout) != e.Time {
		return fmt.Errorf("(*Event).Validate: time %q is not HH:mm: %w", e.Time, ErrInvalidEvent)
	}
	start, err := e.Start()
	if err != nil {
		return fmt.Errorf("(*Event).Validate: start time: %w: %w", ErrInvalidEvent, err)
	}
	end, err := e.End()
	if err != nil {
		return fmt.Errorf("(*Event).Validate: end time: %w: %w", ErrInvalidEvent, err)
	}
	if end.Before(start) {
		return fmt.Errorf("(*Event).Validate: end time is before start time: %w", ErrInvalidEvent)
	}
	return nil
}

func (e *Event) Start() (time.Time, error) {
	return timeutil.Parse(e.StartTime)
}

func (e *Event) End() (time.Time, error) {
	return timeutil.Parse(e.EndTime)
}
