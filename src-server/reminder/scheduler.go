package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dayplan/src-server/timeutil"
)

const (
	DefaultMinLead = 5 * time.Second

	NotificationTitle = "📅 Reminder"
	NotificationSound = "default"
)

// DefaultChannel is registered with the host during Setup.
var DefaultChannel = Channel{
	ID:               "calendar-reminders",
	Name:             "Calendar reminders",
	Importance:       ImportanceMax,
	VibrationPattern: []int{0, 250, 250, 250},
	LightColor:       "#FF231F7C",
}

func NotificationBody(title string) string {
	return "Starting soon: " + title
}

type Option func(*Scheduler)

func WithClock(clock timeutil.Clock) Option {
	return func(s *Scheduler) { s.clock = clock }
}

// WithMinLead sets the guard window: targets closer than this are treated
// as already past. Values under one second are raised to one second.
func WithMinLead(d time.Duration) Option {
	return func(s *Scheduler) {
		if d < time.Second {
			d = time.Second
		}
		s.minLead = d
	}
}

func WithChannel(channel Channel) Option {
	return func(s *Scheduler) { s.channel = channel }
}

// WithResultHook observes every scheduling outcome, e.g. for metrics.
func WithResultHook(hook func(Result)) Option {
	return func(s *Scheduler) { s.onResult = hook }
}

// Scheduler maps "notify me when this event starts" onto Host triggers.
// It does not remember what it armed: callers that want to reschedule must
// keep the returned trigger ids themselves.
type Scheduler struct {
	host     Host
	clock    timeutil.Clock
	minLead  time.Duration
	channel  Channel
	onResult func(Result)
}

func NewScheduler(host Host, opts ...Option) *Scheduler {
	s := &Scheduler{
		host:    host,
		clock:   timeutil.SystemClock{},
		minLead: DefaultMinLead,
		channel: DefaultChannel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Setup makes sure notifications are allowed, asking the host when the
// status is not granted yet, and registers the reminder channel. It
// reports false when the user denied permission.
func (s *Scheduler) Setup(ctx context.Context) (bool, error) {
	status, err := s.host.PermissionStatus(ctx)
	if err != nil {
		return false, fmt.Errorf("(*Scheduler).Setup: permission status: %w", err)
	}
	if status != PermissionGranted {
		status, err = s.host.RequestPermission(ctx)
		if err != nil {
			return false, fmt.Errorf("(*Scheduler).Setup: request permission: %w", err)
		}
	}
	if status != PermissionGranted {
		slog.Info("notification permission denied", "status", status)
		return false, nil
	}
	if err := s.host.SetChannel(ctx, s.channel); err != nil {
		return false, fmt.Errorf("(*Scheduler).Setup: set channel: %w", err)
	}
	return true, nil
}

// ScheduleReminder arms one trigger for target. Every call arms a new
// trigger, so scheduling the same event twice fires twice.
func (s *Scheduler) ScheduleReminder(ctx context.Context, title string, target time.Time) Result {
	result := s.schedule(ctx, title, target)
	if s.onResult != nil {
		s.onResult(result)
	}
	return result
}

func (s *Scheduler) schedule(ctx context.Context, title string, target time.Time) Result {
	granted, err := s.Setup(ctx)
	if err != nil {
		slog.Error("can't check notification permission", "error", err)
		return Rejected(ReasonHostError, 0)
	}
	if !granted {
		return Rejected(ReasonPermissionDenied, 0)
	}

	lead, err := timeutil.Until(s.clock, target)
	if err != nil {
		slog.Info("reminder not scheduled", "title", title, "error", err)
		return Rejected(ReasonInvalidTime, 0)
	}
	seconds := timeutil.ToSeconds(lead)
	if seconds < timeutil.ToSeconds(s.minLead) {
		slog.Info("reminder not scheduled, time already passed", "title", title, "seconds", seconds)
		return Rejected(ReasonTooSoon, seconds)
	}

	triggerID, err := s.host.Schedule(ctx, Request{
		Content: Content{
			Title: NotificationTitle,
			Body:  NotificationBody(title),
			Sound: NotificationSound,
		},
		Trigger: DateTrigger{
			Type:      TriggerTypeDate,
			Instant:   timeutil.ToUTC(target),
			ChannelID: s.channel.ID,
		},
	})
	if err != nil {
		slog.Error("can't schedule reminder", "title", title, "error", err)
		return Rejected(ReasonHostError, seconds)
	}
	slog.Info("reminder scheduled", "title", title, "seconds", seconds, "trigger_id", triggerID)
	return Armed(triggerID, seconds)
}

// CancelAll cancels every pending trigger on the host, including ones this
// Scheduler did not arm.
func (s *Scheduler) CancelAll(ctx context.Context) error {
	if err := s.host.CancelAll(ctx); err != nil {
		return fmt.Errorf("(*Scheduler).CancelAll: %w", err)
	}
	return nil
}
