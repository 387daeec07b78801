// Package notifier is the notification runtime behind reminder.Host: armed
// triggers live in the triggers table until a Dispatcher fires them through
// the configured sinks.
package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dayplan/src-server/model"
	"dayplan/src-server/reminder"
	"dayplan/src-server/timeutil"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Local struct {
	db      bun.IDB
	enabled bool
	clock   timeutil.Clock

	mu       sync.RWMutex
	channels map[string]reminder.Channel
}

// NewLocal returns a runtime whose permission answer is fixed by enabled,
// standing in for the user's choice on a device.
func NewLocal(db bun.IDB, enabled bool, clock timeutil.Clock) *Local {
	if clock == nil {
		clock = timeutil.SystemClock{}
	}
	return &Local{
		db:       db,
		enabled:  enabled,
		clock:    clock,
		channels: make(map[string]reminder.Channel),
	}
}

func (l *Local) PermissionStatus(ctx context.Context) (reminder.PermissionStatus, error) {
	if l.enabled {
		return reminder.PermissionGranted, nil
	}
	return reminder.PermissionDenied, nil
}

func (l *Local) RequestPermission(ctx context.Context) (reminder.PermissionStatus, error) {
	return l.PermissionStatus(ctx)
}

func (l *Local) SetChannel(ctx context.Context, channel reminder.Channel) error {
	if channel.ID == "" {
		return fmt.Errorf("(*Local).SetChannel: channel id is blank")
	}
	l.mu.Lock()
	l.channels[channel.ID] = channel
	l.mu.Unlock()
	return nil
}

func (l *Local) Channel(id string) (reminder.Channel, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	channel, ok := l.channels[id]
	return channel, ok
}

func (l *Local) Schedule(ctx context.Context, req reminder.Request) (string, error) {
	if req.Trigger.Type != reminder.TriggerTypeDate {
		return "", fmt.Errorf("(*Local).Schedule: unsupported trigger type %q", req.Trigger.Type)
	}
	fireAt, err := timeutil.FromUTC(req.Trigger.Instant)
	if err != nil {
		return "", fmt.Errorf("(*Local).Schedule: %w", err)
	}
	trigger := model.Trigger{
		ID:        uuid.NewString(),
		Title:     req.Content.Title,
		Body:      req.Content.Body,
		Sound:     req.Content.Sound,
		ChannelID: req.Trigger.ChannelID,
		FireAt:    fireAt.UnixMilli(),
		CreatedAt: l.clock.Now().UTC().Unix(),
	}
	if _, err := l.db.NewInsert().
		Model(&trigger).
		Exec(ctx); err != nil {
		return "", fmt.Errorf("(*Local).Schedule: %w", err)
	}
	return trigger.ID, nil
}

// CancelAll removes every trigger that has not fired yet.
func (l *Local) CancelAll(ctx context.Context) error {
	if _, err := l.db.NewDelete().
		Model((*model.Trigger)(nil)).
		Where("fired = ?", false).
		Exec(ctx); err != nil {
		return fmt.Errorf("(*Local).CancelAll: %w", err)
	}
	return nil
}

// Pending lists unfired triggers, soonest first.
func (l *Local) Pending(ctx context.Context) ([]model.Trigger, error) {
	triggers := make([]model.Trigger, 0)
	if err := l.db.NewSelect().
		Model(&triggers).
		Where("fired = ?", false).
		Order("fire_at ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("(*Local).Pending: %w", err)
	}
	return triggers, nil
}

// Due lists unfired triggers whose time is at or before now.
func (l *Local) Due(ctx context.Context, now time.Time) ([]model.Trigger, error) {
	triggers := make([]model.Trigger, 0)
	if err := l.db.NewSelect().
		Model(&triggers).
		Where("fired = ?", false).
		Where("fire_at <= ?", now.UnixMilli()).
		Order("fire_at ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("(*Local).Due: %w", err)
	}
	return triggers, nil
}

func (l *Local) MarkFired(ctx context.Context, id string, at time.Time) error {
	if _, err := l.db.NewUpdate().
		Model((*model.Trigger)(nil)).
		Set("fired = ?", true).
		Set("fired_at = ?", at.UTC().Unix()).
		Where("id = ?", id).
		Exec(ctx); err != nil {
		return fmt.Errorf("(*Local).MarkFired: %w", err)
	}
	return nil
}
