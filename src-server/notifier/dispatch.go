package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"dayplan/src-server/model"
	"dayplan/src-server/timeutil"

	"github.com/robfig/cron/v3"
)

// Dispatcher fires due triggers. A trigger is marked fired once at least one
// sink accepted it; when every sink fails it stays pending for the next tick.
type Dispatcher struct {
	local *Local
	sinks []Sink
	clock timeutil.Clock

	// optional send latency hook, fed to the metric gauges by the app
	OnSend func(time.Duration)

	mu sync.Mutex // one tick at a time
}

func NewDispatcher(local *Local, clock timeutil.Clock, sinks ...Sink) *Dispatcher {
	if clock == nil {
		clock = timeutil.SystemClock{}
	}
	return &Dispatcher{local: local, sinks: sinks, clock: clock}
}

// Tick fires everything due now and returns how many triggers fired.
func (d *Dispatcher) Tick(ctx context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	due, err := d.local.Due(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("(*Dispatcher).Tick: %w", err)
	}

	fired := 0
	for _, trigger := range due {
		if !d.deliver(ctx, trigger) {
			continue
		}
		if err := d.local.MarkFired(ctx, trigger.ID, now); err != nil {
			slog.Error("Dispatcher: can't mark trigger fired", "trigger_id", trigger.ID, "error", err)
			continue
		}
		fired++
	}
	return fired, nil
}

func (d *Dispatcher) deliver(ctx context.Context, trigger model.Trigger) bool {
	n := Notification{
		TriggerID: trigger.ID,
		Title:     trigger.Title,
		Body:      trigger.Body,
		Sound:     trigger.Sound,
		ChannelID: trigger.ChannelID,
		FireAt:    time.UnixMilli(trigger.FireAt).UTC(),
	}
	if len(d.sinks) == 0 {
		return true
	}
	delivered := false
	for _, sink := range d.sinks {
		start := time.Now()
		if err := sink.Send(ctx, n); err != nil {
			slog.Warn("Dispatcher: can't send notification", "sink", sink.Name(), "trigger_id", trigger.ID, "error", err)
			continue
		}
		if d.OnSend != nil {
			d.OnSend(time.Since(start))
		}
		delivered = true
	}
	return delivered
}

// Start runs Tick on the cron spec (e.g. "@every 15s") until the returned
// stop function is called.
func (d *Dispatcher) Start(spec string) (func(), error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if n, err := d.Tick(context.Background()); err != nil {
			slog.Error("Dispatcher: tick failed", "error", err)
		} else if n > 0 {
			slog.Debug("Dispatcher: triggers fired", "count", n)
		}
	}); err != nil {
		return nil, fmt.Errorf("(*Dispatcher).Start: %w", err)
	}
	c.Start()
	return func() {
		<-c.Stop().Done()
	}, nil
}
