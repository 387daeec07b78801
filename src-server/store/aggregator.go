package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"dayplan/src-server/kv"
	"dayplan/src-server/model"
	"dayplan/src-server/timeutil"

	"github.com/google/uuid"
)

// UntitledTitle replaces a missing title when rebuilding the feed.
const UntitledTitle = "(untitled)"

// Aggregator reads every day bucket and merges them into one feed. It
// never writes buckets.
type Aggregator struct {
	storage kv.Storage
	newID   func() string
	zone    *time.Location
}

type AggregatorOption func(*Aggregator)

// WithZone sets the zone a missing "time" is derived in. Defaults to UTC.
func WithZone(zone *time.Location) AggregatorOption {
	return func(a *Aggregator) {
		if zone != nil {
			a.zone = zone
		}
	}
}

func NewAggregator(storage kv.Storage, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		storage: storage,
		newID:   uuid.NewString,
		zone:    time.UTC,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetAllEvents returns the events of every bucket ordered by start instant.
// A corrupt bucket is logged and skipped; a storage failure yields an empty
// feed.
func (a *Aggregator) GetAllEvents(ctx context.Context) []model.Event {
	keys, err := a.storage.GetAllKeys(ctx)
	if err != nil {
		slog.Error("can't list storage keys", "error", err)
		return []model.Event{}
	}
	bucketKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		if _, ok := DateFromKey(key); ok {
			bucketKeys = append(bucketKeys, key)
		}
	}
	if len(bucketKeys) == 0 {
		return []model.Event{}
	}

	entries, err := a.storage.MultiGet(ctx, bucketKeys)
	if err != nil {
		slog.Error("can't read buckets", "count", len(bucketKeys), "error", err)
		return []model.Event{}
	}

	events := make([]model.Event, 0)
	for _, entry := range entries {
		bucket, err := a.decodeBucket(entry)
		if err != nil {
			slog.Warn("skipping bucket", "key", entry.Key, "error", err)
			continue
		}
		events = append(events, bucket...)
	}

	sortByStart(events)
	return events
}

// Dump is a raw snapshot of the whole namespace, for debugging only.
func (a *Aggregator) Dump(ctx context.Context) (map[string]string, error) {
	keys, err := a.storage.GetAllKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("(*Aggregator).Dump: %w", err)
	}
	entries, err := a.storage.MultiGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("(*Aggregator).Dump: %w", err)
	}
	dump := make(map[string]string, len(entries))
	for _, entry := range entries {
		dump[entry.Key] = entry.Value
	}
	return dump, nil
}

// ClearAll wipes the whole namespace, buckets and everything else.
func (a *Aggregator) ClearAll(ctx context.Context) error {
	if err := a.storage.Clear(ctx); err != nil {
		return fmt.Errorf("(*Aggregator).ClearAll: %w: %w", ErrPersistence, err)
	}
	slog.Warn("storage cleared")
	return nil
}

func (a *Aggregator) decodeBucket(entry kv.Entry) ([]model.Event, error) {
	records := make([]json.RawMessage, 0)
	if err := json.Unmarshal([]byte(entry.Value), &records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	events := make([]model.Event, 0, len(records))
	for i, record := range records {
		raw := make(map[string]any)
		if err := json.Unmarshal(record, &raw); err != nil {
			slog.Warn("skipping record", "key", entry.Key, "index", i, "error", err)
			continue
		}
		events = append(events, a.normalize(raw))
	}
	return events, nil
}

// normalize maps a loosely typed record onto the canonical Event shape.
func (a *Aggregator) normalize(raw map[string]any) model.Event {
	e := model.Event{
		ID:          field(raw, "id"),
		Title:       field(raw, "title"),
		Time:        field(raw, "time"),
		StartTime:   field(raw, "startTime"),
		EndTime:     field(raw, "endTime"),
		Location:    field(raw, "location"),
		Description: field(raw, "description"),
		Color:       field(raw, "color"),
	}
	if e.ID == "" {
		e.ID = a.newID()
	}
	if e.Title == "" {
		e.Title = UntitledTitle
	}
	if e.Time == "" {
		if start, err := e.Start(); err == nil {
			e.Time = start.In(a.zone).Format(model.TimeLayout)
		}
	}
	return e
}

func field(raw map[string]any, name string) string {
	switch v := raw[name].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// sortByStart orders events by parsed start instant. Events whose start
// can't be parsed go last, in their original order.
func sortByStart(events []model.Event) {
	type keyed struct {
		start time.Time
		ok    bool
	}
	keys := make(map[int]keyed, len(events))
	idx := make([]int, len(events))
	for i := range events {
		idx[i] = i
		start, err := timeutil.Parse(events[i].StartTime)
		keys[i] = keyed{start: start, ok: err == nil}
	}
	sort.SliceStable(idx, func(i, j int) bool {
		ki, kj := keys[idx[i]], keys[idx[j]]
		switch {
		case ki.ok && kj.ok:
			return ki.start.Before(kj.start)
		case ki.ok:
			return true
		default:
			return false
		}
	})
	sorted := make([]model.Event, len(events))
	for i, j := range idx {
		sorted[i] = events[j]
	}
	copy(events, sorted)
}
