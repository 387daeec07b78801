// Package store keeps events in per-day buckets inside a kv.Storage and
// rebuilds the merged feed across buckets.
//
// Add and Delete read the whole bucket, modify it and write it back. Two
// concurrent writers on the same date can interleave and the later write
// wins. Construct the store WithSerializedWrites to queue mutations per date
// inside one process.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"dayplan/src-server/kv"
	"dayplan/src-server/model"
	"dayplan/src-server/timeutil"
)

const KeyPrefix = "schedule_"

var (
	ErrPersistence = errors.New("persistence error")
	ErrInvalidDate = errors.New("date is not YYYY-MM-DD")
	// ErrParse never leaves this package; broken buckets read as empty.
	ErrParse = errors.New("bucket can't be parsed")
)

// KeyFor maps a YYYY-MM-DD date to its bucket key.
func KeyFor(date string) string {
	return KeyPrefix + date
}

// DateFromKey is the inverse of KeyFor. ok is false for keys outside the
// day-bucket naming scheme.
func DateFromKey(key string) (string, bool) {
	if len(key) <= len(KeyPrefix) || key[:len(KeyPrefix)] != KeyPrefix {
		return "", false
	}
	date := key[len(KeyPrefix):]
	return date, timeutil.ValidDate(date)
}

type Option func(*EventStore)

// WithSerializedWrites makes Add and Delete on the same date run one at a
// time.
func WithSerializedWrites() Option {
	return func(s *EventStore) {
		s.serialize = true
	}
}

type EventStore struct {
	storage kv.Storage

	serialize bool
	mu        sync.Mutex
	locks     map[string]*sync.Mutex
}

func NewEventStore(storage kv.Storage, opts ...Option) *EventStore {
	s := &EventStore{
		storage: storage,
		locks:   make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the bucket for date in stored order. Missing or unreadable
// buckets come back empty.
func (s *EventStore) List(ctx context.Context, date string) []model.Event {
	events, err := s.read(ctx, KeyFor(date))
	if err != nil {
		slog.Warn("can't read bucket", "date", date, "error", err)
		return []model.Event{}
	}
	return events
}

// Add appends event to the bucket of date, keeps the bucket sorted by time
// and writes it back in a single Set. On error the event is not saved.
func (s *EventStore) Add(ctx context.Context, date string, event model.Event) ([]model.Event, error) {
	if !timeutil.ValidDate(date) {
		return nil, fmt.Errorf("(*EventStore).Add: %q: %w", date, ErrInvalidDate)
	}
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("(*EventStore).Add: %w", err)
	}
	defer s.lock(date)()

	key := KeyFor(date)
	events, err := s.readForWrite(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("(*EventStore).Add: %w", err)
	}

	events = append(events, event)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time < events[j].Time
	})

	if err := s.write(ctx, key, events); err != nil {
		return nil, fmt.Errorf("(*EventStore).Add: %w", err)
	}
	slog.Debug("event added", "date", date, "id", event.ID, "bucket_size", len(events))
	return events, nil
}

// Delete removes the first event with eventID from the bucket of date. The
// bucket is written back even when nothing matched.
func (s *EventStore) Delete(ctx context.Context, date string, eventID string) ([]model.Event, error) {
	if !timeutil.ValidDate(date) {
		return nil, fmt.Errorf("(*EventStore).Delete: %q: %w", date, ErrInvalidDate)
	}
	defer s.lock(date)()

	key := KeyFor(date)
	events, err := s.readForWrite(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("(*EventStore).Delete: %w", err)
	}

	for i, e := range events {
		if e.ID == eventID {
			events = append(events[:i], events[i+1:]...)
			break
		}
	}

	if err := s.write(ctx, key, events); err != nil {
		return nil, fmt.Errorf("(*EventStore).Delete: %w", err)
	}
	slog.Debug("event deleted", "date", date, "id", eventID, "bucket_size", len(events))
	return events, nil
}

func (s *EventStore) read(ctx context.Context, key string) ([]model.Event, error) {
	raw, err := s.storage.Get(ctx, key)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		return []model.Event{}, nil
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	events := make([]model.Event, 0)
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrParse, key, err)
	}
	if events == nil {
		// a stored "null"
		events = []model.Event{}
	}
	return events, nil
}

// readForWrite fails on storage errors so a flaky read never clobbers the
// bucket, but starts over from an empty bucket when the stored value is
// unparsable.
func (s *EventStore) readForWrite(ctx context.Context, key string) ([]model.Event, error) {
	events, err := s.read(ctx, key)
	switch {
	case errors.Is(err, ErrParse):
		slog.Warn("replacing unparsable bucket", "key", key, "error", err)
		return []model.Event{}, nil
	case err != nil:
		return nil, err
	}
	return events, nil
}

func (s *EventStore) write(ctx context.Context, key string, events []model.Event) error {
	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("%w: marshal bucket: %w", ErrPersistence, err)
	}
	if err := s.storage.Set(ctx, key, string(data)); err != nil {
		slog.Error("can't write bucket", "key", key, "error", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

func (s *EventStore) lock(date string) func() {
	if !s.serialize {
		return func() {}
	}
	s.mu.Lock()
	l, ok := s.locks[date]
	if !ok {
		l = &sync.Mutex{}
		s.locks[date] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}
