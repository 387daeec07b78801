package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"dayplan/src-server/kv"
	"dayplan/src-server/store"
	"dayplan/src-server/timeutil"
)

func TestGetAllEventsOrdersByInstant(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemory()
	s := store.NewEventStore(storage)

	// bucket key order and display time disagree with the true instants
	late := newEvent("late", "Late", "07:00")
	late.StartTime = "2024-03-02T07:00:00+08:00" // 2024-03-01T23:00Z
	late.EndTime = "2024-03-02T08:00:00+08:00"
	early := newEvent("early", "Early", "22:00")
	early.StartTime = "2024-03-01T22:00:00Z"
	early.EndTime = "2024-03-01T22:30:00Z"
	first := newEvent("first", "First", "09:00")
	first.StartTime = "2024-02-28T09:00:00.000Z"
	first.EndTime = "2024-02-28T10:00:00.000Z"

	if _, err := s.Add(ctx, "2024-03-02", late); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(ctx, "2024-03-01", early); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(ctx, "2024-02-28", first); err != nil {
		t.Fatal(err)
	}

	feed := store.NewAggregator(storage).GetAllEvents(ctx)
	if len(feed) != 3 {
		t.Fatalf("GetAllEvents() returned %d events", len(feed))
	}
	wantOrder := []string{"first", "early", "late"}
	for i, id := range wantOrder {
		if feed[i].ID != id {
			t.Errorf("feed[%d] = %q, want %q", i, feed[i].ID, id)
		}
	}
	var prev time.Time
	for i, e := range feed {
		start, err := timeutil.Parse(e.StartTime)
		if err != nil {
			t.Fatal(err)
		}
		if i > 0 && start.Before(prev) {
			t.Errorf("feed not ordered at %d", i)
		}
		prev = start
	}
}

func TestGetAllEventsSkipsCorruptBuckets(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemory()
	s := store.NewEventStore(storage)

	if _, err := s.Add(ctx, "2024-03-01", newEvent("ok", "Fine", "09:00")); err != nil {
		t.Fatal(err)
	}
	for key, value := range map[string]string{
		"schedule_2024-03-02": "{{{ not json",
		"schedule_2024-03-03": `{"id":"object, not array"}`,
		"settings":            `[{"id":"not a bucket","title":"x"}]`,
	} {
		if err := storage.Set(ctx, key, value); err != nil {
			t.Fatal(err)
		}
	}

	feed := store.NewAggregator(storage).GetAllEvents(ctx)
	if len(feed) != 1 || feed[0].ID != "ok" {
		t.Errorf("GetAllEvents() = %+v", feed)
	}
}

func TestGetAllEventsNormalizesRecords(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemory()
	if err := storage.Set(ctx, "schedule_2024-03-01", `[
		{"startTime":"2024-03-01T10:00:00Z","endTime":"2024-03-01T11:00:00Z"},
		{"id":42,"title":"Numbered","startTime":"2024-03-01T08:00:00Z","endTime":"2024-03-01T08:15:00Z","location":"","color":"#ff0000"},
		"not an object"
	]`); err != nil {
		t.Fatal(err)
	}

	feed := store.NewAggregator(storage).GetAllEvents(ctx)
	if len(feed) != 2 {
		t.Fatalf("GetAllEvents() = %+v", feed)
	}

	numbered, anonymous := feed[0], feed[1]
	if numbered.ID != "42" || numbered.Title != "Numbered" || numbered.Color != "#ff0000" {
		t.Errorf("numbered record = %+v", numbered)
	}
	if numbered.Location != "" || numbered.Description != "" {
		t.Errorf("absent optional fields were filled: %+v", numbered)
	}
	if numbered.Time != "08:00" {
		t.Errorf("time not derived from start: %q", numbered.Time)
	}
	if anonymous.ID == "" {
		t.Error("missing id was not replaced by a placeholder")
	}
	if anonymous.Title != store.UntitledTitle {
		t.Errorf("missing title = %q", anonymous.Title)
	}
}

func TestGetAllEventsDerivesTimeInZone(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemory()
	if err := storage.Set(ctx, "schedule_2024-03-01",
		`[{"id":"1","title":"x","startTime":"2024-03-01T08:00:00Z","endTime":"2024-03-01T09:00:00Z"}]`); err != nil {
		t.Fatal(err)
	}
	zone := time.FixedZone("UTC+2", 2*60*60)
	tests := []struct {
		name string
		agg  *store.Aggregator
		want string
	}{
		{"default", store.NewAggregator(storage), "08:00"},
		{"zoned", store.NewAggregator(storage, store.WithZone(zone)), "10:00"},
		{"nil zone", store.NewAggregator(storage, store.WithZone(nil)), "08:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := tt.agg.GetAllEvents(ctx)
			if len(feed) != 1 || feed[0].Time != tt.want {
				t.Errorf("GetAllEvents() = %+v, want time %q", feed, tt.want)
			}
		})
	}
}

func TestGetAllEventsEmpty(t *testing.T) {
	feed := store.NewAggregator(kv.NewMemory()).GetAllEvents(context.Background())
	if feed == nil || len(feed) != 0 {
		t.Errorf("GetAllEvents() = %#v", feed)
	}
}

func TestDumpAndClearAll(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemory()
	s := store.NewEventStore(storage)
	agg := store.NewAggregator(storage)

	if _, err := s.Add(ctx, "2024-03-01", newEvent("a", "Review", "09:00")); err != nil {
		t.Fatal(err)
	}
	if err := storage.Set(ctx, "settings", "raw value"); err != nil {
		t.Fatal(err)
	}

	dump, err := agg.Dump(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(dump) != 2 || dump["settings"] != "raw value" || dump["schedule_2024-03-01"] == "" {
		t.Errorf("Dump() = %v", dump)
	}

	if err := agg.ClearAll(ctx); err != nil {
		t.Fatal(err)
	}
	dump, err = agg.Dump(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(dump) != 0 {
		t.Errorf("Dump() after ClearAll() = %v", dump)
	}
	if events := s.List(ctx, "2024-03-01"); len(events) != 0 {
		t.Errorf("List() after ClearAll() = %+v", events)
	}
}

type failingKeys struct{ kv.Storage }

func (failingKeys) GetAllKeys(context.Context) ([]string, error) { return nil, errDisk }
func (failingKeys) Clear(context.Context) error                  { return errDisk }

func TestAggregatorStorageFailures(t *testing.T) {
	ctx := context.Background()
	agg := store.NewAggregator(failingKeys{kv.NewMemory()})
	if feed := agg.GetAllEvents(ctx); len(feed) != 0 {
		t.Errorf("GetAllEvents() = %+v", feed)
	}
	if _, err := agg.Dump(ctx); !errors.Is(err, errDisk) {
		t.Errorf("Dump() error = %v", err)
	}
	if err := agg.ClearAll(ctx); !errors.Is(err, store.ErrPersistence) {
		t.Errorf("ClearAll() error = %v", err)
	}
}
