package kv_test

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"
	"time"

	"dayplan/src-server/kv"
	"dayplan/src-server/model"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newBunDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// every new connection to :memory: is a fresh database
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })
	if err := model.CreateSchema(context.Background(), db); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestStorage(t *testing.T) {
	implementations := map[string]func(t *testing.T) kv.Storage{
		"memory": func(t *testing.T) kv.Storage { return kv.NewMemory() },
		"bun":    func(t *testing.T) kv.Storage { return kv.NewBun(newBunDB(t)) },
	}
	for name, newStorage := range implementations {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStorage(t)

			// case: missing key
			if _, err := s.Get(ctx, "schedule_2024-03-01"); !errors.Is(err, kv.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}

			// case: set, overwrite, get
			if err := s.Set(ctx, "schedule_2024-03-01", "[]"); err != nil {
				t.Fatal(err)
			}
			if err := s.Set(ctx, "schedule_2024-03-01", `[{"id":"1"}]`); err != nil {
				t.Fatal(err)
			}
			if err := s.Set(ctx, "settings", "{}"); err != nil {
				t.Fatal(err)
			}
			if err := s.Set(ctx, "schedule_2024-02-28", "[]"); err != nil {
				t.Fatal(err)
			}
			value, err := s.Get(ctx, "schedule_2024-03-01")
			if err != nil {
				t.Fatal(err)
			}
			if value != `[{"id":"1"}]` {
				t.Errorf("Get() = %q", value)
			}

			// case: keys are sorted
			keys, err := s.GetAllKeys(ctx)
			if err != nil {
				t.Fatal(err)
			}
			wantKeys := []string{"schedule_2024-02-28", "schedule_2024-03-01", "settings"}
			if !reflect.DeepEqual(keys, wantKeys) {
				t.Errorf("GetAllKeys() = %v, want %v", keys, wantKeys)
			}

			// case: multi get keeps request order and skips absent keys
			entries, err := s.MultiGet(ctx, []string{"settings", "missing", "schedule_2024-02-28"})
			if err != nil {
				t.Fatal(err)
			}
			wantEntries := []kv.Entry{
				{Key: "settings", Value: "{}"},
				{Key: "schedule_2024-02-28", Value: "[]"},
			}
			if !reflect.DeepEqual(entries, wantEntries) {
				t.Errorf("MultiGet() = %v, want %v", entries, wantEntries)
			}
			if entries, err := s.MultiGet(ctx, nil); err != nil || len(entries) != 0 {
				t.Errorf("MultiGet(nil) = %v, %v", entries, err)
			}

			// case: delete
			if err := s.Delete(ctx, "settings"); err != nil {
				t.Fatal(err)
			}
			if _, err := s.Get(ctx, "settings"); !errors.Is(err, kv.ErrNotFound) {
				t.Errorf("deleted key still readable: %v", err)
			}

			// case: clear
			if err := s.Clear(ctx); err != nil {
				t.Fatal(err)
			}
			keys, err = s.GetAllKeys(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if len(keys) != 0 {
				t.Errorf("keys left after Clear(): %v", keys)
			}
		})
	}
}

func TestBunLatencyHooks(t *testing.T) {
	ctx := context.Background()
	s := kv.NewBun(newBunDB(t))
	var reads, writes int
	s.OnRead = func(time.Duration) { reads++ }
	s.OnWrite = func(time.Duration) { writes++ }

	if err := s.Set(ctx, "a", "1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetAllKeys(ctx); err != nil {
		t.Fatal(err)
	}
	if reads != 2 || writes != 1 {
		t.Errorf("reads = %d, writes = %d", reads, writes)
	}
}
