package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dayplan/src-server/model"

	"github.com/uptrace/bun"
)

// Bun keeps the namespace in the kv_entries table.
type Bun struct {
	db bun.IDB

	// optional latency hooks, fed to the metric gauges by the app
	OnRead  func(time.Duration)
	OnWrite func(time.Duration)
}

func NewBun(db bun.IDB) *Bun {
	return &Bun{db: db}
}

func (b *Bun) Get(ctx context.Context, key string) (string, error) {
	defer b.observe(b.OnRead, time.Now())
	entry := new(model.KVEntry)
	err := b.db.NewSelect().
		Model(entry).
		Where("storage_key = ?", key).
		Scan(ctx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", fmt.Errorf("(*Bun).Get: %q: %w", key, ErrNotFound)
	case err != nil:
		return "", fmt.Errorf("(*Bun).Get: %w", err)
	}
	return entry.Value, nil
}

func (b *Bun) Set(ctx context.Context, key, value string) error {
	defer b.observe(b.OnWrite, time.Now())
	entry := &model.KVEntry{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC().Unix(),
	}
	if _, err := b.db.NewInsert().
		Model(entry).
		On("CONFLICT (storage_key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("(*Bun).Set: %w", err)
	}
	return nil
}

func (b *Bun) GetAllKeys(ctx context.Context) ([]string, error) {
	defer b.observe(b.OnRead, time.Now())
	keys := make([]string, 0)
	if err := b.db.NewSelect().
		Model((*model.KVEntry)(nil)).
		Column("storage_key").
		Order("storage_key ASC").
		Scan(ctx, &keys); err != nil {
		return nil, fmt.Errorf("(*Bun).GetAllKeys: %w", err)
	}
	return keys, nil
}

func (b *Bun) MultiGet(ctx context.Context, keys []string) ([]Entry, error) {
	if len(keys) == 0 {
		return []Entry{}, nil
	}
	defer b.observe(b.OnRead, time.Now())
	rows := make([]model.KVEntry, 0, len(keys))
	if err := b.db.NewSelect().
		Model(&rows).
		Where("storage_key IN (?)", bun.In(keys)).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("(*Bun).MultiGet: %w", err)
	}
	byKey := make(map[string]string, len(rows))
	for _, row := range rows {
		byKey[row.Key] = row.Value
	}
	entries := make([]Entry, 0, len(rows))
	for _, key := range keys {
		if value, ok := byKey[key]; ok {
			entries = append(entries, Entry{Key: key, Value: value})
		}
	}
	return entries, nil
}

func (b *Bun) Delete(ctx context.Context, key string) error {
	defer b.observe(b.OnWrite, time.Now())
	if _, err := b.db.NewDelete().
		Model((*model.KVEntry)(nil)).
		Where("storage_key = ?", key).
		Exec(ctx); err != nil {
		return fmt.Errorf("(*Bun).Delete: %w", err)
	}
	return nil
}

func (b *Bun) Clear(ctx context.Context) error {
	defer b.observe(b.OnWrite, time.Now())
	if _, err := b.db.NewDelete().
		Model((*model.KVEntry)(nil)).
		Where("1 = 1").
		Exec(ctx); err != nil {
		return fmt.Errorf("(*Bun).Clear: %w", err)
	}
	return nil
}

func (b *Bun) observe(hook func(time.Duration), start time.Time) {
	if hook != nil {
		hook(time.Since(start))
	}
}
