package model

import "github.com/uptrace/bun"

// KVEntry is one key of the persistence namespace.
type KVEntry struct {
	bun.BaseModel `bun:"table:kv_entries"`

	Key       string `bun:"storage_key,pk"`     // required
	Value     string `bun:"value,notnull"`      // required
	UpdatedAt int64  `bun:"updated_at,notnull"` // unix seconds, UTC
}
