package model

import "github.com/uptrace/bun"

// Trigger is a one-shot notification armed with the local notification
// runtime. Fired triggers are kept for inspection.
type Trigger struct {
	bun.BaseModel `bun:"table:triggers"`

	ID        string `bun:"id,pk"`           // required
	Title     string `bun:"title,notnull"`   // required
	Body      string `bun:"body,notnull"`    // required
	Sound     string `bun:"sound"`
	ChannelID string `bun:"channel_id"`
	FireAt    int64  `bun:"fire_at,notnull"` // unix millis, UTC
	CreatedAt int64  `bun:"created_at,notnull"`
	Fired     bool   `bun:"fired,notnull"`
	FiredAt   int64  `bun:"fired_at"`
}
