// Package reminder arms one-shot notifications at an event's start time on
// top of a host notification runtime.
package reminder

import "context"

type PermissionStatus string

const (
	PermissionGranted      PermissionStatus = "granted"
	PermissionDenied       PermissionStatus = "denied"
	PermissionUndetermined PermissionStatus = "undetermined"
)

type Importance int

const (
	ImportanceDefault Importance = iota
	ImportanceHigh
	ImportanceMax
)

// Channel groups notifications on hosts that support it.
type Channel struct {
	ID               string
	Name             string
	Importance       Importance
	VibrationPattern []int
	LightColor       string
}

type Content struct {
	Title string
	Body  string
	Sound string
}

const TriggerTypeDate = "date"

// DateTrigger fires once at Instant, a UTC timestamp in timeutil.UTCLayout.
type DateTrigger struct {
	Type      string
	Instant   string
	ChannelID string
}

type Request struct {
	Content Content
	Trigger DateTrigger
}

// Host is the notification runtime. It owns triggers once they are armed:
// firing, delivery and bookkeeping happen there.
type Host interface {
	PermissionStatus(ctx context.Context) (PermissionStatus, error)
	RequestPermission(ctx context.Context) (PermissionStatus, error)
	SetChannel(ctx context.Context, channel Channel) error
	// Schedule registers one trigger and returns its host-issued id.
	Schedule(ctx context.Context, req Request) (string, error)
	// CancelAll drops every pending trigger.
	CancelAll(ctx context.Context) error
}
