// Package timeutil holds the time arithmetic shared by the event store and
// the reminder scheduler. All instants leave this package in UTC.
package timeutil

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var ErrInvalidTime = errors.New("invalid time")

// UTCLayout is the wire form of every persisted instant: RFC 3339 in UTC
// with millisecond precision, e.g. 2024-03-01T09:00:00.000Z.
const UTCLayout = "2006-01-02T15:04:05.000Z07:00"

// accepted layouts when reading instants back, most specific first
var parseLayouts = []string{
	time.RFC3339Nano,
	UTCLayout,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.RFC1123Z,
	time.RFC1123,
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock is a controllable Clock for tests.
type FixedClock struct {
	mu      sync.Mutex
	current time.Time
}

func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{current: t}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward and returns the new instant.
func (c *FixedClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}

// Parse reads an ISO-8601 style timestamp. Values without a zone are taken
// as UTC.
func Parse(s string) (time.Time, error) {
	t, err := ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("Parse: %w", err)
	}
	return t, nil
}

// ParseIn is Parse with values without a zone taken in loc.
func ParseIn(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("ParseIn: empty value: %w", ErrInvalidTime)
	}
	for _, layout := range parseLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("ParseIn: %q: %w", s, ErrInvalidTime)
}

// TimeDifference returns target minus now. It fails with ErrInvalidTime when
// target is not a valid instant.
func TimeDifference(clock Clock, target string) (time.Duration, error) {
	t, err := Parse(target)
	if err != nil {
		return 0, fmt.Errorf("TimeDifference: %w", err)
	}
	return t.Sub(clock.Now()), nil
}

// Until is TimeDifference for an already parsed instant. The zero time is
// rejected.
func Until(clock Clock, target time.Time) (time.Duration, error) {
	if target.IsZero() {
		return 0, fmt.Errorf("Until: zero instant: %w", ErrInvalidTime)
	}
	return target.Sub(clock.Now()), nil
}

// TimeDifferenceMillis is TimeDifference in whole milliseconds.
func TimeDifferenceMillis(clock Clock, target string) (int64, error) {
	d, err := TimeDifference(clock, target)
	if err != nil {
		return 0, err
	}
	return d.Milliseconds(), nil
}

func ToUTC(t time.Time) string {
	return t.UTC().Format(UTCLayout)
}

// FromUTC is the inverse of ToUTC; FromUTC(ToUTC(t)) equals t truncated to
// the millisecond.
func FromUTC(s string) (time.Time, error) {
	t, err := Parse(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("FromUTC: %w", err)
	}
	return t.UTC(), nil
}

// ToSeconds floors a duration to whole seconds, rounding toward negative
// infinity for past instants.
func ToSeconds(d time.Duration) int64 {
	s := int64(d / time.Second)
	if d%time.Second < 0 {
		s--
	}
	return s
}

// Date returns the YYYY-MM-DD form of t in its own location.
func Date(t time.Time) string {
	return t.Format(time.DateOnly)
}

// ValidDate reports whether s is a canonical YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	t, err := time.Parse(time.DateOnly, s)
	return err == nil && t.Format(time.DateOnly) == s
}
