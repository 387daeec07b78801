package timeutil_test

import (
	"errors"
	"testing"
	"time"

	"dayplan/src-server/timeutil"
)

func TestTimeDifference(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	clock := timeutil.NewFixedClock(now)

	tests := []struct {
		name    string
		target  string
		want    time.Duration
		wantErr bool
	}{
		{name: "one hour ahead", target: "2024-03-01T09:00:00Z", want: time.Hour},
		{name: "offset zone", target: "2024-03-01T10:00:00+02:00", want: 0},
		{name: "past", target: "2024-03-01T07:59:59.500Z", want: -500 * time.Millisecond},
		{name: "no zone is utc", target: "2024-03-01T08:30:00", want: 30 * time.Minute},
		{name: "garbage", target: "not a date", wantErr: true},
		{name: "empty", target: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := timeutil.TimeDifference(clock, tt.target)
			if (err != nil) != tt.wantErr {
				t.Fatalf("TimeDifference() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, timeutil.ErrInvalidTime) {
					t.Errorf("error %v is not ErrInvalidTime", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("TimeDifference() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimeDifferenceMillis(t *testing.T) {
	clock := timeutil.NewFixedClock(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))
	got, err := timeutil.TimeDifferenceMillis(clock, "2024-03-01T08:00:01.250Z")
	if err != nil {
		t.Fatal(err)
	}
	if got != 1250 {
		t.Errorf("got %d, want 1250", got)
	}
}

func TestUntilRejectsZero(t *testing.T) {
	if _, err := timeutil.Until(timeutil.SystemClock{}, time.Time{}); !errors.Is(err, timeutil.ErrInvalidTime) {
		t.Errorf("expected ErrInvalidTime, got %v", err)
	}
}

func TestUTCRoundTrip(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*60*60)
	for _, d := range []time.Time{
		time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2023, 12, 10, 23, 59, 59, 999_000_000, loc),
		time.Date(2024, 2, 29, 0, 0, 0, 1_000_000, loc),
	} {
		s := timeutil.ToUTC(d)
		back, err := timeutil.FromUTC(s)
		if err != nil {
			t.Fatalf("FromUTC(%q): %v", s, err)
		}
		if !back.Equal(d) {
			t.Errorf("round trip %v -> %q -> %v", d, s, back)
		}
		if back.Location() != time.UTC {
			t.Errorf("FromUTC returned location %v", back.Location())
		}
	}

	if got := timeutil.ToUTC(time.Date(2024, 3, 1, 17, 0, 0, 0, loc)); got != "2024-03-01T09:00:00.000Z" {
		t.Errorf("ToUTC = %q", got)
	}
	if _, err := timeutil.FromUTC("2024-13-45"); !errors.Is(err, timeutil.ErrInvalidTime) {
		t.Errorf("expected ErrInvalidTime, got %v", err)
	}
}

func TestToSeconds(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want int64
	}{
		{in: 0, want: 0},
		{in: 999 * time.Millisecond, want: 0},
		{in: time.Hour, want: 3600},
		{in: -500 * time.Millisecond, want: -1},
		{in: -2 * time.Second, want: -2},
	}
	for _, tt := range tests {
		if got := timeutil.ToSeconds(tt.in); got != tt.want {
			t.Errorf("ToSeconds(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestValidDate(t *testing.T) {
	for s, want := range map[string]bool{
		"2024-03-01": true,
		"2024-02-29": true,
		"2023-02-29": false,
		"2024-3-1":   false,
		"":           false,
		"2024-03-01T00:00:00Z": false,
	} {
		if got := timeutil.ValidDate(s); got != want {
			t.Errorf("ValidDate(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestCountdown(t *testing.T) {
	r, ok := timeutil.Countdown(26*time.Hour + 3*time.Minute + 4*time.Second + 900*time.Millisecond)
	if !ok {
		t.Fatal("expected countdown to be running")
	}
	if r.Days != 1 || r.Hours != 2 || r.Minutes != 3 || r.Seconds != 4 {
		t.Errorf("unexpected breakdown %+v", r)
	}
	if r.Urgent() {
		t.Error("a day away is not urgent")
	}
	if r.String() != "1d 02:03:04" {
		t.Errorf("String() = %q", r.String())
	}

	r, ok = timeutil.Countdown(9*time.Minute + 59*time.Second)
	if !ok || !r.Urgent() {
		t.Errorf("expected urgent countdown, got %+v ok=%v", r, ok)
	}
	if r.String() != "00:09:59" {
		t.Errorf("String() = %q", r.String())
	}

	if _, ok := timeutil.Countdown(0); ok {
		t.Error("expired countdown reported as running")
	}
}

func TestNaturalParser(t *testing.T) {
	p := timeutil.NewNaturalParser()
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	got, err := p.ParseOrNatural("2024-03-02T10:00:00Z", base)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("iso input parsed as %v", got)
	}

	got, err = p.ParseOrNatural("tomorrow", base)
	if err != nil {
		t.Fatal(err)
	}
	if got.Format(time.DateOnly) != "2024-03-02" {
		t.Errorf("tomorrow parsed as %v", got)
	}

	// zoneless timestamps follow the zone of base
	zone := time.FixedZone("UTC+9", 9*60*60)
	got, err = p.ParseOrNatural("2024-03-02T10:00", base.In(zone))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(time.Date(2024, 3, 2, 1, 0, 0, 0, time.UTC)) {
		t.Errorf("zoneless input parsed as %v", got)
	}
	got, err = p.ParseOrNatural("2024-03-02T10:00:00Z", base.In(zone))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("explicit zone was overridden: %v", got)
	}

	if _, err := p.Parse("nothing to see", base); !errors.Is(err, timeutil.ErrInvalidTime) {
		t.Errorf("expected ErrInvalidTime, got %v", err)
	}
}
