package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var ErrInvalidWindow = errors.New("end_date must be after start_date")

// Window is a half-open interval [Start, End).
type Window struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// NewWindow normalises both bounds to UTC at microsecond precision, which is
// what PostgreSQL timestamps keep.
func NewWindow(start, end time.Time) (Window, error) {
	w := Window{
		Start: start.UTC().Truncate(time.Microsecond),
		End:   end.UTC().Truncate(time.Microsecond),
	}
	if !w.End.After(w.Start) {
		return Window{}, ErrInvalidWindow
	}
	return w, nil
}

// Hold is a quantity of one equipment kept by a booking over its window.
type Hold struct {
	Window
	Qty int
}

// PeakUsage sweeps the holds and returns the highest concurrent quantity
// and the first instant it is reached. Windows are half-open, so a release
// and an acquisition at the same instant never stack.
func PeakUsage(holds []Hold) (int, time.Time) {
	type event struct {
		at    time.Time
		delta int
	}

	events := make([]event, 0, len(holds)*2)
	for _, h := range holds {
		events = append(events, event{at: h.Start, delta: h.Qty}, event{at: h.End, delta: -h.Qty})
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].at.Equal(events[j].at) {
			return events[i].at.Before(events[j].at)
		}
		return events[i].delta < events[j].delta
	})

	var cur, peak int
	var peakAt time.Time
	for _, ev := range events {
		cur += ev.delta
		if cur > peak {
			peak = cur
			peakAt = ev.at
		}
	}
	return peak, peakAt
}

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseInstant accepts RFC 3339, "YYYY-MM-DD HH:MM[:SS]" and bare dates.
// Inputs without an offset are read as UTC.
func ParseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
