package guestbook

import (
	"slices"
	"time"
)

// TimestampLayout is the ISO-8601 form written into Entry.Timestamp:
// UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

type Entry struct {
	User      string `json:"user" toml:"user"`
	Message   string `json:"message" toml:"message"`
	Timestamp string `json:"timestamp" toml:"timestamp"`
}

// NewEntry stamps an already sanitized user/message pair with t.
func NewEntry(user, message string, t time.Time) Entry {
	return Entry{
		User:      user,
		Message:   message,
		Timestamp: FormatTimestamp(t),
	}
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Time parses the entry timestamp. ok is false when the stored value is not
// a valid RFC 3339 time.
func (e Entry) Time() (t time.Time, ok bool) {
	t, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SortByTimestamp orders entries ascending by timestamp in place. Equal
// timestamps keep their stored order. Unparseable timestamps fall back to
// string comparison.
func SortByTimestamp(entries []Entry) {
	slices.SortStableFunc(entries, compareEntries)
}

func compareEntries(a, b Entry) int {
	ta, okA := a.Time()
	tb, okB := b.Time()
	if okA && okB {
		return ta.Compare(tb)
	}
	switch {
	case a.Timestamp < b.Timestamp:
		return -1
	case a.Timestamp > b.Timestamp:
		return 1
	}
	return 0
}
