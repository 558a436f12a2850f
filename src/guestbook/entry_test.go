package guestbook

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestFormatTimestamp(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	ts := time.Date(2024, 3, 9, 14, 5, 7, 123456789, loc)

	got := FormatTimestamp(ts)
	if got != "2024-03-09T12:05:07.123Z" {
		t.Fatalf("FormatTimestamp = %q", got)
	}

	e := NewEntry("u", "m", ts)
	parsed, ok := e.Time()
	if !ok {
		t.Fatalf("Time() failed to parse %q", e.Timestamp)
	}
	if !parsed.Equal(ts.Truncate(time.Millisecond)) {
		t.Fatalf("Time() = %v, want %v", parsed, ts.Truncate(time.Millisecond))
	}
}

func TestSortByTimestampIsStable(t *testing.T) {
	entries := []Entry{
		{User: "b1", Timestamp: "2024-01-02T00:00:00.000Z"},
		{User: "a", Timestamp: "2024-01-01T00:00:00.000Z"},
		{User: "b2", Timestamp: "2024-01-02T00:00:00.000Z"},
		{User: "c", Timestamp: "2024-01-01T23:00:00.000-02:00"},
	}

	SortByTimestamp(entries)

	var names []string
	for _, e := range entries {
		names = append(names, e.User)
	}
	if got := strings.Join(names, ","); got != "a,b1,b2,c" {
		t.Fatalf("sorted order = %s, want a,b1,b2,c", got)
	}
}

func TestExportTOMLRoundTrip(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	want := []Entry{
		NewEntry("alice", "first &amp; best", base),
		NewEntry("bob", "second", base.Add(time.Minute)),
	}
	// append out of order; the export follows read order
	if _, err := s.Append(want[1]); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if _, err := s.Append(want[0]); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	var buf bytes.Buffer
	if err := s.ExportTOML(&buf); err != nil {
		t.Fatalf("ExportTOML failed: %v", err)
	}

	snap, err := DecodeSnapshot(&buf)
	if err != nil {
		t.Fatalf("DecodeSnapshot failed: %v", err)
	}
	if snap.Count != len(want) || len(snap.Entries) != len(want) {
		t.Fatalf("snapshot count = %d (%d entries), want %d", snap.Count, len(snap.Entries), len(want))
	}
	for i := range want {
		if snap.Entries[i] != want[i] {
			t.Errorf("snapshot entry %d = %+v, want %+v", i, snap.Entries[i], want[i])
		}
	}
	if snap.Source != s.Path() {
		t.Errorf("snapshot source = %q, want %q", snap.Source, s.Path())
	}
}
