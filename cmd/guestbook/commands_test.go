package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/guestbook/src/guestbook"
	"github.com/danmuck/guestbook/src/transport"
)

func newExportStore(t *testing.T) *guestbook.Store {
	t.Helper()
	cfg := guestbook.DefaultConfig(t.TempDir())
	cfg.Sync = false
	store, err := guestbook.OpenStore(cfg)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	base := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
	for i, name := range []string{"carol", "alice"} {
		if _, err := store.Append(guestbook.NewEntry(name, "hi", base.Add(-time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("failed to append: %v", err)
		}
	}
	return store
}

func TestExportEntriesFormats(t *testing.T) {
	tests := []struct {
		format string
		decode func(*bytes.Buffer) ([]guestbook.Entry, error)
	}{
		{
			format: "json",
			decode: func(b *bytes.Buffer) ([]guestbook.Entry, error) { return transport.JSONCoder{}.Decode(b) },
		},
		{
			format: "protobuf",
			decode: func(b *bytes.Buffer) ([]guestbook.Entry, error) { return transport.ProtoCoder{}.Decode(b) },
		},
		{
			format: "toml",
			decode: func(b *bytes.Buffer) ([]guestbook.Entry, error) {
				snap, err := guestbook.DecodeSnapshot(b)
				return snap.Entries, err
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.format, func(t *testing.T) {
			store := newExportStore(t)

			var buf bytes.Buffer
			if err := exportEntries(store, tc.format, &buf); err != nil {
				t.Fatalf("exportEntries(%s) failed: %v", tc.format, err)
			}
			entries, err := tc.decode(&buf)
			if err != nil {
				t.Fatalf("decode %s export: %v", tc.format, err)
			}
			if len(entries) != 2 || entries[0].User != "alice" || entries[1].User != "carol" {
				t.Fatalf("%s export = %+v, want alice then carol", tc.format, entries)
			}
		})
	}
}

func TestExportEntriesRejectsUnknownFormat(t *testing.T) {
	store := newExportStore(t)
	if err := exportEntries(store, "xml", &bytes.Buffer{}); err == nil {
		t.Fatal("expected exportEntries to reject xml")
	}
}

func TestInitCommandCreatesStore(t *testing.T) {
	root := t.TempDir()
	t.Setenv("GUESTBOOK_ROOT", root)
	t.Setenv("PORT", "")

	cmd := newInitCommand()
	cmd.Flags().String("config", "", "")
	cmd.Flags().String("root", root, "")
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	store, err := guestbook.OpenStore(guestbook.StoreConfig{Path: filepath.Join(root, "data", "entries.json")})
	if err != nil {
		t.Fatalf("entries file not usable after init: %v", err)
	}
	if n, err := store.Count(); err != nil || n != 0 {
		t.Fatalf("Count after init = %d, %v", n, err)
	}
}
