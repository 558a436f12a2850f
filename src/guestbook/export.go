package guestbook

import (
	"fmt"
	"io"
	"time"

	"github.com/BurntSushi/toml"
)

// Snapshot is the TOML document written by ExportTOML.
type Snapshot struct {
	ExportedAt string  `toml:"exported_at"`
	Source     string  `toml:"source"`
	Count      int     `toml:"count"`
	Entries    []Entry `toml:"entries"`
}

// ExportTOML writes all entries, in read order, as a TOML snapshot.
func (s *Store) ExportTOML(w io.Writer) error {
	entries, err := s.ListAll()
	if err != nil {
		return err
	}

	snap := Snapshot{
		ExportedAt: FormatTimestamp(time.Now()),
		Source:     s.path,
		Count:      len(entries),
		Entries:    entries,
	}

	encoder := toml.NewEncoder(w)
	encoder.Indent = "  "
	if err := encoder.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// DecodeSnapshot reads a snapshot produced by ExportTOML.
func DecodeSnapshot(r io.Reader) (Snapshot, error) {
	var snap Snapshot
	if _, err := toml.NewDecoder(r).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snap, nil
}
