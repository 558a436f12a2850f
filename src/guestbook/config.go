package guestbook

import "path/filepath"

const (
	DefaultDataDir  = "data"
	DefaultFileName = "entries.json"
	jsonIndent      = "  "
)

// StoreConfig controls runtime behavior of a Store instance.
type StoreConfig struct {
	Path    string // location of the JSON entries file
	Sync    bool   // when true, fsync the temp file before publishing it
	Verbose bool   // when true, log store lifecycle events
}

// DefaultConfig places the entries file under root/data.
func DefaultConfig(root string) StoreConfig {
	return StoreConfig{
		Path: filepath.Join(root, DefaultDataDir, DefaultFileName),
		Sync: true,
	}
}
