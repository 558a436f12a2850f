package guestbook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	logs "github.com/danmuck/smplog"
)

var ErrStoreClosed = errors.New("guestbook store is closed")

// StorageError reports a failure reading or writing the entries file.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("guestbook store %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Store owns the persisted entry collection. The whole file is read,
// mutated in memory and written back on every append; lock serializes
// appends so concurrent writers cannot drop each other's entries.
type Store struct {
	path   string
	config StoreConfig
	lock   sync.RWMutex
	closed bool

	createTemp func(dir, pattern string) (*os.File, error)
}

// NewStore returns a Store for cfg. Call Initialize before use.
func NewStore(cfg StoreConfig) *Store {
	return &Store{
		path:       cfg.Path,
		config:     cfg,
		createTemp: os.CreateTemp,
	}
}

// OpenStore creates a Store and initializes its backing file.
func OpenStore(cfg StoreConfig) (*Store, error) {
	s := NewStore(cfg)
	if err := s.Initialize(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

// Initialize creates the entries file holding an empty array when it does
// not exist yet. Existing files are left untouched.
func (s *Store) Initialize() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return &StorageError{Op: "init", Path: s.path, Err: fmt.Errorf("failed to create data directory: %w", err)}
	}

	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return &StorageError{Op: "init", Path: s.path, Err: err}
	}

	if err := s.writeAll([]Entry{}); err != nil {
		return &StorageError{Op: "init", Path: s.path, Err: err}
	}
	if s.config.Verbose {
		logs.Infof("guestbook store initialized at %s", s.path)
	}
	return nil
}

// ListAll returns every persisted entry, ordered ascending by timestamp.
func (s *Store) ListAll() ([]Entry, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	entries, err := s.readAll()
	if err != nil {
		return nil, &StorageError{Op: "read", Path: s.path, Err: err}
	}
	SortByTimestamp(entries)
	return entries, nil
}

// Append adds entry to the collection and persists the full result.
// The stored entry is returned unchanged.
func (s *Store) Append(entry Entry) (Entry, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return Entry{}, ErrStoreClosed
	}

	entries, err := s.readAll()
	if err != nil {
		return Entry{}, &StorageError{Op: "read", Path: s.path, Err: err}
	}

	entries = append(entries, entry)
	if err := s.writeAll(entries); err != nil {
		return Entry{}, &StorageError{Op: "write", Path: s.path, Err: err}
	}
	return entry, nil
}

// Count returns the number of persisted entries.
func (s *Store) Count() (int, error) {
	entries, err := s.ListAll()
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Close marks the store closed; later calls fail with ErrStoreClosed.
func (s *Store) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.config.Verbose {
		logs.Infof("guestbook store closed: %s", s.path)
	}
	return nil
}

func (s *Store) readAll() ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read entries file: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode entries file: %w", err)
	}
	// a literal null decodes without error but is not a sequence
	if entries == nil && !bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		return nil, errors.New("entries file does not hold a JSON array")
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// writeAll publishes entries through a temp file and rename so readers
// never observe a partially written file.
func (s *Store) writeAll(entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", jsonIndent)
	if err != nil {
		return fmt.Errorf("failed to encode entries: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	tmpFile, err := s.createTemp(dir, filepath.Base(s.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp entries file: %w", err)
	}
	tmpPath := tmpFile.Name()

	cleanupTmp := true
	defer func() {
		if cleanupTmp {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("failed to write temp entries file: %w", err)
	}
	if err := tmpFile.Chmod(0644); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("failed to chmod temp entries file: %w", err)
	}
	if s.config.Sync {
		if err := tmpFile.Sync(); err != nil {
			_ = tmpFile.Close()
			return fmt.Errorf("failed to sync temp entries file: %w", err)
		}
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp entries file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to publish entries file: %w", err)
	}
	cleanupTmp = false
	return nil
}
