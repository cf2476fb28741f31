package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
)

const settingsFileName = "settings.json"

// FileStore is an atomic JSON file store. A filesystem watcher reloads the
// in-memory map when the file is rewritten by another process.
type FileStore struct {
	mu      sync.Mutex
	path    string
	entries map[string]string
	watcher *fsnotify.Watcher
}

// NewFileStore creates a file store in the given config directory and loads
// any existing contents. A missing file is an empty store.
func NewFileStore(configDir string) (*FileStore, error) {
	s := &FileStore{
		path:    filepath.Join(configDir, settingsFileName),
		entries: make(map[string]string),
	}
	if err := s.reload(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("store: could not create fsnotify watcher", "err", err)
		return s, nil
	}
	s.watcher = watcher
	if err := watcher.Add(configDir); err != nil {
		slog.Warn("store: could not watch config dir", "path", configDir, "err", err)
	}
	go s.watchLoop()
	return s, nil
}

// Path returns the settings file path.
func (s *FileStore) Path() string { return s.path }

// Load returns the blob stored under key.
func (s *FileStore) Load(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	blob, ok := s.entries[key]
	return blob, ok, nil
}

// Save stores blob under key and writes the file atomically.
func (s *FileStore) Save(key, blob string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = blob
	if err := s.writeAtomic(); err != nil {
		return fmt.Errorf("store: write %s: %w", s.path, err)
	}
	return nil
}

// Keys lists every stored key in sorted order.
func (s *FileStore) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close stops the file watcher.
func (s *FileStore) Close() {
	if s.watcher != nil {
		s.watcher.Close()
	}
}

func (s *FileStore) reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	entries := make(map[string]string)
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Warn("store: corrupt settings file, keeping in-memory state", "path", s.path, "err", err)
		return nil
	}
	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	slog.Debug("store: reloaded settings", "path", s.path, "count", len(entries))
	return nil
}

// writeAtomic writes the entries to a temp file, then renames it into place.
// Callers must hold s.mu.
func (s *FileStore) writeAtomic() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.path)
}

func (s *FileStore) watchLoop() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Name == s.path && (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				if err := s.reload(); err != nil {
					slog.Warn("store: failed to reload settings", "err", err)
				}
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("store: watcher error", "err", err)
		}
	}
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
