// Package auth implements optional API-key authentication for the
// printsettings agent. When no key file exists the agent runs in open mode
// and all requests pass through.
package auth

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

const keyFileName = "apikey.txt"

// Service handles authentication for the agent. The key file is watched so
// that rotating the key does not require a restart.
type Service struct {
	mu        sync.RWMutex
	configDir string
	key       string
	watcher   *fsnotify.Watcher
}

// NewService creates an auth service watching the given config directory.
func NewService(configDir string) (*Service, error) {
	s := &Service{configDir: configDir}

	// Load initial state (missing file is OK — open mode)
	if err := s.Reload(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("auth: could not create fsnotify watcher", "err", err)
		return s, nil
	}
	s.watcher = watcher

	keyPath := s.keyPath()
	if err := watcher.Add(filepath.Dir(keyPath)); err != nil {
		slog.Warn("auth: could not watch config dir", "err", err)
	}

	go s.watchLoop(keyPath)
	return s, nil
}

func (s *Service) keyPath() string {
	return filepath.Join(s.configDir, keyFileName)
}

// Reload re-reads the key file.
func (s *Service) Reload() error {
	data, err := os.ReadFile(s.keyPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.mu.Lock()
			s.key = ""
			s.mu.Unlock()
			return nil
		}
		return err
	}

	s.mu.Lock()
	s.key = strings.TrimSpace(string(data))
	s.mu.Unlock()
	slog.Debug("auth: reloaded API key")
	return nil
}

// IsOpenMode returns true if no API key is configured.
// In open mode, all requests are allowed without authentication.
func (s *Service) IsOpenMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key == ""
}

// VerifyKey returns true if the given key matches the configured API key.
// Uses constant-time comparison to prevent timing attacks.
func (s *Service) VerifyKey(key string) bool {
	if key == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(s.key)) == 1
}

// Close stops the file watcher.
func (s *Service) Close() {
	if s.watcher != nil {
		s.watcher.Close()
	}
}

func (s *Service) watchLoop(keyPath string) {
	if s.watcher == nil {
		return
	}
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Name == keyPath && (event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove)) {
				if err := s.Reload(); err != nil {
					slog.Warn("auth: failed to reload API key", "err", err)
				}
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("auth: watcher error", "err", err)
		}
	}
}
