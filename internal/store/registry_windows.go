//go:build windows

package store

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"
)

// DefaultRegistryPath is the registry subkey used when none is configured.
const DefaultRegistryPath = `Software\PrintSettings\Settings`

// RegistryStore keeps each setting as a string value under a per-user
// registry key. This is the system's native location for this kind of
// configuration data.
type RegistryStore struct {
	subkey string
}

// NewRegistryStore returns a store rooted at the given HKCU subkey.
func NewRegistryStore(subkey string) *RegistryStore {
	if subkey == "" {
		subkey = DefaultRegistryPath
	}
	return &RegistryStore{subkey: subkey}
}

// Path returns the fully qualified registry location.
func (s *RegistryStore) Path() string { return `HKCU\` + s.subkey }

// Load returns the blob stored under key. A missing subkey or value is
// reported as not found, not as an error.
func (s *RegistryStore) Load(key string) (string, bool, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, s.subkey, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("store: open %s: %w", s.Path(), err)
	}
	defer k.Close()

	blob, _, err := k.GetStringValue(key)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("store: read %s\\%s: %w", s.Path(), key, err)
	}
	return blob, true, nil
}

// Save persists blob as a string value named key, creating the subkey on
// first use.
func (s *RegistryStore) Save(key, blob string) error {
	k, _, err := registry.CreateKey(registry.CURRENT_USER, s.subkey, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("store: create %s: %w", s.Path(), err)
	}
	defer k.Close()

	if err := k.SetStringValue(key, blob); err != nil {
		return fmt.Errorf("store: write %s\\%s: %w", s.Path(), key, err)
	}
	return nil
}

// Keys lists every value name under the subkey.
func (s *RegistryStore) Keys() ([]string, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, s.subkey, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: open %s: %w", s.Path(), err)
	}
	defer k.Close()

	names, err := k.ReadValueNames(0)
	if err != nil {
		return nil, fmt.Errorf("store: enumerate %s: %w", s.Path(), err)
	}
	return names, nil
}

// Ensure RegistryStore implements Store.
var _ Store = (*RegistryStore)(nil)
