//go:build !windows

package store

import "fmt"

// Open creates the backend named by kind. The registry backend is only
// available on Windows; everything else gets the JSON file store.
func Open(kind, configDir string) (Store, error) {
	switch kind {
	case "registry":
		return nil, fmt.Errorf("store: registry backend requires Windows")
	case "auto", "file":
		return NewFileStore(configDir)
	default:
		return nil, fmt.Errorf("store: unknown backend %q", kind)
	}
}
