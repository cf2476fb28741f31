//go:build windows

package store

import "fmt"

// Open creates the backend named by kind. The registry backend keeps
// settings under HKCU and ignores configDir.
func Open(kind, configDir string) (Store, error) {
	switch kind {
	case "auto", "registry":
		return NewRegistryStore(""), nil
	case "file":
		return NewFileStore(configDir)
	default:
		return nil, fmt.Errorf("store: unknown backend %q", kind)
	}
}
