// Package store persists stored settings as opaque text blobs under string
// keys of the form "{applicationIdentity}:{label}".
//
// Three implementations are provided: RegistryStore (Windows registry, the
// system's native location), FileStore (a watched JSON file, portable), and
// MemStore (tests).
package store

// Store is the interface for the settings key-value store.
type Store interface {
	// Load returns the blob stored under key, with found=false when the
	// key has never been saved.
	Load(key string) (blob string, found bool, err error)

	// Save persists blob under key, overwriting any previous value.
	Save(key, blob string) error

	// Keys lists every stored key.
	Keys() ([]string, error)

	// Path describes where this store keeps its data.
	Path() string
}
