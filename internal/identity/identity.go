// Package identity provides the stable per-application identity that
// namespaces stored printer settings.
package identity

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// EnvAppID overrides the application identity when set.
const EnvAppID = "PRINTSETTINGS_APP_ID"

const metadataFileName = "metadata.json"

// AppID returns the application UUID from the environment or from
// metadata.json in the default config directory. When no identity is
// configured, or the configured value is not a UUID, it returns the
// uuid.Nil sentinel — settings are then stored under the nil namespace.
func AppID() uuid.UUID {
	return AppIDFromDir("")
}

// AppIDFromDir reads the application UUID from a specific config directory.
// If dir is empty, the default config directory is used. This variant is
// exported for testing.
func AppIDFromDir(dir string) uuid.UUID {
	if v := strings.TrimSpace(os.Getenv(EnvAppID)); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			return id
		}
		return uuid.Nil
	}

	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return uuid.Nil
		}
		dir = filepath.Join(base, "printsettings")
	}

	data, err := os.ReadFile(filepath.Join(dir, metadataFileName))
	if err != nil {
		return uuid.Nil
	}

	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return uuid.Nil
	}

	if v, ok := meta["app_id"].(string); ok {
		if id, err := uuid.Parse(v); err == nil {
			return id
		}
	}
	return uuid.Nil
}

// ConfigDir returns the default per-user config directory for printsettings.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "printsettings"), nil
}
