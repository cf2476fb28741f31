package identity_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/locivir/printsettings/internal/identity"
)

func TestAppID_SentinelWhenUnconfigured(t *testing.T) {
	t.Setenv(identity.EnvAppID, "")
	dir := t.TempDir() // contains no metadata.json
	got := identity.AppIDFromDir(dir)
	if got != uuid.Nil {
		t.Errorf("AppIDFromDir(%q) = %s; want uuid.Nil", dir, got)
	}
}

func TestAppID_FromMetadata(t *testing.T) {
	t.Setenv(identity.EnvAppID, "")
	dir := t.TempDir()
	want := uuid.MustParse("0b51746e-c52d-4d4f-9129-94dd68a20c30")
	meta := map[string]interface{}{"app_id": want.String()}
	data, _ := json.Marshal(meta)
	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), data, 0644); err != nil {
		t.Fatal(err)
	}

	got := identity.AppIDFromDir(dir)
	if got != want {
		t.Errorf("AppIDFromDir(%q) = %s; want %s", dir, got, want)
	}
}

func TestAppID_InvalidMetadata(t *testing.T) {
	t.Setenv(identity.EnvAppID, "")
	dir := t.TempDir()

	cases := []struct {
		name string
		body string
	}{
		{"not-json", "not json"},
		{"not-a-uuid", `{"app_id": "definitely-not-a-uuid"}`},
		{"missing-field", `{"version": "1.0"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := os.WriteFile(filepath.Join(dir, "metadata.json"), []byte(tc.body), 0644); err != nil {
				t.Fatal(err)
			}
			if got := identity.AppIDFromDir(dir); got != uuid.Nil {
				t.Errorf("AppIDFromDir with %s = %s; want uuid.Nil", tc.name, got)
			}
		})
	}
}

func TestAppID_EnvOverride(t *testing.T) {
	want := uuid.MustParse("d9c1e841-1c11-4f02-9bd3-7e438d8ef2f0")
	t.Setenv(identity.EnvAppID, want.String())

	// The env value wins even when metadata.json disagrees.
	dir := t.TempDir()
	meta, _ := json.Marshal(map[string]string{"app_id": uuid.NewString()})
	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), meta, 0644); err != nil {
		t.Fatal(err)
	}

	if got := identity.AppIDFromDir(dir); got != want {
		t.Errorf("AppIDFromDir with env override = %s; want %s", got, want)
	}
}

func TestAppID_EnvMalformed(t *testing.T) {
	t.Setenv(identity.EnvAppID, "not-a-uuid")
	if got := identity.AppIDFromDir(t.TempDir()); got != uuid.Nil {
		t.Errorf("AppIDFromDir with malformed env = %s; want uuid.Nil", got)
	}
}
