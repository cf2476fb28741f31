// Package models defines the shared data types for printsettings: the
// stored per-label setting record, change events, and the structured error
// model used by the HTTP API.
package models

import (
	"time"

	"github.com/google/uuid"
)

// StoredSetting is one persisted printer configuration for an application.
// The identity key for persistence is (AppID, Label); re-capturing the same
// label overwrites the record. DevMode holds the base64 form of the captured
// device-mode block and is written only by the device-mode codec.
type StoredSetting struct {
	AppID       uuid.UUID `json:"app_id"`
	Label       string    `json:"label"`
	PrinterName string    `json:"printer_name"`
	DevMode     string    `json:"dev_mode"`
}

// Key returns the persistence key "{applicationIdentity}:{label}".
func (s StoredSetting) Key() string {
	return s.AppID.String() + ":" + s.Label
}

// SettingKey builds the persistence key for an app identity and label.
func SettingKey(appID uuid.UUID, label string) string {
	return appID.String() + ":" + label
}

// Event types published on the event bus.
const (
	EventCaptured = "captured"
	EventRestored = "restored"
)

// Event describes a completed capture or restore operation.
type Event struct {
	Type    string    `json:"type"`
	Label   string    `json:"label"`
	Printer string    `json:"printer"`
	Time    time.Time `json:"time"`
}
