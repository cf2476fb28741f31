// Package settings orchestrates the capture and restore of per-label
// printer configurations: printer session on one side, codec and key-value
// store on the other, namespaced by the application identity.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/locivir/printsettings/internal/devmode"
	"github.com/locivir/printsettings/internal/events"
	"github.com/locivir/printsettings/internal/models"
	"github.com/locivir/printsettings/internal/spooler"
	"github.com/locivir/printsettings/internal/store"
)

// ErrNoSetting indicates that no setting has been stored under a label for
// this application identity.
var ErrNoSetting = errors.New("settings: no stored setting for label")

// Service wires the capture/restore session to the persistence store.
type Service struct {
	session *spooler.Session
	store   store.Store
	bus     *events.Bus // may be nil
	appID   uuid.UUID
}

// New creates a settings service. bus may be nil when no event delivery is
// needed (CLI usage).
func New(sp spooler.Spooler, st store.Store, bus *events.Bus, appID uuid.UUID) *Service {
	return &Service{
		session: spooler.NewSession(sp),
		store:   st,
		bus:     bus,
		appID:   appID,
	}
}

// AppID returns the application identity this service stores under.
func (s *Service) AppID() uuid.UUID { return s.appID }

// StorePath describes where settings are persisted.
func (s *Service) StorePath() string { return s.store.Path() }

// Capture reads printerName's current device mode and persists it under
// label, overwriting any previous record for the same label. A connection
// failure (*spooler.OpenError) writes nothing to the store. Store failures
// are surfaced, never swallowed.
func (s *Service) Capture(printerName, label string) (models.StoredSetting, error) {
	if label == "" {
		return models.StoredSetting{}, fmt.Errorf("settings: label must not be empty")
	}

	block, err := s.session.Capture(printerName)
	if err != nil {
		return models.StoredSetting{}, err
	}

	rec := models.StoredSetting{
		AppID:       s.appID,
		Label:       label,
		PrinterName: printerName,
		DevMode:     devmode.Encode(block.Bytes()),
	}
	blob, err := json.Marshal(rec)
	if err != nil {
		return models.StoredSetting{}, fmt.Errorf("settings: marshal record: %w", err)
	}
	if err := s.store.Save(rec.Key(), string(blob)); err != nil {
		return models.StoredSetting{}, fmt.Errorf("settings: persist %q: %w", rec.Key(), err)
	}

	slog.Info("settings: captured", "printer", printerName, "label", label, "bytes", block.Len())
	s.publish(models.EventCaptured, label, printerName)
	return rec, nil
}

// Restore loads the setting stored under label, decodes its device-mode
// block, and restores it to the printer recorded at capture time. The
// stored record is never modified by a restore, successful or not.
func (s *Service) Restore(label string) (models.StoredSetting, error) {
	rec, found, err := s.Get(label)
	if err != nil {
		return models.StoredSetting{}, err
	}
	if !found {
		return models.StoredSetting{}, fmt.Errorf("%w: %q", ErrNoSetting, label)
	}

	block, err := devmode.DecodeBlock(rec.DevMode)
	if err != nil {
		return models.StoredSetting{}, err
	}
	if err := s.session.Restore(rec.PrinterName, block); err != nil {
		return models.StoredSetting{}, err
	}

	slog.Info("settings: restored", "printer", rec.PrinterName, "label", label, "bytes", block.Len())
	s.publish(models.EventRestored, label, rec.PrinterName)
	return rec, nil
}

// Get loads the stored setting for label, reporting found=false when the
// label has never been captured.
func (s *Service) Get(label string) (models.StoredSetting, bool, error) {
	key := models.SettingKey(s.appID, label)
	blob, found, err := s.store.Load(key)
	if err != nil {
		return models.StoredSetting{}, false, fmt.Errorf("settings: load %q: %w", key, err)
	}
	if !found {
		return models.StoredSetting{}, false, nil
	}
	var rec models.StoredSetting
	if err := json.Unmarshal([]byte(blob), &rec); err != nil {
		return models.StoredSetting{}, false, fmt.Errorf("settings: corrupt record under %q: %w", key, err)
	}
	return rec, true, nil
}

// Describe loads the stored setting for label along with a decoded
// page-geometry summary of its device-mode block.
func (s *Service) Describe(label string) (models.StoredSetting, devmode.Summary, error) {
	rec, found, err := s.Get(label)
	if err != nil {
		return models.StoredSetting{}, devmode.Summary{}, err
	}
	if !found {
		return models.StoredSetting{}, devmode.Summary{}, fmt.Errorf("%w: %q", ErrNoSetting, label)
	}
	block, err := devmode.DecodeBlock(rec.DevMode)
	if err != nil {
		return models.StoredSetting{}, devmode.Summary{}, err
	}
	return rec, block.Summarize(), nil
}

// List returns every setting stored under this application identity.
func (s *Service) List() ([]models.StoredSetting, error) {
	keys, err := s.store.Keys()
	if err != nil {
		return nil, fmt.Errorf("settings: list keys: %w", err)
	}
	prefix := s.appID.String() + ":"
	recs := make([]models.StoredSetting, 0, len(keys))
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		blob, found, err := s.store.Load(key)
		if err != nil || !found {
			continue
		}
		var rec models.StoredSetting
		if err := json.Unmarshal([]byte(blob), &rec); err != nil {
			slog.Warn("settings: skipping corrupt record", "key", key, "err", err)
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (s *Service) publish(eventType, label, printer string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(models.Event{
		Type:    eventType,
		Label:   label,
		Printer: printer,
		Time:    time.Now(),
	})
}
