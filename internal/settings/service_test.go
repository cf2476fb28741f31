package settings_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/locivir/printsettings/internal/devmode"
	"github.com/locivir/printsettings/internal/events"
	"github.com/locivir/printsettings/internal/models"
	"github.com/locivir/printsettings/internal/settings"
	"github.com/locivir/printsettings/internal/spooler"
	"github.com/locivir/printsettings/internal/store"
)

var testAppID = uuid.MustParse("3f2c9a40-81a5-4a67-9d27-5f0a9e3f7c11")

func newService(t *testing.T) (*settings.Service, *spooler.Mock, *store.MemStore) {
	t.Helper()
	mock := spooler.NewMock()
	st := store.NewMemStore()
	svc := settings.New(mock, st, nil, testAppID)
	return svc, mock, st
}

func TestCapture_PersistsRecord(t *testing.T) {
	svc, mock, st := newService(t)

	rec, err := svc.Capture(spooler.DefaultPrinter, "invoice")
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if rec.Label != "invoice" || rec.PrinterName != spooler.DefaultPrinter {
		t.Errorf("record = %+v, want label/printer set", rec)
	}
	if rec.Key() != testAppID.String()+":invoice" {
		t.Errorf("Key() = %q, want app-id prefixed", rec.Key())
	}

	blob, found, err := st.Load(rec.Key())
	if err != nil || !found {
		t.Fatalf("store.Load() = %v, %v; want stored record", found, err)
	}
	var stored models.StoredSetting
	if err := json.Unmarshal([]byte(blob), &stored); err != nil {
		t.Fatalf("stored blob is not valid JSON: %v", err)
	}
	raw, err := devmode.Decode(stored.DevMode)
	if err != nil {
		t.Fatalf("stored DevMode does not decode: %v", err)
	}
	if want := mock.DeviceMode(spooler.DefaultPrinter); string(raw) != string(want) {
		t.Error("stored DevMode does not round-trip to the captured bytes")
	}
}

func TestCapture_OverwritesSameLabel(t *testing.T) {
	svc, mock, _ := newService(t)

	first, err := svc.Capture(spooler.DefaultPrinter, "invoice")
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}

	// Change the printer's device mode, then capture the same label again.
	raw := mock.DeviceMode(spooler.DefaultPrinter)
	raw[200] ^= 0x55
	mock.SetDeviceMode(spooler.DefaultPrinter, raw)

	second, err := svc.Capture(spooler.DefaultPrinter, "invoice")
	if err != nil {
		t.Fatalf("second Capture() error = %v", err)
	}
	if first.DevMode == second.DevMode {
		t.Error("re-capture did not overwrite the stored device mode")
	}

	got, found, err := svc.Get("invoice")
	if err != nil || !found {
		t.Fatalf("Get() = %v, %v", found, err)
	}
	if got.DevMode != second.DevMode {
		t.Error("Get() returned the stale record after overwrite")
	}
}

func TestCapture_OpenFailure_WritesNothing(t *testing.T) {
	svc, _, st := newService(t)

	_, err := svc.Capture("nonexistent-printer", "invoice")
	var oe *spooler.OpenError
	if !errors.As(err, &oe) {
		t.Fatalf("Capture(unknown) error = %v, want *OpenError", err)
	}
	keys, _ := st.Keys()
	if len(keys) != 0 {
		t.Errorf("failed capture wrote %d record(s) to the store", len(keys))
	}
}

func TestCapture_EmptyLabel(t *testing.T) {
	svc, _, _ := newService(t)
	if _, err := svc.Capture(spooler.DefaultPrinter, ""); err == nil {
		t.Error("Capture(\"\") error = nil, want validation error")
	}
}

func TestCapture_StoreFailureSurfaces(t *testing.T) {
	mock := spooler.NewMock()
	st := store.NewMemStore()
	st.SetFailSave(true)
	svc := settings.New(mock, st, nil, testAppID)

	if _, err := svc.Capture(spooler.DefaultPrinter, "invoice"); err == nil {
		t.Error("Capture() error = nil, want surfaced store failure")
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	svc, mock, _ := newService(t)

	if _, err := svc.Capture(spooler.DefaultPrinter, "invoice"); err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	captured := mock.DeviceMode(spooler.DefaultPrinter)

	// Drift the live configuration, then restore the captured one.
	drifted := append([]byte(nil), captured...)
	drifted[210] ^= 0xFF
	mock.SetDeviceMode(spooler.DefaultPrinter, drifted)

	rec, err := svc.Restore("invoice")
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if rec.PrinterName != spooler.DefaultPrinter {
		t.Errorf("Restore() printer = %q, want %q", rec.PrinterName, spooler.DefaultPrinter)
	}
	if got := mock.DeviceMode(spooler.DefaultPrinter); string(got) != string(captured) {
		t.Error("restore did not reinstate the captured device mode")
	}
	if !mock.Balanced() {
		t.Errorf("resources leaked: %+v", mock.Counts())
	}
}

func TestRestore_UnknownLabel(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Restore("never-captured")
	if !errors.Is(err, settings.ErrNoSetting) {
		t.Errorf("Restore(unknown label) error = %v, want ErrNoSetting", err)
	}
}

func TestRestore_CorruptBlob(t *testing.T) {
	svc, _, st := newService(t)

	rec := models.StoredSetting{
		AppID:       testAppID,
		Label:       "bad",
		PrinterName: spooler.DefaultPrinter,
		DevMode:     "not-valid-base64!!",
	}
	blob, _ := json.Marshal(rec)
	if err := st.Save(rec.Key(), string(blob)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	_, err := svc.Restore("bad")
	if !errors.Is(err, devmode.ErrDecode) {
		t.Errorf("Restore(corrupt) error = %v, want ErrDecode", err)
	}
}

func TestRestore_RemovedPrinter_LeavesRecord(t *testing.T) {
	svc, mock, st := newService(t)

	rec, err := svc.Capture(spooler.DefaultPrinter, "invoice")
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	before, _, _ := st.Load(rec.Key())

	// Simulate the printer being renamed/removed after capture.
	mock.SetFailOpen(true)
	_, err = svc.Restore("invoice")
	var oe *spooler.OpenError
	if !errors.As(err, &oe) {
		t.Fatalf("Restore() error = %v, want *OpenError", err)
	}

	after, found, _ := st.Load(rec.Key())
	if !found || after != before {
		t.Error("failed restore modified the persisted record")
	}
}

func TestDescribe(t *testing.T) {
	svc, _, _ := newService(t)
	if _, err := svc.Capture(spooler.DefaultPrinter, "invoice"); err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	rec, summary, err := svc.Describe("invoice")
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if rec.Label != "invoice" {
		t.Errorf("Describe() label = %q, want %q", rec.Label, "invoice")
	}
	if summary.Size != 220 || summary.DriverExtra != 16 {
		t.Errorf("summary sizes = %d/%d, want 220/16", summary.Size, summary.DriverExtra)
	}
	if summary.Orientation != "portrait" || summary.PaperSize != 9 {
		t.Errorf("summary = %+v, want portrait/A4", summary)
	}
}

func TestList_FiltersByAppID(t *testing.T) {
	svc, _, st := newService(t)

	if _, err := svc.Capture(spooler.DefaultPrinter, "invoice"); err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if _, err := svc.Capture(spooler.DefaultPrinter, "labels"); err != nil {
		t.Fatalf("Capture() error = %v", err)
	}

	// A record belonging to another application identity.
	other := models.StoredSetting{
		AppID:       uuid.MustParse("9e107d9d-372b-4bce-8cb0-1df0de2f77ea"),
		Label:       "foreign",
		PrinterName: "Elsewhere",
		DevMode:     "AQID",
	}
	blob, _ := json.Marshal(other)
	if err := st.Save(other.Key(), string(blob)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	recs, err := svc.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("List() returned %d records, want 2", len(recs))
	}
	for _, r := range recs {
		if r.AppID != testAppID {
			t.Errorf("List() leaked record for app %s", r.AppID)
		}
	}
}

func TestCapture_PublishesEvent(t *testing.T) {
	mock := spooler.NewMock()
	bus := events.NewBus()
	svc := settings.New(mock, store.NewMemStore(), bus, testAppID)

	ch := bus.Subscribe("test")
	defer bus.Unsubscribe("test")

	if _, err := svc.Capture(spooler.DefaultPrinter, "invoice"); err != nil {
		t.Fatalf("Capture() error = %v", err)
	}

	select {
	case ev := <-ch:
		if ev.Type != models.EventCaptured || ev.Label != "invoice" {
			t.Errorf("event = %+v, want captured/invoice", ev)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for capture event")
	}
}
