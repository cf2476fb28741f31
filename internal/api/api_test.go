package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/locivir/printsettings/internal/api"
	"github.com/locivir/printsettings/internal/auth"
	"github.com/locivir/printsettings/internal/discovery"
	"github.com/locivir/printsettings/internal/events"
	"github.com/locivir/printsettings/internal/models"
	"github.com/locivir/printsettings/internal/settings"
	"github.com/locivir/printsettings/internal/spooler"
	"github.com/locivir/printsettings/internal/store"
)

var testAppID = uuid.MustParse("3f2c9a40-81a5-4a67-9d27-5f0a9e3f7c11")

// newTestServer spins up the full router with mock dependencies.
func newTestServer(t *testing.T) (*httptest.Server, *spooler.Mock) {
	t.Helper()

	mock := spooler.NewMock()
	st := store.NewMemStore()
	bus := events.NewBus()
	svc := settings.New(mock, st, bus, testAppID)

	authSvc, err := auth.NewService(t.TempDir()) // open mode — empty dir
	if err != nil {
		t.Fatalf("auth.NewService: %v", err)
	}

	browse := func(ctx context.Context, timeout time.Duration) ([]discovery.Printer, error) {
		return []discovery.Printer{{Name: "Net Printer", Service: "_ipp._tcp", Host: "printer.local.", Port: 631}}, nil
	}

	router := api.NewRouterWithBrowse(svc, mock, authSvc, bus, "test", browse)
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		authSvc.Close()
	})
	return srv, mock
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func TestGetInfo(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/info")
	if err != nil {
		t.Fatalf("GET /api/info: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var info struct {
		AppID     string `json:"app_id"`
		StorePath string `json:"store_path"`
		Spooler   string `json:"spooler"`
		Version   string `json:"version"`
	}
	decodeBody(t, resp, &info)
	if info.AppID != testAppID.String() {
		t.Errorf("app_id = %q, want %q", info.AppID, testAppID)
	}
	if info.StorePath != ":memory:" || info.Spooler != "mock" || info.Version != "test" {
		t.Errorf("info = %+v", info)
	}
}

func TestGetPrinters(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/printers")
	if err != nil {
		t.Fatalf("GET /api/printers: %v", err)
	}
	var printers []spooler.PrinterInfo
	decodeBody(t, resp, &printers)
	if len(printers) != 1 || printers[0].Name != spooler.DefaultPrinter {
		t.Errorf("printers = %+v, want the mock default printer", printers)
	}
}

func TestDiscoverPrinters(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/printers/discover")
	if err != nil {
		t.Fatalf("GET /api/printers/discover: %v", err)
	}
	var printers []discovery.Printer
	decodeBody(t, resp, &printers)
	if len(printers) != 1 || printers[0].Name != "Net Printer" {
		t.Errorf("discovered = %+v, want the stubbed printer", printers)
	}
}

func TestCaptureAndGetSetting(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/settings/invoice/capture", map[string]string{
		"printer": spooler.DefaultPrinter,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("capture status = %d, want 200", resp.StatusCode)
	}
	var rec models.StoredSetting
	decodeBody(t, resp, &rec)
	if rec.Label != "invoice" || rec.DevMode == "" {
		t.Errorf("capture response = %+v", rec)
	}

	resp, err := http.Get(srv.URL + "/api/settings/invoice")
	if err != nil {
		t.Fatalf("GET setting: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, want 200", resp.StatusCode)
	}
	var got struct {
		models.StoredSetting
		Summary struct {
			Size        int    `json:"size"`
			DriverExtra int    `json:"driver_extra"`
			Orientation string `json:"orientation"`
		} `json:"summary"`
	}
	decodeBody(t, resp, &got)
	if got.Summary.Size != 220 || got.Summary.DriverExtra != 16 {
		t.Errorf("summary = %+v, want 220/16", got.Summary)
	}
}

func TestCapture_MissingPrinterField(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/settings/invoice/capture", map[string]string{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	var appErr models.AppError
	decodeBody(t, resp, &appErr)
	if appErr.Code != "BAD_REQUEST" || appErr.Field != "printer" {
		t.Errorf("error = %+v", appErr)
	}
}

func TestCapture_UnknownPrinter(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/settings/invoice/capture", map[string]string{
		"printer": "nonexistent-printer",
	})
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
	var appErr models.AppError
	decodeBody(t, resp, &appErr)
	if appErr.Code != "PRINTER_UNAVAILABLE" {
		t.Errorf("code = %q, want PRINTER_UNAVAILABLE", appErr.Code)
	}
}

func TestRestore_Flow(t *testing.T) {
	srv, mock := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/settings/invoice/capture", map[string]string{
		"printer": spooler.DefaultPrinter,
	})
	resp.Body.Close()
	captured := mock.DeviceMode(spooler.DefaultPrinter)

	// Drift the live device mode.
	drifted := append([]byte(nil), captured...)
	drifted[200] ^= 0x0F
	mock.SetDeviceMode(spooler.DefaultPrinter, drifted)

	resp = postJSON(t, srv.URL+"/api/settings/invoice/restore", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("restore status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	if got := mock.DeviceMode(spooler.DefaultPrinter); !bytes.Equal(got, captured) {
		t.Error("restore did not reinstate the captured device mode")
	}
}

func TestRestore_UnknownLabel(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/settings/never/restore", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGetSettings_List(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, label := range []string{"invoice", "labels"} {
		resp := postJSON(t, fmt.Sprintf("%s/api/settings/%s/capture", srv.URL, label), map[string]string{
			"printer": spooler.DefaultPrinter,
		})
		resp.Body.Close()
	}

	resp, err := http.Get(srv.URL + "/api/settings")
	if err != nil {
		t.Fatalf("GET /api/settings: %v", err)
	}
	var recs []models.StoredSetting
	decodeBody(t, resp, &recs)
	if len(recs) != 2 {
		t.Errorf("listed %d settings, want 2", len(recs))
	}
}

func TestSSE_DeliversCaptureEvent(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/events", nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		t.Fatalf("GET /api/events: %v", err)
	}
	defer resp.Body.Close()

	// Trigger an event while the stream is open.
	go func() {
		time.Sleep(100 * time.Millisecond)
		r := postJSON(t, srv.URL+"/api/settings/invoice/capture", map[string]string{
			"printer": spooler.DefaultPrinter,
		})
		r.Body.Close()
	}()

	buf := make([]byte, 4096)
	n, err := resp.Body.Read(buf)
	if err != nil {
		t.Fatalf("read SSE stream: %v", err)
	}
	if !bytes.Contains(buf[:n], []byte(`"type":"captured"`)) {
		t.Errorf("SSE payload = %q, want a captured event", buf[:n])
	}
}
