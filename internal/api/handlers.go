package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/locivir/printsettings/internal/devmode"
	"github.com/locivir/printsettings/internal/models"
	"github.com/locivir/printsettings/internal/spooler"
)

const discoverTimeout = 3 * time.Second

type infoResponse struct {
	AppID     string `json:"app_id"`
	StorePath string `json:"store_path"`
	Spooler   string `json:"spooler"`
	Version   string `json:"version"`
}

func (h *Handlers) getInfo(w http.ResponseWriter, r *http.Request) {
	kind := "system"
	if _, ok := h.sp.(*spooler.Mock); ok {
		kind = "mock"
	}
	writeJSON(w, http.StatusOK, infoResponse{
		AppID:     h.svc.AppID().String(),
		StorePath: h.svc.StorePath(),
		Spooler:   kind,
		Version:   h.version,
	})
}

func (h *Handlers) getPrinters(w http.ResponseWriter, r *http.Request) {
	printers, err := h.sp.Printers()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, printers)
}

func (h *Handlers) discoverPrinters(w http.ResponseWriter, r *http.Request) {
	printers, err := h.browse(r.Context(), discoverTimeout)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, printers)
}

func (h *Handlers) getSettings(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

type settingResponse struct {
	models.StoredSetting
	Summary devmode.Summary `json:"summary"`
}

func (h *Handlers) getSetting(w http.ResponseWriter, r *http.Request) {
	label := chi.URLParam(r, "label")
	rec, summary, err := h.svc.Describe(label)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settingResponse{StoredSetting: rec, Summary: summary})
}

type captureRequest struct {
	Printer string `json:"printer"`
}

func (h *Handlers) captureSetting(w http.ResponseWriter, r *http.Request) {
	label := chi.URLParam(r, "label")

	var req captureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.ErrBadRequest("invalid JSON: "+err.Error()))
		return
	}
	if req.Printer == "" {
		writeError(w, &models.AppError{Code: "BAD_REQUEST", Message: "printer is required", Field: "printer", Status: 400})
		return
	}

	rec, err := h.svc.Capture(req.Printer, label)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handlers) restoreSetting(w http.ResponseWriter, r *http.Request) {
	label := chi.URLParam(r, "label")
	rec, err := h.svc.Restore(label)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
