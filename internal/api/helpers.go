// Package api implements the HTTP REST API for the printsettings agent.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/locivir/printsettings/internal/devmode"
	"github.com/locivir/printsettings/internal/discovery"
	"github.com/locivir/printsettings/internal/models"
	"github.com/locivir/printsettings/internal/settings"
	"github.com/locivir/printsettings/internal/spooler"
)

// BrowseFunc performs a network printer browse.
type BrowseFunc func(ctx context.Context, timeout time.Duration) ([]discovery.Printer, error)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	svc     *settings.Service
	sp      spooler.Spooler
	events  EventBus
	version string
	browse  BrowseFunc
}

// EventBus is the interface for subscribing to setting change events.
type EventBus interface {
	Subscribe(id string) <-chan models.Event
	Unsubscribe(id string)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto AppError JSON responses.
func writeError(w http.ResponseWriter, err error) {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		writeJSON(w, appErr.Status, appErr)
		return
	}

	var openErr *spooler.OpenError
	if errors.As(err, &openErr) {
		writeJSON(w, 502, models.ErrPrinterUnavailable(openErr.Error()))
		return
	}
	var restoreErr *spooler.RestoreError
	if errors.As(err, &restoreErr) {
		writeJSON(w, 500, models.ErrRestoreFailed(restoreErr.Error()))
		return
	}
	if errors.Is(err, devmode.ErrDecode) {
		writeJSON(w, 422, models.ErrDecodeFailed(err.Error()))
		return
	}
	if errors.Is(err, settings.ErrNoSetting) {
		writeJSON(w, 404, models.ErrNotFound(err.Error()))
		return
	}

	writeJSON(w, http.StatusInternalServerError, models.ErrInternal(err.Error()))
}
