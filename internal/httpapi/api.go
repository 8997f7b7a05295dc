// Package httpapi is the pull-based presentation boundary: every
// endpoint reads the current snapshot or mutates the registry, nothing
// is pushed to clients.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lanwatch/lanwatch/internal/export"
	"github.com/lanwatch/lanwatch/internal/iprange"
	"github.com/lanwatch/lanwatch/internal/monitor"
	"github.com/lanwatch/lanwatch/internal/scan"
	"github.com/lanwatch/lanwatch/internal/service"
	"github.com/lanwatch/lanwatch/internal/storage"
)

type API struct {
	service *service.Service
	monitor *monitor.Monitor
	logger  *slog.Logger
}

func New(svc *service.Service, mon *monitor.Monitor, logger *slog.Logger) *API {
	return &API{service: svc, monitor: mon, logger: logger}
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RecoverJSON)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(RequestLogger(a.logger))

	r.Get("/healthz", a.health)
	r.Route("/api", func(api chi.Router) {
		api.Post("/scan/start", a.startScan)
		api.Post("/scan/stop", a.stopScan)
		api.Get("/status", a.status)
		api.Get("/devices", a.listDevices)
		api.Post("/devices/{mac}/register", a.registerDevice)
		api.Patch("/devices/{mac}", a.patchDevice)
		api.Delete("/devices/{mac}", a.unregisterDevice)
		api.Post("/ping", a.ping)
		api.Get("/monitor", a.monitorStatus)
		api.Post("/monitor/start", a.startMonitor)
		api.Post("/monitor/stop", a.stopMonitor)
	})
	r.Get("/export/{format}", a.exportReport)
	return r
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "scanning": a.service.Active()})
}

type scanRequest struct {
	Gateway string `json:"gateway"`
	Mask    string `json:"mask"`
}

func (a *API) startScan(w http.ResponseWriter, r *http.Request) {
	var payload scanRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid JSON payload")
		return
	}
	network, targets, err := a.service.StartScan(payload.Gateway, payload.Mask)
	if err != nil {
		writeScanError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"network": network, "targets": targets})
}

func (a *API) stopScan(w http.ResponseWriter, _ *http.Request) {
	a.service.StopScan()
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

func (a *API) status(w http.ResponseWriter, r *http.Request) {
	view, err := a.service.Status(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "status_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) listDevices(w http.ResponseWriter, r *http.Request) {
	filter := service.ListFilter{Query: r.URL.Query().Get("query")}
	if raw := strings.TrimSpace(r.URL.Query().Get("online")); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_online_filter", "online must be true or false")
			return
		}
		filter.Online = &value
	}
	items, err := a.service.Devices(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) registerDevice(w http.ResponseWriter, r *http.Request) {
	var payload service.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid JSON payload")
		return
	}
	if err := a.service.RegisterDevice(r.Context(), chi.URLParam(r, "mac"), payload); err != nil {
		writeError(w, http.StatusBadRequest, "register_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

func (a *API) patchDevice(w http.ResponseWriter, r *http.Request) {
	var payload service.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid JSON payload")
		return
	}
	if err := a.service.PatchDevice(r.Context(), chi.URLParam(r, "mac"), payload); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "Registered device not found")
			return
		}
		writeError(w, http.StatusBadRequest, "patch_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

func (a *API) unregisterDevice(w http.ResponseWriter, r *http.Request) {
	if err := a.service.UnregisterDevice(r.Context(), chi.URLParam(r, "mac")); err != nil {
		writeError(w, http.StatusBadRequest, "unregister_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

type pingRequest struct {
	Target string `json:"target"`
}

func (a *API) ping(w http.ResponseWriter, r *http.Request) {
	var payload pingRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid JSON payload")
		return
	}
	view, err := a.service.PingOnce(r.Context(), payload.Target)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTarget) {
			writeError(w, http.StatusBadRequest, "invalid_target", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "ping_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) monitorStatus(w http.ResponseWriter, _ *http.Request) {
	target, enabled := a.monitor.Status()
	writeJSON(w, http.StatusOK, map[string]any{"enabled": enabled, "target": target})
}

func (a *API) startMonitor(w http.ResponseWriter, r *http.Request) {
	var payload monitor.Target
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid JSON payload")
		return
	}
	network, targets, err := a.monitor.Enable(payload)
	if err != nil {
		writeScanError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"network": network, "targets": targets})
}

func (a *API) stopMonitor(w http.ResponseWriter, _ *http.Request) {
	a.monitor.Disable()
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

func (a *API) exportReport(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	contentType, err := export.ContentType(format)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unsupported_format", err.Error())
		return
	}
	view, err := a.service.Status(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export_failed", err.Error())
		return
	}

	rows := make([]export.Row, 0, len(view.Devices))
	for _, device := range view.Devices {
		row := export.Row{
			IP:        device.IP,
			Vendor:    device.Vendor,
			Hostname:  device.Hostname,
			Name:      device.Name,
			Comment:   device.Comment,
			Online:    device.Online,
			LatencyMS: device.LatencyMS,
			LastSeen:  device.LastSeen,
		}
		if device.MAC != nil {
			row.MAC = *device.MAC
		}
		rows = append(rows, row)
	}

	meta := export.Meta{Network: view.Network, GeneratedAt: view.Timestamp}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "lanwatch-report."+format))
	w.WriteHeader(http.StatusOK)
	if err := export.Write(w, format, meta, rows); err != nil {
		a.logger.Error("export write failed", "format", format, "err", err)
	}
}

// writeScanError maps scan-start failures onto the API error contract:
// malformed input is the caller's fault, an active scan is a conflict.
func writeScanError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, iprange.ErrInvalidGateway), errors.Is(err, iprange.ErrInvalidMask):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, scan.ErrScanInProgress):
		writeError(w, http.StatusConflict, "scan_in_progress", "A scan is already running")
	default:
		writeError(w, http.StatusInternalServerError, "scan_failed", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
