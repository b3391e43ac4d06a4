package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/lumenops/logsleuth/internal/models"
)

// maxBodyBytes caps the inbound webhook body. Monitoring payloads are small;
// anything larger is not an alert.
const maxBodyBytes = 1 << 20

// AlertHandler is the alert-processing surface the HTTP layer depends on.
type AlertHandler interface {
	HandleAlert(ctx context.Context, payload models.AlertPayload, raw []byte) models.AlertAck
}

// Handler serves the webhook endpoints.
type Handler struct {
	logger    *slog.Logger
	alerts    AlertHandler
	basicUser string
	basicPass string
}

// NewHandler constructs the HTTP handler. Empty basic-auth credentials leave
// the alert endpoint open.
func NewHandler(logger *slog.Logger, alerts AlertHandler, basicUser, basicPass string) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, alerts: alerts, basicUser: basicUser, basicPass: basicPass}
}

// Routes returns the service mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/alert", h.handleAlert)
	mux.HandleFunc("/healthz", h.handleHealth)
	return mux
}

// handleAlert accepts the monitoring webhook. Other than a failed basic-auth
// challenge, it always answers 200: partial failures are reported in-band so
// the monitoring system's retry logic never fires.
func (h *Handler) handleAlert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.authorized(r) {
		w.Header().Set("WWW-Authenticate", `Basic realm="logsleuth"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Warn("failed to read webhook body", slog.Any("error", err))
		raw = nil
	}

	// A malformed body still triggers an investigation with defaults.
	var payload models.AlertPayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			h.logger.Warn("malformed webhook payload", slog.Any("error", err))
			payload = models.AlertPayload{}
		}
	}

	ack := h.alerts.HandleAlert(r.Context(), payload, raw)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ack); err != nil {
		h.logger.Warn("failed to write ack", slog.Any("error", err))
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) authorized(r *http.Request) bool {
	if h.basicUser == "" && h.basicPass == "" {
		return true
	}
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(h.basicUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(h.basicPass)) == 1
	return userOK && passOK
}
