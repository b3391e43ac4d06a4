package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lumenops/logsleuth/internal/models"
)

type stubAlerts struct {
	payload models.AlertPayload
	raw     []byte
	calls   int
}

func (s *stubAlerts) HandleAlert(_ context.Context, payload models.AlertPayload, raw []byte) models.AlertAck {
	s.calls++
	s.payload = payload
	s.raw = raw
	return models.AlertAck{OK: true, Repo: "acme/checkout", PR: 42}
}

func TestAlertEndpointOpenWithoutCredentials(t *testing.T) {
	alerts := &stubAlerts{}
	h := NewHandler(nil, alerts, "", "")

	req := httptest.NewRequest(http.MethodPost, "/alert", strings.NewReader(`{"incident":{"started_at":1700000000}}`))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var ack models.AlertAck
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if !ack.OK || ack.PR != 42 {
		t.Errorf("ack = %+v", ack)
	}
	if alerts.payload.Incident.StartedAt != 1700000000 {
		t.Errorf("payload not decoded: %+v", alerts.payload)
	}
}

func TestAlertEndpointRejectsBadCredentials(t *testing.T) {
	alerts := &stubAlerts{}
	h := NewHandler(nil, alerts, "hook", "secret")

	req := httptest.NewRequest(http.MethodPost, "/alert", strings.NewReader(`{}`))
	req.SetBasicAuth("hook", "wrong")
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if got := rec.Header().Get("WWW-Authenticate"); !strings.Contains(got, "Basic") {
		t.Errorf("missing challenge header: %q", got)
	}
	if alerts.calls != 0 {
		t.Error("alert service must not run for unauthorized requests")
	}
}

func TestAlertEndpointAcceptsGoodCredentials(t *testing.T) {
	alerts := &stubAlerts{}
	h := NewHandler(nil, alerts, "hook", "secret")

	req := httptest.NewRequest(http.MethodPost, "/alert", strings.NewReader(`{}`))
	req.SetBasicAuth("hook", "secret")
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if alerts.calls != 1 {
		t.Errorf("alert service calls = %d", alerts.calls)
	}
}

func TestAlertEndpointToleratesMalformedJSON(t *testing.T) {
	alerts := &stubAlerts{}
	h := NewHandler(nil, alerts, "", "")

	req := httptest.NewRequest(http.MethodPost, "/alert", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for malformed body", rec.Code)
	}
	if alerts.calls != 1 {
		t.Error("malformed body should still trigger an investigation")
	}
	if alerts.payload.Incident.StartedAt != 0 {
		t.Errorf("malformed payload should decode to defaults: %+v", alerts.payload)
	}
	if string(alerts.raw) != `{not json` {
		t.Errorf("raw body should be passed through: %q", alerts.raw)
	}
}

func TestAlertEndpointMethodNotAllowed(t *testing.T) {
	h := NewHandler(nil, &stubAlerts{}, "", "")

	req := httptest.NewRequest(http.MethodGet, "/alert", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	h := NewHandler(nil, &stubAlerts{}, "hook", "secret")

	// Health stays open even when the alert endpoint requires auth.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("body = %q", rec.Body.String())
	}
}
