package ingest

import (
	"encoding/json"
	"net/http"
	"time"
)

// ConnChecker reports whether a dependency connection is up.
type ConnChecker interface {
	IsConnectionOpen() bool
}

type healthHandler struct {
	mqtt ConnChecker
	svc  *Service
}

func NewHealthHandler(m ConnChecker, svc *Service) http.Handler {
	return &healthHandler{mqtt: m, svc: svc}
}

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	type status struct {
		Status          string  `json:"status"`
		MQTTConnected   bool    `json:"mqtt_connected"`
		LastWriteErrorS float64 `json:"last_write_error_age_sec"`
		Stats           Stats   `json:"stats"`
	}
	st := status{
		MQTTConnected:   h.mqtt != nil && h.mqtt.IsConnectionOpen(),
		LastWriteErrorS: h.svc.LastWriteErrorAge().Seconds(),
		Stats:           h.svc.Stats(),
	}

	// ok when connected and no recent write error
	switch {
	case st.MQTTConnected && h.svc.LastWriteErrorAge() > 30*time.Second:
		st.Status = "ok"
	case st.MQTTConnected:
		st.Status = "degraded"
	default:
		st.Status = "down"
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}

// Handler /readyz: 200 only when the broker is connected and writes are healthy.
type readyHandler struct {
	mqtt     ConnChecker
	svc      *Service
	minError time.Duration
}

func NewReadyHandler(m ConnChecker, svc *Service, minOkErrorAge time.Duration) http.Handler {
	return &readyHandler{mqtt: m, svc: svc, minError: minOkErrorAge}
}

func (h *readyHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	ready := h.mqtt != nil && h.mqtt.IsConnectionOpen() && h.svc.LastWriteErrorAge() > h.minError
	w.Header().Set("Content-Type", "application/json")
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	type resp struct {
		Ready bool `json:"ready"`
	}
	_ = json.NewEncoder(w).Encode(resp{Ready: ready})
}
