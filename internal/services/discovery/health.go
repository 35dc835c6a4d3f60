package discovery

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service states reported by /healthz.
const (
	stateOK       = "ok"
	stateDegraded = "degraded"
	stateDown     = "down"
)

// HealthState classifies the service from its last passes: ok when the latest
// pass succeeded within staleAfter, degraded while a cached result is still
// served, down otherwise.
func HealthState(svc *Service, staleAfter time.Duration) string {
	st := svc.Status()
	hasResult := svc.Current() != nil
	lastOK := !st.LastSuccess.IsZero() && !st.LastErrorAt.After(st.LastSuccess)

	switch {
	case hasResult && lastOK && svc.now().Sub(st.LastSuccess) <= staleAfter:
		return stateOK
	case hasResult:
		return stateDegraded
	default:
		return stateDown
	}
}

type healthHandler struct {
	svc        *Service
	staleAfter time.Duration
}

func NewHealthHandler(svc *Service, staleAfter time.Duration) http.Handler {
	if staleAfter <= 0 {
		staleAfter = 15 * time.Minute
	}
	return &healthHandler{svc: svc, staleAfter: staleAfter}
}

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	type status struct {
		Status        string  `json:"status"`
		LastPassID    string  `json:"last_pass_id,omitempty"`
		LastError     string  `json:"last_error,omitempty"`
		LastSuccessS  float64 `json:"last_success_age_sec"`
		ResultAgeS    float64 `json:"result_age_sec"`
		Passes        uint64  `json:"passes"`
		Failures      uint64  `json:"failures"`
		CachedPlants  int     `json:"cached_plants"`
		CatalogLoaded bool    `json:"catalog_loaded"`
	}
	st := h.svc.Status()
	out := status{
		Status:        HealthState(h.svc, h.staleAfter),
		LastPassID:    st.LastPassID,
		LastError:     st.LastError,
		LastSuccessS:  -1,
		ResultAgeS:    -1,
		Passes:        st.Passes,
		Failures:      st.Failures,
		CatalogLoaded: h.svc.catalog.Load() != nil,
	}
	if !st.LastSuccess.IsZero() {
		out.LastSuccessS = h.svc.now().Sub(st.LastSuccess).Seconds()
	}
	if cur := h.svc.Current(); cur != nil {
		out.CachedPlants = cur.Summary.TotalPlants
		out.ResultAgeS = h.svc.now().Sub(h.svc.cache.CommittedAt()).Seconds()
	}
	writeJSON(w, http.StatusOK, out)
}

// Handler /readyz: 200 once a result is available to serve.
type readyHandler struct {
	svc *Service
}

func NewReadyHandler(svc *Service) http.Handler {
	return &readyHandler{svc: svc}
}

func (h *readyHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	type resp struct {
		Ready bool `json:"ready"`
	}
	ready := h.svc.Current() != nil
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp{Ready: ready})
}

// GRPCHealthName is the service name reported through gRPC health checks.
const GRPCHealthName = "plant_monitor.discovery"

// RunGRPCHealth mirrors HealthState into hs every interval until ctx is done.
// ok and degraded map to SERVING, down to NOT_SERVING.
func RunGRPCHealth(ctx context.Context, hs *health.Server, svc *Service, staleAfter, interval time.Duration, log zerolog.Logger) {
	update := func() {
		st := healthpb.HealthCheckResponse_SERVING
		if HealthState(svc, staleAfter) == stateDown {
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
		hs.SetServingStatus(GRPCHealthName, st)
		hs.SetServingStatus("", st)
	}

	update()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			log.Info().Msg("grpc health reporter stopped")
			return
		case <-t.C:
			update()
		}
	}
}
