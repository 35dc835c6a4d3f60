package discovery

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/LeonardoBeccarini/plant_monitor/internal/model/entities"
	"github.com/LeonardoBeccarini/plant_monitor/internal/model/messages"
)

type errorBody struct {
	Error     string                    `json:"error"`
	LastKnown *messages.DiscoveryResult `json:"last_known,omitempty"`
}

// NewRouter exposes svc over HTTP. Every request is logged to accessLog in
// Apache combined format.
func NewRouter(svc *Service, metrics *Metrics, staleAfter time.Duration, accessLog io.Writer) http.Handler {
	r := mux.NewRouter()
	h := &apiHandler{svc: svc}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/discover", h.discover).Methods("GET")
	api.HandleFunc("/refresh", h.refresh).Methods("POST")
	api.HandleFunc("/plants", h.plants).Methods("GET")
	api.HandleFunc("/plants/{id}", h.plant).Methods("GET")
	api.HandleFunc("/rooms", h.rooms).Methods("GET")
	api.HandleFunc("/rooms/{id}", h.room).Methods("GET")
	api.HandleFunc("/rooms/{id}/plants", h.roomPlants).Methods("GET")

	r.Handle("/healthz", NewHealthHandler(svc, staleAfter)).Methods("GET")
	r.Handle("/readyz", NewReadyHandler(svc)).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	return handlers.LoggingHandler(accessLog, r)
}

type apiHandler struct {
	svc *Service
}

func (h *apiHandler) discover(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Discover(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err, h.svc.Current())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /api/refresh[?force=true]
func (h *apiHandler) refresh(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	res, err := h.svc.Refresh(r.Context(), force)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err, h.svc.Current())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *apiHandler) plants(w http.ResponseWriter, _ *http.Request) {
	cur := h.svc.Current()
	if cur == nil {
		writeError(w, http.StatusServiceUnavailable, ErrNoResult, nil)
		return
	}
	writeJSON(w, http.StatusOK, cur.Plants)
}

func (h *apiHandler) plant(w http.ResponseWriter, r *http.Request) {
	if h.svc.Current() == nil {
		writeError(w, http.StatusServiceUnavailable, ErrNoResult, nil)
		return
	}
	p, ok := h.svc.Plant(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, ErrUnknownPlant, nil)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *apiHandler) rooms(w http.ResponseWriter, _ *http.Request) {
	cur := h.svc.Current()
	if cur == nil {
		writeError(w, http.StatusServiceUnavailable, ErrNoResult, nil)
		return
	}
	writeJSON(w, http.StatusOK, cur.Rooms)
}

func (h *apiHandler) room(w http.ResponseWriter, r *http.Request) {
	if h.svc.Current() == nil {
		writeError(w, http.StatusServiceUnavailable, ErrNoResult, nil)
		return
	}
	rm, ok := h.svc.Room(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, ErrUnknownRoom, nil)
		return
	}
	writeJSON(w, http.StatusOK, rm)
}

func (h *apiHandler) roomPlants(w http.ResponseWriter, r *http.Request) {
	if h.svc.Current() == nil {
		writeError(w, http.StatusServiceUnavailable, ErrNoResult, nil)
		return
	}
	id := mux.Vars(r)["id"]
	if _, ok := h.svc.Room(id); !ok {
		writeError(w, http.StatusNotFound, ErrUnknownRoom, nil)
		return
	}
	writeJSON(w, http.StatusOK, roomPlantsBody{RoomID: id, Plants: h.svc.PlantsByRoom(id)})
}

type roomPlantsBody struct {
	RoomID string           `json:"room_id"`
	Plants []entities.Plant `json:"plants"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error, lastKnown *messages.DiscoveryResult) {
	if errors.Is(err, ErrDataSource) {
		w.Header().Set("X-Error", "data-source-error")
	}
	writeJSON(w, status, errorBody{Error: err.Error(), LastKnown: lastKnown})
}
