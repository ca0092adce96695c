package handlers

import (
	"net/http"
	"time"

	"github.com/randytsao24/pmsstatus/internal/models"
	"github.com/randytsao24/pmsstatus/internal/status"
)

type StationHandler struct {
	stations StationProvider
}

func NewStationHandler(stations StationProvider) *StationHandler {
	return &StationHandler{stations: stations}
}

// GetAllStationsImage returns every station as a PNG table
func (h *StationHandler) GetAllStationsImage(w http.ResponseWriter, r *http.Request) {
	img, err := h.stations.AllStationsImage(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePNG(w, img)
}

// GetStationsMatchingImage returns the stations whose name contains the
// path's query as a PNG table
func (h *StationHandler) GetStationsMatchingImage(w http.ResponseWriter, r *http.Request) {
	query := r.PathValue("query")
	if status.IsBlankQuery(query) {
		writeBlankQuery(w)
		return
	}

	img, err := h.stations.StationsMatchingImage(r.Context(), query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePNG(w, img)
}

// ListStations returns the station list as JSON, filtered by ?q= when given
func (h *StationHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := params.Get("q")
	if params.Has("q") && status.IsBlankQuery(query) {
		writeBlankQuery(w)
		return
	}

	var (
		snap status.Snapshot
		err  error
	)
	if !params.Has("q") {
		snap, err = h.stations.AllStations(r.Context())
	} else {
		snap, err = h.stations.StationsMatching(r.Context(), query)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]models.StationView, len(snap.Stations))
	for i, st := range snap.Stations {
		views[i] = st.View()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"query":      query,
		"fetched_at": snap.FetchedAt.UTC().Format(time.RFC3339),
		"count":      len(views),
		"stations":   views,
	})
}

func writeBlankQuery(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":   "Query is required",
		"message": "Use /stations or /api/stations for all stations",
	})
}
