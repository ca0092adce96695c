package api

import (
	"net/http"
	"time"

	"github.com/randytsao24/pmsstatus/internal/api/handlers"
	"github.com/randytsao24/pmsstatus/internal/config"
)

// requestSlack is added to the refresh timeout so a refresh that runs to its
// limit still leaves time to render and respond
const requestSlack = 15 * time.Second

// NewRouter creates and configures the HTTP router with all routes and
// middleware. metrics may be nil.
func NewRouter(cfg *config.Config, stations handlers.StationProvider, metrics http.Handler) http.Handler {
	mux := http.NewServeMux()

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	rootHandler := handlers.NewRootHandler()
	stationHandler := handlers.NewStationHandler(stations)

	// Core routes
	mux.HandleFunc("GET /{$}", rootHandler.Index)
	mux.HandleFunc("GET /api", rootHandler.Index)
	mux.HandleFunc("GET /health", healthHandler.Health)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	// Station routes
	mux.HandleFunc("GET /stations", stationHandler.GetAllStationsImage)
	mux.HandleFunc("GET /stations/{query...}", stationHandler.GetStationsMatchingImage)
	mux.HandleFunc("GET /api/stations", stationHandler.ListStations)

	// Apply middleware stack
	handler := Chain(mux,
		Recovery,
		Logging,
		CORS,
		Timeout(cfg.RefreshTimeout+requestSlack),
	)

	return handler
}
