package handlers

import (
	"net/http"
)

type RootHandler struct{}

func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

func (h *RootHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        "pmsstatus",
		"description": "Live status of campus print stations",
		"version":     version,
		"endpoints": map[string]string{
			"GET /":                 "API information",
			"GET /health":           "Health check",
			"GET /stations":         "All stations as a PNG table",
			"GET /stations/{query}": "Stations whose name contains query, as a PNG table",
			"GET /api/stations":     "Stations as JSON, optional ?q= name filter",
			"GET /metrics":          "Prometheus metrics",
		},
	})
}
