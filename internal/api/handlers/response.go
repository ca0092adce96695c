package handlers

import (
	"log/slog"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/randytsao24/pmsstatus/internal/pms"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writePNG(w http.ResponseWriter, img []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img); err != nil {
		slog.Warn("writing image response", "error", err)
	}
}

// writeError logs err in full and answers with a generic message. Upstream
// details never reach the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := pms.KindOf(err)

	status := http.StatusBadGateway
	message := "request failed"
	switch kind {
	case pms.KindInvalid:
		status = http.StatusBadRequest
		message = "invalid query"
	case pms.KindCanceled:
		status = http.StatusGatewayTimeout
		message = "request timed out"
	}

	slog.Error("station request failed",
		"path", r.URL.Path,
		"kind", kind.String(),
		"error", err,
	)
	writeJSON(w, status, map[string]any{
		"error": message,
	})
}
