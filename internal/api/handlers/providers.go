package handlers

import (
	"context"

	"github.com/randytsao24/pmsstatus/internal/status"
)

// StationProvider abstracts the station status source for testability.
type StationProvider interface {
	AllStations(ctx context.Context) (status.Snapshot, error)
	StationsMatching(ctx context.Context, query string) (status.Snapshot, error)
	AllStationsImage(ctx context.Context) ([]byte, error)
	StationsMatchingImage(ctx context.Context, query string) ([]byte, error)
}
