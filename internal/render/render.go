// Package render turns a station list into an image. Prepare builds the
// request the renderer consumes; the renderer itself is swappable.
package render

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/randytsao24/pmsstatus/internal/models"
)

const (
	DefaultWidth     = 750
	DefaultRowHeight = 30

	// extraRows accounts for the title and column header rows.
	extraRows = 2

	timestampLayout = "2006-01-02 15:04:05 MST"
)

// Layout fixes the image geometry
type Layout struct {
	Width     int
	RowHeight int
}

// DefaultLayout is 750px wide with 30px rows
var DefaultLayout = Layout{Width: DefaultWidth, RowHeight: DefaultRowHeight}

// Height returns the image height for the given number of stations
func (l Layout) Height(rows int) int {
	return l.RowHeight * (rows + extraRows)
}

// Request is everything a Renderer needs to draw one table
type Request struct {
	Stations       []models.Station
	TimestampLabel string
	Width          int
	Height         int
	// RowHeight is Height / (len(Stations) + 2), passed along so renderers
	// do not have to recompute it.
	RowHeight int
}

// Renderer produces PNG bytes from a Request
type Renderer interface {
	Render(ctx context.Context, req Request) ([]byte, error)
}

// Prepare packages stations and their fetch time for a Renderer
func Prepare(stations []models.Station, fetchedAt, now time.Time, layout Layout) Request {
	rows := make([]models.Station, len(stations))
	copy(rows, stations)

	return Request{
		Stations:       rows,
		TimestampLabel: TimestampLabel(fetchedAt, now),
		Width:          layout.Width,
		Height:         layout.Height(len(rows)),
		RowHeight:      layout.RowHeight,
	}
}

// TimestampLabel formats a fetch time with its age, e.g.
// "2024-03-01 12:00:00 CST (12 seconds ago)"
func TimestampLabel(fetchedAt, now time.Time) string {
	return fetchedAt.Format(timestampLayout) + " (" + humanize.RelTime(fetchedAt, now, "ago", "from now") + ")"
}
