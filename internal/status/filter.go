package status

import (
	"strings"

	"github.com/randytsao24/pmsstatus/internal/models"
)

// Filter returns the stations whose name contains query, keeping their
// order. Matching is case-sensitive.
func Filter(stations []models.Station, query string) []models.Station {
	matched := make([]models.Station, 0)
	for _, st := range stations {
		if strings.Contains(st.Name, query) {
			matched = append(matched, st)
		}
	}
	return matched
}

// IsBlankQuery reports whether query has nothing to match on. Every entry
// point rejects such queries the same way.
func IsBlankQuery(query string) bool {
	return strings.TrimSpace(query) == ""
}
