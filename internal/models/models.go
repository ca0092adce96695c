// Package models defines shared data types
package models

// Station is one print or self-service station as reported by the PMS
// upstream. JSON names follow the upstream GetDevices payload.
type Station struct {
	Name     string `json:"szName"`
	Property string `json:"szProperty"`
	Status   string `json:"szStatus"`
	StatInfo string `json:"szStatInfo"`
}

// StationView is the JSON shape served by the HTTP API
type StationView struct {
	Name     string `json:"name"`
	Property string `json:"property"`
	Status   string `json:"status"`
	StatInfo string `json:"stat_info"`
}

// View converts a station to its API representation
func (s Station) View() StationView {
	return StationView{
		Name:     s.Name,
		Property: s.Property,
		Status:   s.Status,
		StatInfo: s.StatInfo,
	}
}
