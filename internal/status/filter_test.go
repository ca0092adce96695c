package status

import (
	"testing"

	"github.com/randytsao24/pmsstatus/internal/models"
)

func names(stations []models.Station) []string {
	out := make([]string, len(stations))
	for i, st := range stations {
		out[i] = st.Name
	}
	return out
}

func TestFilter(t *testing.T) {
	stations := libStations()

	tests := []struct {
		query string
		want  []string
	}{
		{"Lib", []string{"Lib-1", "Lib-2"}},
		{"zzz", []string{}},
		{"-1", []string{"Lib-1", "Cafe-1"}},
		{"lib", []string{}},
		{"Cafe-1", []string{"Cafe-1"}},
	}

	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			got := names(Filter(stations, tc.query))
			if len(got) != len(tc.want) {
				t.Fatalf("Filter(%q) = %v, want %v", tc.query, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("Filter(%q)[%d] = %q, want %q", tc.query, i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestFilterEmptyInput(t *testing.T) {
	got := Filter(nil, "Lib")
	if got == nil || len(got) != 0 {
		t.Errorf("Filter(nil) = %#v, want empty non-nil slice", got)
	}
}
