package report

import (
	"reflect"
	"testing"
)

func ids(reports []Report) []string {
	out := make([]string, 0, len(reports))
	for _, r := range reports {
		out = append(out, r.ID)
	}
	return out
}

func TestDeriveViewFiltering(t *testing.T) {
	collection := []Report{
		{ID: "1", StationCity: "Amsterdam", StationName: "Centraal", Description: "elevator stuck", Status: StatusSubmitted, UrgencyLevel: UrgencyHigh, CreatedDate: "2024-03-01"},
		{ID: "2", StationCity: "Utrecht", StationName: "Overvecht", Description: "wet floor near entrance", Status: StatusResolved, UrgencyLevel: UrgencyLow, CreatedDate: "2024-04-01"},
		{ID: "3", StationCity: "Amsterdam", StationName: "Zuid", Description: "broken lighting", Status: StatusSubmitted, UrgencyLevel: UrgencyMedium, CreatedDate: "2024-05-01"},
	}

	tests := []struct {
		name   string
		filter FilterState
		want   []string
	}{
		{"no constraints", FilterState{}, []string{"3", "2", "1"}},
		{"by city", FilterState{City: "Amsterdam"}, []string{"3", "1"}},
		{"by status", FilterState{Status: "Resolved"}, []string{"2"}},
		{"by urgency", FilterState{Urgency: "High"}, []string{"1"}},
		{"search description case-insensitive", FilterState{Search: "ELEVATOR"}, []string{"1"}},
		{"search station name", FilterState{Search: "overvecht"}, []string{"2"}},
		{"search city", FilterState{Search: "utrecht"}, []string{"2"}},
		{"constraints AND-combined", FilterState{City: "Amsterdam", Status: "Submitted", Search: "lighting"}, []string{"3"}},
		{"no match", FilterState{City: "Amsterdam", Urgency: "Low"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(DeriveView(collection, tt.filter))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DeriveView() order = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeriveViewSortByDate(t *testing.T) {
	collection := []Report{
		{ID: "old", CreatedDate: "2024-01-01"},
		{ID: "missing"},
		{ID: "new", CreatedDate: "2024-06-01T10:00:00Z"},
		{ID: "bad", CreatedDate: "not-a-date"},
		{ID: "mid", CreatedDate: "2024-03-15"},
	}

	got := ids(DeriveView(collection, FilterState{Sort: SortCreatedDesc}))
	want := []string{"new", "mid", "old", "missing", "bad"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestDeriveViewSortByUrgencyStable(t *testing.T) {
	collection := []Report{
		{ID: "a", UrgencyLevel: UrgencyMedium},
		{ID: "b", UrgencyLevel: UrgencyCritical},
		{ID: "c", UrgencyLevel: UrgencyMedium},
		{ID: "d", UrgencyLevel: UrgencyLow},
		{ID: "e", UrgencyLevel: UrgencyCritical},
	}

	got := ids(DeriveView(collection, FilterState{Sort: SortUrgencyDesc}))
	// Ties keep original relative order: b before e, a before c.
	want := []string{"b", "e", "a", "c", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

// The two sort modes coincide when the newest report is also the most urgent,
// and diverge otherwise.
func TestDeriveViewSortModes(t *testing.T) {
	coinciding := []Report{
		{ID: "1", UrgencyLevel: UrgencyLow, CreatedDate: "2024-01-01"},
		{ID: "2", UrgencyLevel: UrgencyCritical, CreatedDate: "2024-06-01"},
	}
	if got := ids(DeriveView(coinciding, FilterState{Sort: SortUrgencyDesc})); !reflect.DeepEqual(got, []string{"2", "1"}) {
		t.Errorf("urgency sort = %v, want [2 1]", got)
	}
	if got := ids(DeriveView(coinciding, FilterState{})); !reflect.DeepEqual(got, []string{"2", "1"}) {
		t.Errorf("default sort = %v, want [2 1]", got)
	}

	diverging := []Report{
		{ID: "1", UrgencyLevel: UrgencyCritical, CreatedDate: "2024-01-01"},
		{ID: "2", UrgencyLevel: UrgencyLow, CreatedDate: "2024-06-01"},
	}
	if got := ids(DeriveView(diverging, FilterState{Sort: SortUrgencyDesc})); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Errorf("urgency sort = %v, want [1 2]", got)
	}
	if got := ids(DeriveView(diverging, FilterState{})); !reflect.DeepEqual(got, []string{"2", "1"}) {
		t.Errorf("default sort = %v, want [2 1]", got)
	}
}

func TestDeriveViewIsPure(t *testing.T) {
	collection := []Report{
		{ID: "1", UrgencyLevel: UrgencyHigh, CreatedDate: "2024-02-01"},
		{ID: "2", UrgencyLevel: UrgencyLow, CreatedDate: "2024-05-01"},
		{ID: "3", UrgencyLevel: UrgencyHigh, CreatedDate: "2024-03-01"},
	}
	filter := FilterState{Sort: SortUrgencyDesc}

	before := ids(collection)
	first := DeriveView(collection, filter)
	second := DeriveView(collection, filter)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical inputs produced different sequences: %v vs %v", ids(first), ids(second))
	}
	if !reflect.DeepEqual(ids(collection), before) {
		t.Errorf("input collection mutated: %v, was %v", ids(collection), before)
	}
}
