package stats

import (
	"math"
	"sort"
)

// Point is one chart datum.
type Point struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Series is the chart-ready reshape of AggregateStats. Chart consumers
// assign colors by position, so every slice has a deterministic order.
type Series struct {
	Category []Point `json:"category"`
	Urgency  []Point `json:"urgency"`
	Stations []Point `json:"stations"`
	City     []Point `json:"city"`

	CompletionRate float64 `json:"completion_rate"`
	PendingCount   int     `json:"pending_count"`
}

// BuildSeries reshapes server aggregates into ordered series. Pure, no I/O;
// absent fields degrade to empty series and zero scalars, never an error.
func BuildSeries(st AggregateStats) Series {
	category := mapToPoints(st.ByCategory)
	// Descending by value; the stable sort keeps key order on ties.
	sort.SliceStable(category, func(i, j int) bool {
		return category[i].Value > category[j].Value
	})

	stations := make([]Point, 0, len(st.TopStations))
	for _, sc := range st.TopStations {
		// Server order is already ranked; keep it.
		stations = append(stations, Point{Name: sc.Station, Value: sc.Count})
	}

	return Series{
		Category:       category,
		Urgency:        urgencyPoints(st.ByUrgency),
		Stations:       stations,
		City:           mapToPoints(st.ByCity),
		CompletionRate: completionRate(st),
		PendingCount:   st.ByStatus["Submitted"] + st.ByStatus["Under Review"],
	}
}

func completionRate(st AggregateStats) float64 {
	if st.Total == 0 {
		return 0
	}
	resolved := st.ByStatus["Resolved"]
	rate := float64(resolved) / float64(st.Total) * 100
	return math.Round(rate*10) / 10
}

// mapToPoints materializes a count map in ascending key order, the stable
// baseline before any value sort.
func mapToPoints(m map[string]int) []Point {
	if len(m) == 0 {
		return []Point{}
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Point, 0, len(keys))
	for _, k := range keys {
		out = append(out, Point{Name: k, Value: m[k]})
	}
	return out
}

// urgencyPoints orders known urgency levels by ascending rank so positional
// chart colors stay stable; unknown labels follow in key order.
func urgencyPoints(m map[string]int) []Point {
	if len(m) == 0 {
		return []Point{}
	}
	out := make([]Point, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, u := range []string{"Low", "Medium", "High", "Critical"} {
		if v, ok := m[u]; ok {
			out = append(out, Point{Name: u, Value: v})
			seen[u] = true
		}
	}
	var rest []string
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		out = append(out, Point{Name: k, Value: m[k]})
	}
	return out
}
