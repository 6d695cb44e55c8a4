package stats

// StationCount is one entry of the server-ranked top stations list.
type StationCount struct {
	Station string `json:"station"`
	Count   int    `json:"count"`
}

// AggregateStats is the server-computed breakdown from GET /reports/stats.
// Any field may be absent; consumers treat nil maps as empty.
type AggregateStats struct {
	Total       int            `json:"total"`
	ByCategory  map[string]int `json:"by_category"`
	ByUrgency   map[string]int `json:"by_urgency"`
	ByStatus    map[string]int `json:"by_status"`
	ByCity      map[string]int `json:"by_city"`
	TopStations []StationCount `json:"top_stations"`
}
