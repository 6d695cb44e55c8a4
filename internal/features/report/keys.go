package report

import (
	"net/url"

	"go-stationwatch/internal/query"

	"github.com/gorilla/schema"
)

// Cache resources. Lists and single records are separate resources so a
// create can invalidate every list without touching record entries.
const (
	ResourceReportList = "reports"
	ResourceReport     = "report"
	ResourceStats      = "report_stats"
)

var keyEncoder = schema.NewEncoder()

// ListKey is the cache key for one filter state. The encoder omits empty
// fields and url.Values canonicalizes order, so equivalent filters always
// collapse onto the same key.
func ListKey(f FilterState) query.Key {
	vals := url.Values{}
	_ = keyEncoder.Encode(&f, vals)
	return query.NewKey(ResourceReportList, vals)
}

func RecordKey(id string) query.Key {
	return query.NewKey(ResourceReport, url.Values{"id": {id}})
}

func StatsKey() query.Key {
	return query.NewKey(ResourceStats, nil)
}
