package report

import "time"

// Urgency is an ordered enum. Rank drives the urgency sort; unknown values
// rank below Low.
type Urgency string

const (
	UrgencyLow      Urgency = "Low"
	UrgencyMedium   Urgency = "Medium"
	UrgencyHigh     Urgency = "High"
	UrgencyCritical Urgency = "Critical"
)

func (u Urgency) Rank() int {
	switch u {
	case UrgencyLow:
		return 1
	case UrgencyMedium:
		return 2
	case UrgencyHigh:
		return 3
	case UrgencyCritical:
		return 4
	default:
		return 0
	}
}

// UrgencyLevels in ascending rank order.
func UrgencyLevels() []Urgency {
	return []Urgency{UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical}
}

type ReportStatus string

const (
	StatusSubmitted   ReportStatus = "Submitted"
	StatusUnderReview ReportStatus = "Under Review"
	StatusInProgress  ReportStatus = "In Progress"
	StatusResolved    ReportStatus = "Resolved"
	StatusClosed      ReportStatus = "Closed"
)

// No transition order is enforced between statuses; the server owns the
// workflow and any value may follow any other through an update.
func Statuses() []ReportStatus {
	return []ReportStatus{StatusSubmitted, StatusUnderReview, StatusInProgress, StatusResolved, StatusClosed}
}

const (
	CategorySlipperySurface = "Slippery Surface"
	CategoryBlockedAccess   = "Blocked Access"
	CategoryBrokenElevator  = "Broken Elevator"
	CategoryLightingIssue   = "Lighting Issue"
	CategoryVandalism       = "Vandalism"
	CategorySafetyConcern   = "Safety Concern"
	CategoryOther           = "Other"
)

func Categories() []string {
	return []string{
		CategorySlipperySurface,
		CategoryBlockedAccess,
		CategoryBrokenElevator,
		CategoryLightingIssue,
		CategoryVandalism,
		CategorySafetyConcern,
		CategoryOther,
	}
}

// stationsByCity is the closed station enumeration per city. A report's
// station_name must belong to the list of its station_city.
var stationsByCity = map[string][]string{
	"Amsterdam": {"Centraal", "Zuid", "Sloterdijk", "Amstel", "Bijlmer ArenA"},
	"Rotterdam": {"Centraal", "Blaak", "Alexander", "Zuid"},
	"Den Haag":  {"Centraal", "HS", "Laan van NOI", "Moerwijk"},
	"Utrecht":   {"Centraal", "Overvecht", "Leidsche Rijn", "Vaartsche Rijn"},
}

func Cities() []string {
	out := make([]string, 0, len(stationsByCity))
	for city := range stationsByCity {
		out = append(out, city)
	}
	return out
}

func StationsFor(city string) []string {
	return stationsByCity[city]
}

// ValidStation reports whether name belongs to city's station list.
func ValidStation(city, name string) bool {
	for _, s := range stationsByCity[city] {
		if s == name {
			return true
		}
	}
	return false
}

// Report is the unit entity. All fields except coordinates are server-owned
// after creation; id is unique within any cached collection.
type Report struct {
	ID            string       `json:"id"`
	StationCity   string       `json:"station_city"`
	StationName   string       `json:"station_name"`
	IssueCategory string       `json:"issue_category"`
	Description   string       `json:"description"`
	UrgencyLevel  Urgency      `json:"urgency_level"`
	Status        ReportStatus `json:"status"`
	CreatedDate   string       `json:"created_date"`
	CreatedBy     string       `json:"created_by,omitempty"`
	PhotoURL      string       `json:"photo_url,omitempty"`
	Latitude      *float64     `json:"latitude,omitempty"`
	Longitude     *float64     `json:"longitude,omitempty"`
}

// CreatedAt parses created_date. False means missing or unparseable, which
// the date sort treats as earliest.
func (r Report) CreatedAt() (time.Time, bool) {
	if r.CreatedDate == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, r.CreatedDate); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

const (
	SortCreatedDesc = "created_date:desc"
	SortUrgencyDesc = "urgency_level:desc"
)

// FilterState carries the list constraints and ordering. Zero values mean
// "no constraint"; empty fields are omitted from the encoded query string.
type FilterState struct {
	Search  string `schema:"search,omitempty" json:"search,omitempty"`
	Status  string `schema:"status,omitempty" json:"status,omitempty"`
	Urgency string `schema:"urgency,omitempty" json:"urgency,omitempty"`
	City    string `schema:"city,omitempty" json:"city,omitempty"`
	Sort    string `schema:"sort,omitempty" json:"sort,omitempty"`
}

// UpdatePatch is the partial update accepted by PATCH /reports/{id}.
type UpdatePatch struct {
	Status *ReportStatus `json:"status,omitempty"`
	Notes  *string       `json:"notes,omitempty"`
}
