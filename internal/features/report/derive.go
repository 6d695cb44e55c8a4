package report

import (
	"sort"
	"strings"
)

// DeriveView filters and orders a cached collection for display. It is pure:
// identical inputs always yield an identical sequence, and the input slice is
// never mutated. Sorting stays a client responsibility on purpose — the
// server has no ordering parameter, and if it grows one this function becomes
// a validator rather than being removed.
func DeriveView(reports []Report, f FilterState) []Report {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]Report, 0, len(reports))
	for _, r := range reports {
		if f.Status != "" && string(r.Status) != f.Status {
			continue
		}
		if f.Urgency != "" && string(r.UrgencyLevel) != f.Urgency {
			continue
		}
		if f.City != "" && r.StationCity != f.City {
			continue
		}
		if search != "" && !matchesSearch(r, search) {
			continue
		}
		out = append(out, r)
	}

	switch f.Sort {
	case SortUrgencyDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].UrgencyLevel.Rank() > out[j].UrgencyLevel.Rank()
		})
	default:
		// created_date:desc. Unparseable or missing dates sort as earliest.
		sort.SliceStable(out, func(i, j int) bool {
			ti, _ := out[i].CreatedAt()
			tj, _ := out[j].CreatedAt()
			return ti.After(tj)
		})
	}
	return out
}

func matchesSearch(r Report, search string) bool {
	return strings.Contains(strings.ToLower(r.StationName), search) ||
		strings.Contains(strings.ToLower(r.StationCity), search) ||
		strings.Contains(strings.ToLower(r.Description), search)
}
