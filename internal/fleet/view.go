package fleet

import (
	"sort"
	"strings"

	"github.com/fleet-console/fleet-console-pro/internal/models"
)

// Group filter sentinels. Any other value matches groupName exactly.
const (
	GroupAll        = "all"
	GroupUnassigned = "unassigned"
)

// View returns the filtered, ordered slice of records for display.
// Filtering is a case-insensitive substring match against the display
// name or the device id. A non-empty filter orders matches by bucket:
// name-prefix first, then id-prefix, then plain substring matches, with
// the original server order preserved inside each bucket. This is a
// stable priority sort, not a relevance ranking.
func (s *Store) View(filterText, groupID string) []models.DeviceRecord {
	snapshot := s.Snapshot()

	filtered := snapshot[:0:0]
	for _, d := range snapshot {
		if matchesGroup(d, groupID) {
			filtered = append(filtered, d)
		}
	}

	query := strings.ToLower(strings.TrimSpace(filterText))
	if query == "" {
		return filtered
	}

	type ranked struct {
		record models.DeviceRecord
		name   int
		id     int
	}

	matches := make([]ranked, 0, len(filtered))
	for _, d := range filtered {
		name := strings.ToLower(d.DisplayName)
		id := strings.ToLower(d.DeviceID)
		if !strings.Contains(name, query) && !strings.Contains(id, query) {
			continue
		}
		matches = append(matches, ranked{
			record: d,
			name:   prefixRank(name, query),
			id:     prefixRank(id, query),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].name != matches[j].name {
			return matches[i].name < matches[j].name
		}
		return matches[i].id < matches[j].id
	})

	result := make([]models.DeviceRecord, len(matches))
	for i, m := range matches {
		result[i] = m.record
	}
	return result
}

// prefixRank is 0 for a prefix match, 1 otherwise
func prefixRank(value, query string) int {
	if strings.HasPrefix(value, query) {
		return 0
	}
	return 1
}

func matchesGroup(d models.DeviceRecord, groupID string) bool {
	switch groupID {
	case "", GroupAll:
		return true
	case GroupUnassigned:
		return d.GroupName == ""
	default:
		return d.GroupName == groupID
	}
}
