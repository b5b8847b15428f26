// Package occupancy derives who is currently inside a location from the
// event log. Nothing here is stored: every call recomputes from the events
// it is given.
package occupancy

import (
	"sort"

	"github.com/vbonduro/spaceaccess/internal/domain"
)

// Resolve computes the occupancy of loc from events. Events for other
// locations are ignored and the order of the slice does not matter. For
// each student only the most recent event (by timestamp, then log sequence)
// is considered, and the student is counted when that event is an entry.
func Resolve(loc *domain.Location, events []*domain.ScanEvent) *domain.Occupancy {
	latest := make(map[string]*domain.ScanEvent)
	for _, ev := range events {
		if ev.LocationID != loc.ID {
			continue
		}
		if cur, ok := latest[ev.ScannedStudentID]; !ok || ev.After(cur) {
			latest[ev.ScannedStudentID] = ev
		}
	}

	present := make([]string, 0, len(latest))
	for studentID, ev := range latest {
		if ev.Type == domain.EventEntry {
			present = append(present, studentID)
		}
	}
	sort.Strings(present)

	occ := &domain.Occupancy{
		LocationID:   loc.ID,
		LocationName: loc.Name,
		Count:        len(present),
		Capacity:     loc.Capacity,
		Present:      present,
	}
	occ.OverCapacity = loc.Capacity != nil && occ.Count > *loc.Capacity
	return occ
}
