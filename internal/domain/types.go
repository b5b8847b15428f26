package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// The seed location exists in every database and cannot be deleted.
var SeedLocationID = uuid.MustParse("11111111-1111-1111-1111-111111111111")

const (
	SeedLocationName     = "Main Space"
	SeedLocationCapacity = 100

	UserStatusActive = "active"
)

type EventType string

const (
	EventEntry  EventType = "entry"
	EventExit   EventType = "exit"
	EventManual EventType = "manual"
)

// ParseEventType accepts the three known event types, case-insensitively.
func ParseEventType(s string) (EventType, error) {
	switch t := EventType(strings.ToLower(strings.TrimSpace(s))); t {
	case EventEntry, EventExit, EventManual:
		return t, nil
	default:
		return "", &ValidationError{Field: "event_type", Message: "must be one of entry, exit, manual"}
	}
}

type User struct {
	ID        uuid.UUID `json:"id"`
	StudentID string    `json:"student_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName is "First Last" with blanks collapsed.
func (u *User) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

type Location struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Capacity *int      `json:"capacity"`
}

// IsSeed reports whether l is the protected seed location.
func (l *Location) IsSeed() bool {
	return l.ID == SeedLocationID
}

// ScanEvent is one entry of the append-only event log. ID is the log
// sequence and breaks ties between events with equal timestamps.
type ScanEvent struct {
	ID               int64      `json:"id"`
	UserID           *uuid.UUID `json:"user_id"`
	ScannedStudentID string     `json:"scanned_student_id"`
	NameAtScan       string     `json:"name_at_scan"`
	Type             EventType  `json:"event_type"`
	LocationID       uuid.UUID  `json:"location_id"`
	Timestamp        time.Time  `json:"timestamp_utc"`
	RawPayload       string     `json:"raw_payload"`
}

// After reports whether e is more recent than other in log order.
func (e *ScanEvent) After(other *ScanEvent) bool {
	if !e.Timestamp.Equal(other.Timestamp) {
		return e.Timestamp.After(other.Timestamp)
	}
	return e.ID > other.ID
}

// EventDetail is a ScanEvent joined with the current user names and the
// location name, for listing and export.
type EventDetail struct {
	ScanEvent
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	LocationName string `json:"location_name"`
}

// DisplayName falls back to the linked user's name when nothing was
// recorded at scan time.
func (d *EventDetail) DisplayName() string {
	if strings.TrimSpace(d.NameAtScan) != "" {
		return d.NameAtScan
	}
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

type Occupancy struct {
	LocationID   uuid.UUID `json:"location_id"`
	LocationName string    `json:"location_name"`
	Count        int       `json:"count"`
	Capacity     *int      `json:"capacity"`
	OverCapacity bool      `json:"over_capacity"`
	Present      []string  `json:"present"`
}

// EventFilter drives paginated listing and search of the event log.
type EventFilter struct {
	Query  string
	Limit  int
	Offset int
}
