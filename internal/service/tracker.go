package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/vbonduro/spaceaccess/internal/domain"
	"github.com/vbonduro/spaceaccess/internal/identity"
	"github.com/vbonduro/spaceaccess/internal/metrics"
	"github.com/vbonduro/spaceaccess/internal/occupancy"
	"github.com/vbonduro/spaceaccess/internal/store"
)

// Tracker owns the event log. Occupancy is always derived from the log and
// never stored.
type Tracker struct {
	store  *store.Store
	logger *slog.Logger
	opts   options
}

func NewTracker(st *store.Store, logger *slog.Logger, opts ...Option) *Tracker {
	return &Tracker{store: st, logger: logger, opts: buildOptions(opts)}
}

// RecordInput is one scan or manual check-in/out. Names are optional and
// only fill in or replace the user's stored names when non-blank.
type RecordInput struct {
	Type         domain.EventType
	RawStudentID string
	FirstName    string
	LastName     string
	LocationID   uuid.UUID
	// Source tags the raw payload, e.g. "scanner" or "api".
	Source string
}

type rawPayload struct {
	Raw    string `json:"raw"`
	Source string `json:"source,omitempty"`
}

// RecordEvent normalizes the scanned id, resolves or creates the user and
// appends the event, all in one transaction. Nothing is written when it
// returns an error.
func (t *Tracker) RecordEvent(ctx context.Context, in RecordInput) (*domain.ScanEvent, error) {
	ev, err := t.recordEvent(ctx, in)
	if err != nil {
		metrics.ScansRejectedTotal.WithLabelValues(metrics.RejectReason(err)).Inc()
		return nil, err
	}
	metrics.ScansRecordedTotal.WithLabelValues(string(ev.Type)).Inc()
	t.logger.Info("event recorded",
		"event_id", ev.ID,
		"event_type", ev.Type,
		"student_id", ev.ScannedStudentID,
		"location_id", ev.LocationID,
	)
	return ev, nil
}

func (t *Tracker) recordEvent(ctx context.Context, in RecordInput) (*domain.ScanEvent, error) {
	typ, err := domain.ParseEventType(string(in.Type))
	if err != nil {
		return nil, err
	}
	studentID := identity.Normalize(in.RawStudentID)
	if studentID == "" {
		return nil, &domain.ValidationError{Field: "student_id", Message: "missing Student ID"}
	}
	payload, err := json.Marshal(rawPayload{Raw: in.RawStudentID, Source: in.Source})
	if err != nil {
		return nil, fmt.Errorf("failed to encode raw payload: %w", err)
	}

	var ev *domain.ScanEvent
	err = t.store.InTx(ctx, func(tx *store.Store) error {
		loc, err := tx.Locations.GetByID(ctx, in.LocationID)
		if err != nil {
			return err
		}
		if loc == nil {
			return &domain.NotFoundError{Entity: "location", ID: in.LocationID.String()}
		}

		now := t.opts.now()
		user, created, err := getOrCreateUser(ctx, tx, studentID, in.FirstName, in.LastName, now)
		if err != nil {
			return err
		}
		if created {
			t.logger.Info("user created", "student_id", user.StudentID)
		}

		ev, err = tx.Events.Append(ctx, &domain.ScanEvent{
			UserID:           &user.ID,
			ScannedStudentID: user.StudentID,
			NameAtScan:       user.DisplayName(),
			Type:             typ,
			LocationID:       loc.ID,
			Timestamp:        now.UTC(),
			RawPayload:       string(payload),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// Occupancy derives the current occupancy of a location from the log.
func (t *Tracker) Occupancy(ctx context.Context, locationID uuid.UUID) (*domain.Occupancy, error) {
	var occ *domain.Occupancy
	err := t.store.InTx(ctx, func(tx *store.Store) error {
		loc, err := tx.Locations.GetByID(ctx, locationID)
		if err != nil {
			return err
		}
		if loc == nil {
			return &domain.NotFoundError{Entity: "location", ID: locationID.String()}
		}
		occ, err = resolveOccupancy(ctx, tx, loc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return occ, nil
}

// OccupancyAll derives occupancy for every location, ordered by name, from
// one consistent snapshot.
func (t *Tracker) OccupancyAll(ctx context.Context) ([]*domain.Occupancy, error) {
	var all []*domain.Occupancy
	err := t.store.InTx(ctx, func(tx *store.Store) error {
		locations, err := tx.Locations.List(ctx)
		if err != nil {
			return err
		}
		all = make([]*domain.Occupancy, 0, len(locations))
		for _, loc := range locations {
			occ, err := resolveOccupancy(ctx, tx, loc)
			if err != nil {
				return err
			}
			all = append(all, occ)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

func resolveOccupancy(ctx context.Context, tx *store.Store, loc *domain.Location) (*domain.Occupancy, error) {
	events, err := tx.Events.ListByLocation(ctx, loc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load events for location %s: %w", loc.ID, err)
	}
	return occupancy.Resolve(loc, events), nil
}

// ListRecent returns the newest events first. A non-positive limit uses
// the configured recent limit.
func (t *Tracker) ListRecent(ctx context.Context, limit int) ([]*domain.EventDetail, error) {
	if limit <= 0 {
		limit = t.opts.recentLimit
	}
	events, _, err := t.store.Events.List(ctx, domain.EventFilter{Limit: limit})
	return events, err
}

// ListEvents is the paginated form of ListRecent and Search. It also
// returns the total number of matching events.
func (t *Tracker) ListEvents(ctx context.Context, filter domain.EventFilter) ([]*domain.EventDetail, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = t.opts.recentLimit
	}
	return t.store.Events.List(ctx, filter)
}

// Search matches text case-insensitively as a substring of the student id,
// the user's first or last name, or the name recorded at scan time. Blank
// text lists the recent events.
func (t *Tracker) Search(ctx context.Context, text string) ([]*domain.EventDetail, error) {
	events, _, err := t.store.Events.List(ctx, domain.EventFilter{Query: text, Limit: t.opts.recentLimit})
	return events, err
}

// RenameEvent corrects the name recorded on a past event. When the event
// is linked to a user, the first whitespace-separated token becomes the
// user's first name and the remainder, if any, the last name. The event's
// type and timestamp are never touched.
func (t *Tracker) RenameEvent(ctx context.Context, id int64, name string) (*domain.ScanEvent, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &domain.ValidationError{Field: "name_at_scan", Message: "is required"}
	}

	var ev *domain.ScanEvent
	err := t.store.InTx(ctx, func(tx *store.Store) error {
		current, err := tx.Events.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return &domain.NotFoundError{Entity: "event", ID: strconv.FormatInt(id, 10)}
		}
		if err := tx.Events.UpdateNameAtScan(ctx, id, name); err != nil {
			return err
		}

		if current.UserID != nil {
			user, err := tx.Users.GetByID(ctx, *current.UserID)
			if err != nil {
				return err
			}
			if user != nil {
				first, last := splitName(name)
				if last == "" {
					last = user.LastName
				}
				if err := tx.Users.UpdateNames(ctx, user.ID, first, last); err != nil {
					return err
				}
			}
		}

		ev, err = tx.Events.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	t.logger.Info("event renamed", "event_id", id)
	return ev, nil
}

func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

// DeleteEvent removes an event from the log. Occupancy reflects the
// deletion on the next read.
func (t *Tracker) DeleteEvent(ctx context.Context, id int64) error {
	if err := t.store.Events.Delete(ctx, id); err != nil {
		return err
	}
	t.logger.Info("event deleted", "event_id", id)
	return nil
}

// ExportEvents returns the whole log, newest first, for export.
func (t *Tracker) ExportEvents(ctx context.Context) ([]*domain.EventDetail, error) {
	events, _, err := t.store.Events.List(ctx, domain.EventFilter{})
	return events, err
}
