package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vbonduro/spaceaccess/internal/domain"
)

const eventColumns = `e.id, e.user_id, e.scanned_student_id, e.name_at_scan, e.event_type, e.location_id, e.timestamp_utc, e.raw_payload`

type eventRow struct {
	ID               int64         `db:"id"`
	UserID           uuid.NullUUID `db:"user_id"`
	ScannedStudentID string        `db:"scanned_student_id"`
	NameAtScan       string        `db:"name_at_scan"`
	EventType        string        `db:"event_type"`
	LocationID       uuid.UUID     `db:"location_id"`
	TimestampUTC     string        `db:"timestamp_utc"`
	RawPayload       string        `db:"raw_payload"`
}

func (r *eventRow) toDomain() (*domain.ScanEvent, error) {
	ts, err := parseTime(r.TimestampUTC)
	if err != nil {
		return nil, err
	}
	ev := &domain.ScanEvent{
		ID:               r.ID,
		ScannedStudentID: r.ScannedStudentID,
		NameAtScan:       r.NameAtScan,
		Type:             domain.EventType(r.EventType),
		LocationID:       r.LocationID,
		Timestamp:        ts,
		RawPayload:       r.RawPayload,
	}
	if r.UserID.Valid {
		id := r.UserID.UUID
		ev.UserID = &id
	}
	return ev, nil
}

type eventDetailRow struct {
	eventRow
	FirstName    string `db:"first_name"`
	LastName     string `db:"last_name"`
	LocationName string `db:"location_name"`
}

type EventStore struct {
	db sqlx.ExtContext
}

func NewEventStore(db sqlx.ExtContext) *EventStore {
	return &EventStore{db: db}
}

// Append adds ev to the log and returns it with its assigned sequence id.
func (s *EventStore) Append(ctx context.Context, ev *domain.ScanEvent) (*domain.ScanEvent, error) {
	var userID uuid.NullUUID
	if ev.UserID != nil {
		userID = uuid.NullUUID{UUID: *ev.UserID, Valid: true}
	}
	payload := ev.RawPayload
	if payload == "" {
		payload = "{}"
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO scan_events (user_id, scanned_student_id, name_at_scan, event_type, location_id, timestamp_utc, raw_payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, userID, ev.ScannedStudentID, ev.NameAtScan, string(ev.Type), ev.LocationID, formatTime(ev.Timestamp), payload)
	if err != nil {
		return nil, fmt.Errorf("failed to append event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *EventStore) GetByID(ctx context.Context, id int64) (*domain.ScanEvent, error) {
	var row eventRow
	err := sqlx.GetContext(ctx, s.db, &row, `SELECT `+eventColumns+` FROM scan_events e WHERE e.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return row.toDomain()
}

// ListByLocation returns every event for the location in log order.
func (s *EventStore) ListByLocation(ctx context.Context, locationID uuid.UUID) ([]*domain.ScanEvent, error) {
	var rows []eventRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, `
		SELECT `+eventColumns+` FROM scan_events e
		WHERE e.location_id = ?
		ORDER BY e.timestamp_utc ASC, e.id ASC
	`, locationID); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]*domain.ScanEvent, 0, len(rows))
	for i := range rows {
		ev, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// List returns events newest first, joined with user and location names,
// together with the total number of matches. A blank Query matches
// everything; otherwise it is a case-insensitive substring match, folded
// with the Unicode-aware unicode_lower function registered by package db,
// against
// the student id, the user's first and last name and the name at scan.
// A non-positive Limit returns all matches.
func (s *EventStore) List(ctx context.Context, filter domain.EventFilter) ([]*domain.EventDetail, int, error) {
	where := ""
	var args []any
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
		where = `WHERE unicode_lower(e.scanned_student_id) LIKE ? ESCAPE '\'
			OR unicode_lower(COALESCE(u.first_name, '')) LIKE ? ESCAPE '\'
			OR unicode_lower(COALESCE(u.last_name, '')) LIKE ? ESCAPE '\'
			OR unicode_lower(e.name_at_scan) LIKE ? ESCAPE '\'`
		args = append(args, pattern, pattern, pattern, pattern)
	}

	from := `
		FROM scan_events e
		LEFT JOIN users u ON u.id = e.user_id
		LEFT JOIN locations l ON l.id = e.location_id
		` + where

	var total int
	if err := sqlx.GetContext(ctx, s.db, &total, `SELECT COUNT(*) `+from, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var rows []eventDetailRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, `
		SELECT `+eventColumns+`,
			COALESCE(u.first_name, '') AS first_name,
			COALESCE(u.last_name, '') AS last_name,
			COALESCE(l.name, '') AS location_name
		`+from+`
		ORDER BY e.timestamp_utc DESC, e.id DESC
		LIMIT ? OFFSET ?
	`, append(args, limit, offset)...); err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}

	details := make([]*domain.EventDetail, 0, len(rows))
	for i := range rows {
		ev, err := rows[i].toDomain()
		if err != nil {
			return nil, 0, err
		}
		details = append(details, &domain.EventDetail{
			ScanEvent:    *ev,
			FirstName:    rows[i].FirstName,
			LastName:     rows[i].LastName,
			LocationName: rows[i].LocationName,
		})
	}
	return details, total, nil
}

func (s *EventStore) UpdateNameAtScan(ctx context.Context, id int64, name string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE scan_events SET name_at_scan = ? WHERE id = ?
	`, name, id)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return expectOne(result, "event", strconv.FormatInt(id, 10))
}

func (s *EventStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM scan_events WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return expectOne(result, "event", strconv.FormatInt(id, 10))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
