package web

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/vbonduro/spaceaccess/internal/domain"
	"github.com/vbonduro/spaceaccess/internal/service"
)

// scanRequest leaves type and location_id to the domain parsers, which
// accept any letter case.
type scanRequest struct {
	Type       string `json:"type" validate:"required"`
	StudentID  string `json:"student_id" validate:"required,max=64"`
	FirstName  string `json:"first_name" validate:"max=100"`
	LastName   string `json:"last_name" validate:"max=100"`
	LocationID string `json:"location_id"`
}

// target resolves the event type and location, defaulting the location to
// the seed.
func (req scanRequest) target() (domain.EventType, uuid.UUID, error) {
	typ, err := domain.ParseEventType(req.Type)
	if err != nil {
		return "", uuid.Nil, &domain.ValidationError{Field: "type", Message: "must be one of entry, exit, manual"}
	}
	raw := strings.TrimSpace(req.LocationID)
	if raw == "" {
		return typ, domain.SeedLocationID, nil
	}
	locationID, err := uuid.Parse(raw)
	if err != nil {
		return "", uuid.Nil, &domain.ValidationError{Field: "location_id", Message: "must be a UUID"}
	}
	return typ, locationID, nil
}

type occupancyAfterScan struct {
	Event     *domain.ScanEvent `json:"event"`
	Occupancy *domain.Occupancy `json:"occupancy"`
}

func (s *Server) handleRecordScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	typ, locationID, err := req.target()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ev, err := s.tracker.RecordEvent(r.Context(), service.RecordInput{
		Type:         typ,
		RawStudentID: req.StudentID,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		LocationID:   locationID,
		Source:       "api",
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	occ, err := s.tracker.Occupancy(r.Context(), locationID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, occupancyAfterScan{Event: ev, Occupancy: occ})
}

type eventPage struct {
	Events []*domain.EventDetail `json:"events"`
	Total  int                   `json:"total"`
	Offset int                   `json:"offset"`
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	filter := domain.EventFilter{
		Query:  strings.TrimSpace(r.URL.Query().Get("q")),
		Limit:  limit,
		Offset: offset,
	}
	events, total, err := s.tracker.ListEvents(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if events == nil {
		events = []*domain.EventDetail{}
	}
	writeJSON(w, http.StatusOK, eventPage{Events: events, Total: total, Offset: offset})
}

type renameRequest struct {
	NameAtScan string `json:"name_at_scan" validate:"required,max=200"`
}

func (s *Server) handleRenameEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseEventID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req renameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	ev, err := s.tracker.RenameEvent(r.Context(), id, req.NameAtScan)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseEventID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.tracker.DeleteEvent(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
