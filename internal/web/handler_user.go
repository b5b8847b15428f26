package web

import (
	"net/http"

	"github.com/vbonduro/spaceaccess/internal/identity"
	"github.com/vbonduro/spaceaccess/internal/service"
)

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.directory.Get(r.Context(), identity.Normalize(r.PathValue("studentId")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var in service.UserUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.directory.Update(r.Context(), identity.Normalize(r.PathValue("studentId")), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
