package web

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/vbonduro/spaceaccess/internal/export"
)

const exportPrefix = "access_log"

// renderExport renders the whole event log in the requested format.
func (s *Server) renderExport(r *http.Request) (export.Format, []byte, error) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		return "", nil, err
	}
	events, err := s.tracker.ExportEvents(r.Context())
	if err != nil {
		return "", nil, err
	}
	out, err := export.Render(format, export.FromEvents(events))
	if err != nil {
		return "", nil, err
	}
	return format, out, nil
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, out, err := s.renderExport(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s%s"`, exportPrefix, format.Ext()))
	if _, err := w.Write(out); err != nil {
		s.logger.Error("write export failed", "error", err)
	}
}

type savedExport struct {
	Key string `json:"key"`
}

func (s *Server) handleSaveExport(w http.ResponseWriter, r *http.Request) {
	format, out, err := s.renderExport(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	key, err := s.exports.Save(r.Context(), exportPrefix, format, bytes.NewReader(out))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("export saved", "key", key, "bytes", len(out))
	w.Header().Set("Location", "/exports/"+key)
	writeJSON(w, http.StatusCreated, savedExport{Key: key})
}

func (s *Server) handleGetExport(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	reader, contentType, err := s.exports.Get(r.Context(), key)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer closeWithLog(reader, "export reader", s.logger)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, key))
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write export failed", "key", key, "error", err)
	}
}

func (s *Server) handleDeleteExport(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if err := s.exports.Delete(r.Context(), key); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("export deleted", "key", key)
	w.WriteHeader(http.StatusNoContent)
}
