package rest

import (
	"net/http"

	"github.com/dmitrijs2005/staffkeeper/internal/server/models"
)

type positionRequest struct {
	PositionCode *string `json:"position_code"`
	PositionName *string `json:"position_name"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s *HTTPServer) listPositions(w http.ResponseWriter, r *http.Request) {
	list, err := s.positions.List(r.Context())
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *HTTPServer) getPosition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	p, err := s.positions.Get(r.Context(), id)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// createPosition attributes the new position to the caller.
func (s *HTTPServer) createPosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	p, err := s.positions.Create(r.Context(), deref(req.PositionCode), deref(req.PositionName), callerID(r.Context()))
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *HTTPServer) updatePosition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	var req positionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	p, err := s.positions.Update(r.Context(), id, models.PositionPatch{
		PositionCode: req.PositionCode,
		PositionName: req.PositionName,
	})
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *HTTPServer) deletePosition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}

	if err := s.positions.Delete(r.Context(), id); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "position deleted"})
}
