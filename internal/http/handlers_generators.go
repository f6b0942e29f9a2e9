package http

import (
	"errors"
	"net/http"

	"spendreport/internal/core"
)

type runResponse struct {
	Added int `json:"added"`
}

func (s *Server) handleListGenerators(w http.ResponseWriter, _ *http.Request) {
	gens := s.svc.Recurring.List()
	if gens == nil {
		gens = []core.Generator{}
	}
	writeJSON(w, http.StatusOK, gens)
}

func (s *Server) handleAddGenerator(w http.ResponseWriter, r *http.Request) {
	var g core.Generator
	if err := decodeJSON(r, &g); err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.svc.Recurring.Add(r.Context(), g); err != nil {
		if errors.Is(err, core.ErrDuplicateGenerator) {
			writeError(w, r, err)
			return
		}
		// Anything else from Add is a validation failure.
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleDeleteGenerator(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Recurring.Delete(r.Context(), r.PathValue("name")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRunGenerators(w http.ResponseWriter, r *http.Request) {
	added, err := s.svc.Recurring.RunDue(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runResponse{Added: added})
}
