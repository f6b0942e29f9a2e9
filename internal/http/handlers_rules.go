package http

import (
	"context"
	"net/http"

	"spendreport/internal/core"
)

type bulkRulesResponse struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

type renameRequest struct {
	Category string `json:"category,omitempty"`
	OldName  string `json:"oldName"`
	NewName  string `json:"newName"`
}

func (s *Server) handleListRules(w http.ResponseWriter, _ *http.Request) {
	rules := s.svc.Rules.List()
	if rules == nil {
		rules = []core.CategoryRule{}
	}
	writeJSON(w, http.StatusOK, rules)
}

func (s *Server) handleAddRule(w http.ResponseWriter, r *http.Request) {
	var rule core.CategoryRule
	if err := decodeJSON(r, &rule); err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.svc.Rules.Add(r.Context(), rule); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule.Normalized())
}

func (s *Server) handleAddRulesBulk(w http.ResponseWriter, r *http.Request) {
	var list []core.CategoryRule
	if err := decodeJSON(r, &list); err != nil {
		badRequest(w, err.Error())
		return
	}
	added, skipped := s.svc.Rules.AddBulk(r.Context(), list)
	writeJSON(w, http.StatusOK, bulkRulesResponse{Added: added, Skipped: skipped})
}

func (s *Server) handleReplaceRules(w http.ResponseWriter, r *http.Request) {
	var list []core.CategoryRule
	if err := decodeJSON(r, &list); err != nil {
		badRequest(w, err.Error())
		return
	}
	s.svc.Rules.ReplaceAll(r.Context(), list)
	writeJSON(w, http.StatusOK, s.svc.Rules.List())
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	matchText := r.PathValue("matchText")
	if !s.svc.Rules.Delete(r.Context(), matchText) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no rule with match text " + matchText})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoveRuleToTop(w http.ResponseWriter, r *http.Request) {
	s.moveRule(w, r, s.svc.Rules.MoveToTop)
}

func (s *Server) handleMoveRuleToBottom(w http.ResponseWriter, r *http.Request) {
	s.moveRule(w, r, s.svc.Rules.MoveToBottom)
}

func (s *Server) moveRule(w http.ResponseWriter, r *http.Request, move func(ctx context.Context, matchText string) bool) {
	matchText := r.PathValue("matchText")
	if !move(r.Context(), matchText) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no rule with match text " + matchText})
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Rules.List())
}

func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.OldName == "" || req.NewName == "" {
		badRequest(w, "both oldName and newName are required")
		return
	}
	touched := s.svc.Rules.RenameCategory(r.Context(), req.OldName, req.NewName)
	writeJSON(w, http.StatusOK, touchedResponse{Touched: touched})
}

func (s *Server) handleRenameSubcategory(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.Category == "" || req.OldName == "" || req.NewName == "" {
		badRequest(w, "category, oldName, and newName are required")
		return
	}
	touched := s.svc.Rules.RenameSubcategory(r.Context(), req.Category, req.OldName, req.NewName)
	writeJSON(w, http.StatusOK, touchedResponse{Touched: touched})
}
