package http

import (
	"net/http"

	"spendreport/internal/core"
)

type idsRequest struct {
	IDs []int64 `json:"ids"`
}

type reassignRequest struct {
	IDs  []int64         `json:"ids"`
	Pair *core.CatSubcat `json:"pair"`
}

type touchedResponse struct {
	Touched int `json:"touched"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Transactions.List(r.Context()))
}

func (s *Server) handleDeleteTransactions(w http.ResponseWriter, r *http.Request) {
	var req idsRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if len(req.IDs) == 0 {
		badRequest(w, "no transaction ids given")
		return
	}
	writeJSON(w, http.StatusOK, touchedResponse{Touched: s.svc.Transactions.Delete(r.Context(), req.IDs)})
}

func (s *Server) handleNegateTransactions(w http.ResponseWriter, r *http.Request) {
	var req idsRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if len(req.IDs) == 0 {
		badRequest(w, "no transaction ids given")
		return
	}
	writeJSON(w, http.StatusOK, touchedResponse{Touched: s.svc.Transactions.NegateAmounts(r.Context(), req.IDs)})
}

func (s *Server) handleReassignTransactions(w http.ResponseWriter, r *http.Request) {
	var req reassignRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if len(req.IDs) == 0 {
		badRequest(w, "no transaction ids given")
		return
	}
	writeJSON(w, http.StatusOK, touchedResponse{Touched: s.svc.Transactions.Reassign(r.Context(), req.IDs, req.Pair)})
}

func (s *Server) handleRegistry(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Transactions.Registry(r.Context()))
}
