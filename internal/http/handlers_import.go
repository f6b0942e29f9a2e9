package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"spendreport/internal/services"
)

func (s *Server) handleImportPreview(w http.ResponseWriter, r *http.Request) {
	rows, err := readCSVGrid(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	preview, err := s.svc.Import.Preview(r.Context(), rows)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func (s *Server) handleImportCommit(w http.ResponseWriter, r *http.Request) {
	rows, err := readCSVGrid(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	source := strings.TrimSpace(r.URL.Query().Get("source"))
	if source == "" {
		source = "upload"
	}
	sel, err := parseSelection(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	result, err := s.svc.Import.Commit(r.Context(), rows, source, sel)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// parseSelection reads the optional row selection from the query string:
// "rows" is a comma-separated list of preview row indexes and
// "includeDuplicates" widens the default selection to duplicate rows.
func parseSelection(r *http.Request) (services.Selection, error) {
	var sel services.Selection
	if v := r.URL.Query().Get("rows"); v != "" {
		for _, part := range strings.Split(v, ",") {
			i, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || i < 0 {
				return sel, fmt.Errorf("invalid row index %q", part)
			}
			sel.Rows = append(sel.Rows, i)
		}
	}
	if v := r.URL.Query().Get("includeDuplicates"); v != "" {
		include, err := strconv.ParseBool(v)
		if err != nil {
			return sel, fmt.Errorf("invalid includeDuplicates value %q", v)
		}
		sel.IncludeDuplicates = include
	}
	return sel, nil
}
