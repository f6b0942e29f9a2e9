package http

import (
	"net/http"

	"spendreport/internal/report"
)

// reportArgs parses the period and granularity query parameters, falling
// back to the monthly category view.
func reportArgs(r *http.Request) (report.Period, report.Granularity, error) {
	period := report.PeriodMonth
	if v := r.URL.Query().Get("period"); v != "" {
		parsed, err := report.ParsePeriod(v)
		if err != nil {
			return "", "", err
		}
		period = parsed
	}
	grain := report.GranularityCategory
	if v := r.URL.Query().Get("granularity"); v != "" {
		parsed, err := report.ParseGranularity(v)
		if err != nil {
			return "", "", err
		}
		grain = parsed
	}
	return period, grain, nil
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	period, grain, err := reportArgs(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Reports.Report(r.Context(), period, grain))
}

func (s *Server) handleDonut(w http.ResponseWriter, r *http.Request) {
	_, grain, err := reportArgs(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Reports.Donut(r.Context(), grain))
}

func (s *Server) handleBar(w http.ResponseWriter, r *http.Request) {
	_, grain, err := reportArgs(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Reports.Bar(r.Context(), grain))
}
