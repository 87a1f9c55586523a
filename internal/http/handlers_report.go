package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"finboard/internal/export"
	"finboard/internal/log"
	"finboard/internal/report"
)

// handleReport serves GET /api/report?year={all|YYYY}&limit=N.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year := yearParam(q)

	var (
		rep report.Report
		err error
	)
	if q.Has("limit") {
		limit, perr := strconv.Atoi(strings.TrimSpace(q.Get("limit")))
		if perr != nil || limit > s.maxRecentLimit {
			writeErrorKind(w, http.StatusBadRequest, KindInvalidLimit,
				fmt.Sprintf("limit must be an integer between 1 and %d", s.maxRecentLimit))
			return
		}
		rep, err = s.reports.ReportWithLimit(r.Context(), year, limit)
	} else {
		rep, err = s.reports.Report(r.Context(), year)
	}
	if err != nil {
		writeError(w, r, log.OpReport, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// handleExport serves GET /api/report/export?year=&format=xlsx|csv.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	format := s.exportFormat
	if q.Has("format") {
		f, err := export.ParseFormat(q.Get("format"))
		if err != nil {
			writeError(w, r, log.OpExport, err)
			return
		}
		format = f
	}

	data, err := s.reports.Export(r.Context(), yearParam(q), format)
	if err != nil {
		writeError(w, r, log.OpExport, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Report exported",
		log.FieldYear, yearParam(q),
		log.FieldFormat, string(format),
		"bytes", len(data))

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename()))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleYears serves GET /api/report/years.
func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	years, err := s.reports.Years(r.Context())
	if err != nil {
		writeError(w, r, log.OpReport, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]int{"years": years})
}
