package api

import (
	"net/http"
	"time"

	"github.com/kjannette/optiondash/internal/marketdata"
)

const defaultArchiveLimit = 500

func (s *Server) requireArchive(w http.ResponseWriter) bool {
	if s.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "price archive disabled")
		return false
	}
	return true
}

func (s *Server) handleArchiveTickers(w http.ResponseWriter, r *http.Request) {
	if !s.requireArchive(w) {
		return
	}
	tickers, err := s.archive.GetTickers(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if tickers == nil {
		tickers = []string{}
	}
	writeJSON(w, http.StatusOK, tickers)
}

// handleArchiveRange serves stored bars between from and to (YYYY-MM-DD,
// default the last year), newest limit bars.
func (s *Server) handleArchiveRange(w http.ResponseWriter, r *http.Request) {
	if !s.requireArchive(w) {
		return
	}
	ticker, err := marketdata.NormalizeTicker(r.PathValue("ticker"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ticker")
		return
	}

	to := time.Now().UTC()
	from := marketdata.Period1Y.Start(to)
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		if !validateDate(v) {
			writeError(w, http.StatusBadRequest, "invalid from date, expected YYYY-MM-DD")
			return
		}
		from, _ = time.Parse("2006-01-02", v)
	}
	if v := q.Get("to"); v != "" {
		if !validateDate(v) {
			writeError(w, http.StatusBadRequest, "invalid to date, expected YYYY-MM-DD")
			return
		}
		to, _ = time.Parse("2006-01-02", v)
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "to is before from")
		return
	}

	bars, err := s.archive.GetRange(r.Context(), ticker, from, to)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if limit := parseLimit(r, defaultArchiveLimit); len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	writeJSON(w, http.StatusOK, bars)
}

func (s *Server) handleArchiveLatest(w http.ResponseWriter, r *http.Request) {
	if !s.requireArchive(w) {
		return
	}
	ticker, err := marketdata.NormalizeTicker(r.PathValue("ticker"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ticker")
		return
	}
	bar, err := s.archive.GetLatest(r.Context(), ticker)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if bar == nil {
		writeError(w, http.StatusNotFound, "no archived bars for "+ticker)
		return
	}
	writeJSON(w, http.StatusOK, bar)
}
