package api

import (
	"net/http"

	"github.com/kjannette/optiondash/internal/dashboard"
	"github.com/kjannette/optiondash/internal/marketdata"
)

type historyResponse struct {
	*dashboard.Chart
	Formatted string `json:"formattedChange"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	period, err := marketdata.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	chart, err := s.svc.Chart(r.Context(), r.PathValue("ticker"), period)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{
		Chart:     chart,
		Formatted: dashboard.FormatPercent(chart.Change.Percent),
	})
}
