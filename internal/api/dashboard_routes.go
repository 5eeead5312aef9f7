package api

import (
	"bytes"
	"net/http"

	"github.com/kjannette/optiondash/internal/dashboard"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	form, problems := s.svc.ParseForm(r.URL.Query())
	view := s.svc.Build(r.Context(), form)
	view.Problems = problems

	var buf bytes.Buffer
	if err := dashboard.Render(&buf, view); err != nil {
		s.log.Errorw("render dashboard", "request_id", RequestID(r.Context()), "error", err)
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
