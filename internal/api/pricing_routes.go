package api

import (
	"net/http"

	"github.com/kjannette/optiondash/internal/metrics"
	"github.com/kjannette/optiondash/internal/pricing"
)

type priceResponse struct {
	Inputs pricing.Inputs      `json:"inputs"`
	Type   *pricing.OptionType `json:"type,omitempty"`
	Price  *float64            `json:"price,omitempty"`
	Result *pricing.Result     `json:"result,omitempty"`
}

// handlePrice prices one leg when type is given, both legs otherwise.
func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	var in pricing.Inputs
	for _, f := range []struct {
		key string
		dst *float64
	}{
		{"spot", &in.Spot},
		{"strike", &in.Strike},
		{"maturity", &in.TimeToMaturity},
		{"rate", &in.RiskFreeRate},
		{"volatility", &in.Volatility},
	} {
		v, err := parseFloat(r, f.key)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		*f.dst = v
	}

	resp := priceResponse{Inputs: in}
	if raw := r.URL.Query().Get("type"); raw != "" {
		typ, err := pricing.ParseOptionType(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		price, err := pricing.Price(in, typ)
		metrics.ObservePricing(typ.String(), err)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		resp.Type, resp.Price = &typ, &price
	} else {
		res, err := pricing.Evaluate(in)
		metrics.ObservePricing("both", err)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		resp.Result = &res
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	form, problems := s.svc.ParseForm(r.URL.Query())
	if len(problems) > 0 {
		writeError(w, http.StatusBadRequest, problems[0])
		return
	}
	q, err := s.svc.Quote(r.Context(), form.QuoteRequest())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}
