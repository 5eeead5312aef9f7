// Package pricing values European options with the Black-Scholes closed form.
package pricing

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInvalidInput is returned when an evaluation precondition does not hold.
var ErrInvalidInput = errors.New("invalid pricing input")

// Inputs holds the market and contract parameters of one evaluation.
// TimeToMaturity is in years; RiskFreeRate is continuously compounded and
// Volatility is the annualized standard deviation of returns.
type Inputs struct {
	Spot           float64 `json:"spot"`
	Strike         float64 `json:"strike"`
	TimeToMaturity float64 `json:"timeToMaturity"`
	RiskFreeRate   float64 `json:"riskFreeRate"`
	Volatility     float64 `json:"volatility"`
}

// Result carries both legs for one set of inputs.
type Result struct {
	Call float64 `json:"call"`
	Put  float64 `json:"put"`
	D1   float64 `json:"d1"`
	D2   float64 `json:"d2"`
}

// Validate reports the first violated precondition.
func (in Inputs) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"spot", in.Spot},
		{"strike", in.Strike},
		{"time to maturity", in.TimeToMaturity},
		{"volatility", in.Volatility},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidInput, f.name, f.value)
		}
	}
	if math.IsNaN(in.RiskFreeRate) || math.IsInf(in.RiskFreeRate, 0) {
		return fmt.Errorf("%w: risk-free rate must be finite, got %v", ErrInvalidInput, in.RiskFreeRate)
	}
	return nil
}

// Price returns the theoretical value of a call or put.
func Price(in Inputs, t OptionType) (float64, error) {
	if !t.Valid() {
		return 0, fmt.Errorf("%w: option type %d", ErrInvalidInput, int(t))
	}
	if err := in.Validate(); err != nil {
		return 0, err
	}
	return Formula(in.Spot, in.Strike, in.TimeToMaturity, in.RiskFreeRate, in.Volatility, t), nil
}

// Evaluate prices the call and the put for the same inputs.
func Evaluate(in Inputs) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}
	d1, d2 := terms(in.Spot, in.Strike, in.TimeToMaturity, in.RiskFreeRate, in.Volatility)
	df := in.Strike * math.Exp(-in.RiskFreeRate*in.TimeToMaturity)
	return Result{
		Call: in.Spot*normCDF(d1) - df*normCDF(d2),
		Put:  df*normCDF(-d2) - in.Spot*normCDF(-d1),
		D1:   d1,
		D2:   d2,
	}, nil
}

// Formula evaluates Black-Scholes without checking its inputs. A zero
// maturity or volatility yields NaN or ±Inf.
func Formula(spot, strike, t, r, sigma float64, typ OptionType) float64 {
	d1, d2 := terms(spot, strike, t, r, sigma)
	if typ == Put {
		return strike*math.Exp(-r*t)*normCDF(-d2) - spot*normCDF(-d1)
	}
	return spot*normCDF(d1) - strike*math.Exp(-r*t)*normCDF(d2)
}

func terms(spot, strike, t, r, sigma float64) (d1, d2 float64) {
	volSqrtT := sigma * math.Sqrt(t)
	d1 = (math.Log(spot/strike) + (r+0.5*sigma*sigma)*t) / volSqrtT
	d2 = d1 - volSqrtT
	return d1, d2
}

func normCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}
