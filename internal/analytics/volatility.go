// Package analytics derives the scalar inputs the dashboard needs from a
// window of closing prices.
package analytics

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear annualizes daily return dispersion.
const TradingDaysPerYear = 252

var (
	ErrInsufficientHistory = errors.New("at least two closing prices are required")
	ErrInvalidPrice        = errors.New("closing prices must be positive")
)

// DailyReturns returns the simple returns between consecutive closes.
func DailyReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		out = append(out, (closes[i]-closes[i-1])/closes[i-1])
	}
	return out
}

// AnnualizedVolatility is the sample standard deviation of daily simple
// returns scaled by sqrt(252). Two closes produce a single return whose
// dispersion is reported as 0; callers must not price with that value.
func AnnualizedVolatility(closes []float64) (float64, error) {
	if len(closes) < 2 {
		return 0, fmt.Errorf("%w: got %d", ErrInsufficientHistory, len(closes))
	}
	for i, c := range closes {
		if !(c > 0) || math.IsInf(c, 0) {
			return 0, fmt.Errorf("%w: close[%d]=%v", ErrInvalidPrice, i, c)
		}
	}

	returns := DailyReturns(closes)
	if len(returns) < 2 {
		return 0, nil
	}
	return stat.StdDev(returns, nil) * math.Sqrt(TradingDaysPerYear), nil
}
