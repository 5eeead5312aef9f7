package analytics

import (
	"fmt"
	"math"

	"github.com/kjannette/optiondash/internal/models"
)

// Trend is the display category of a price change.
type Trend string

const (
	TrendUp         Trend = "up"
	TrendDownOrFlat Trend = "down"
)

// PercentChange returns the change from first to last in percent.
func PercentChange(first, last float64) (float64, error) {
	if !(first > 0) || math.IsInf(first, 0) {
		return 0, fmt.Errorf("%w: first close %v", ErrInvalidPrice, first)
	}
	return (last - first) * 100 / first, nil
}

// Classify treats exactly 0% as not up.
func Classify(pct float64) Trend {
	if pct > 0 {
		return TrendUp
	}
	return TrendDownOrFlat
}

// Change summarizes a window of bars.
type Change struct {
	First   float64 `json:"first"`
	Last    float64 `json:"last"`
	Percent float64 `json:"percent"`
	Trend   Trend   `json:"trend"`
}

// Summarize compares the first and last close of bars.
func Summarize(bars []models.Bar) (Change, error) {
	if len(bars) == 0 {
		return Change{}, fmt.Errorf("%w: empty window", ErrInsufficientHistory)
	}
	first, last := bars[0].Close, bars[len(bars)-1].Close
	pct, err := PercentChange(first, last)
	if err != nil {
		return Change{}, err
	}
	return Change{First: first, Last: last, Percent: pct, Trend: Classify(pct)}, nil
}

// Closes extracts the closing prices of bars in order.
func Closes(bars []models.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
