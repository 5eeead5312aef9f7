package marketdata

import (
	"fmt"
	"strings"
	"time"
)

// Period is a historical window selectable on the dashboard.
type Period string

const (
	Period5Y  Period = "5y"
	Period3Y  Period = "3y"
	Period1Y  Period = "1y"
	PeriodYTD Period = "ytd"
	Period6M  Period = "6mo"
	Period3M  Period = "3mo"
	Period1M  Period = "1mo"
	Period1W  Period = "1wk"
)

// DefaultPeriod is used for volatility estimation and as the chart default.
const DefaultPeriod = Period1Y

// Periods lists every window in selector order.
var Periods = []Period{Period5Y, Period3Y, Period1Y, PeriodYTD, Period6M, Period3M, Period1M, Period1W}

// ParsePeriod maps a selector value to a Period. Empty input yields the default.
func ParsePeriod(s string) (Period, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultPeriod, nil
	}
	for _, p := range Periods {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown period %q", s)
}

func (p Period) String() string { return string(p) }

// Start returns the first calendar day (UTC midnight) covered by the window
// ending at now.
func (p Period) Start(now time.Time) time.Time {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch p {
	case Period5Y:
		return day.AddDate(-5, 0, 0)
	case Period3Y:
		return day.AddDate(-3, 0, 0)
	case PeriodYTD:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	case Period6M:
		return day.AddDate(0, -6, 0)
	case Period3M:
		return day.AddDate(0, -3, 0)
	case Period1M:
		return day.AddDate(0, -1, 0)
	case Period1W:
		return day.AddDate(0, 0, -7)
	default:
		return day.AddDate(-1, 0, 0)
	}
}
