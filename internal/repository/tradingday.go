package repository

import "time"

// TradingDay returns the session date (YYYY-MM-DD) of a daily bar.
// Providers stamp US daily bars between 00:00 and 21:00 UTC (midnight,
// the New York midnight at 05:00, or the 14:30 open), so the UTC calendar
// date is the session date.
func TradingDay(ts time.Time) string {
	return ts.UTC().Format("2006-01-02")
}
