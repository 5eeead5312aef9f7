package models

import "time"

// Bar is one daily OHLCV record for a ticker.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// StoredBar is a Bar as archived in price_history.
type StoredBar struct {
	ID         int64     `json:"id"`
	Ticker     string    `json:"ticker"`
	TradingDay string    `json:"tradingDay"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"createdAt"`
	Bar
}
