package domain

import "github.com/shopspring/decimal"

// Plan is a mining tier from the static catalog. Rate is USD credited per
// completed 6-hour cycle, Price is the one-time purchase price in USD.
type Plan struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Rate        decimal.Decimal `json:"rate"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
}
