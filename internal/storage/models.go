package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// DealRow is a persisted deal event for auditing.
type DealRow struct {
	ID             int64
	RouteKey       string
	TravelDate     time.Time
	Price          decimal.Decimal
	HistoricalMean decimal.Decimal
	SavingsPct     decimal.Decimal
	Source         string
	NotifiedAt     time.Time
	CreatedAt      time.Time
}
