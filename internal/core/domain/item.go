package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Item struct {
	ID        int64
	Name      string
	Stock     int
	Price     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}
