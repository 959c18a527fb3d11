package domain

import "time"

// Purchase is a committed customer order. It is immutable once written and
// always owns at least one line.
type Purchase struct {
	ID              int64
	CustomerName    string
	ShippingAddress string
	CreatedAt       time.Time
	Lines           []PurchaseLine
}

type PurchaseLine struct {
	ID         int64
	PurchaseID int64
	ItemID     int64
	Quantity   int
}

// PurchaseRequest is a candidate purchase as submitted by a caller, before
// validation and before any identifier has been assigned.
type PurchaseRequest struct {
	CustomerName    string
	ShippingAddress string
	Lines           []LineRequest
}

type LineRequest struct {
	ItemID   int64
	Quantity int
}
