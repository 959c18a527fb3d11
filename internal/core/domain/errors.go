package domain

import "errors"

var (
	// ErrValidation marks a malformed or semantically invalid request,
	// detected before any storage mutation. Wrapped with a specific message.
	ErrValidation = errors.New("invalid request")

	// ErrInsufficientStock is returned when a conditional stock decrement
	// affects zero rows. An unknown item and an out-of-stock item are
	// indistinguishable at that point, so one error covers both.
	ErrInsufficientStock = errors.New("insufficient stock or invalid item")

	ErrItemNotFound     = errors.New("item not found")
	ErrPurchaseNotFound = errors.New("purchase not found")

	// ErrItemReferenced blocks deletion of an item that appears on a
	// committed purchase line.
	ErrItemReferenced = errors.New("item referenced by existing purchases")
)
