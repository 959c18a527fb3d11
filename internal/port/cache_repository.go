package port

import (
	"context"
	"time"
)

// StockCache is a read-side cache for stock levels. It only serves the
// stock query path; the database's conditional update is the single gate
// for stock mutation and the cache never participates in it.
type StockCache interface {
	// GetStock returns the cached stock and whether the key was present.
	GetStock(ctx context.Context, itemID int64) (int, bool, error)

	// SetStock caches a stock level with the given TTL.
	SetStock(ctx context.Context, itemID int64, stock int, ttl time.Duration) error

	// InvalidateStock drops cached entries after a stock-changing write.
	InvalidateStock(ctx context.Context, itemIDs ...int64) error
}
