package port

import (
	"context"

	"github.com/rl1809/stockroom/internal/core/domain"
)

// PurchaseRepository persists purchases against the durable store.
type PurchaseRepository interface {
	// CreatePurchase applies the header insert, every line insert and every
	// stock decrement as a single transaction: the whole purchase commits or
	// nothing does. Returns the new purchase id, or
	// domain.ErrInsufficientStock when any line cannot be covered.
	CreatePurchase(ctx context.Context, req domain.PurchaseRequest) (int64, error)

	// GetPurchase loads a purchase header together with its lines.
	GetPurchase(ctx context.Context, id int64) (*domain.Purchase, error)

	// ListPurchases returns the most recent purchases, newest first.
	ListPurchases(ctx context.Context, limit int) ([]domain.Purchase, error)
}

// ItemRepository owns the item catalog and the authoritative stock column.
type ItemRepository interface {
	CreateItem(ctx context.Context, item domain.Item) (int64, error)
	GetItem(ctx context.Context, id int64) (*domain.Item, error)
	ListItems(ctx context.Context) ([]domain.Item, error)
	UpdateItem(ctx context.Context, item domain.Item) error
	DeleteItem(ctx context.Context, id int64) error

	// GetStock reads the current stock level for one item.
	GetStock(ctx context.Context, id int64) (int, error)
}
