package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rl1809/stockroom/internal/core/domain"
	"github.com/rl1809/stockroom/internal/port"
)

const defaultListLimit = 50

// PurchaseService accepts purchase requests, validates them and hands them
// to the store as one atomic unit of work.
type PurchaseService struct {
	purchases port.PurchaseRepository
	cache     port.StockCache
	logger    *zap.Logger
}

func NewPurchaseService(purchases port.PurchaseRepository, cache port.StockCache, logger *zap.Logger) *PurchaseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseService{
		purchases: purchases,
		cache:     cache,
		logger:    logger,
	}
}

// Submit validates a purchase request and executes it transactionally.
// On success it returns the new purchase id. A validation failure never
// reaches the store; any mid-transaction failure rolls the whole purchase
// back before this returns.
func (s *PurchaseService) Submit(ctx context.Context, req domain.PurchaseRequest) (int64, error) {
	if err := ValidatePurchaseRequest(req); err != nil {
		return 0, err
	}

	id, err := s.purchases.CreatePurchase(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			s.logger.Info("purchase rejected", zap.Error(err))
			return 0, err
		}
		s.logger.Error("purchase transaction failed", zap.Error(err))
		return 0, fmt.Errorf("create purchase: %w", err)
	}

	s.invalidateStock(ctx, req.Lines)

	s.logger.Info("purchase committed",
		zap.Int64("purchase_id", id),
		zap.Int("lines", len(req.Lines)),
	)
	return id, nil
}

// GetPurchase returns a committed purchase with its lines.
func (s *PurchaseService) GetPurchase(ctx context.Context, id int64) (*domain.Purchase, error) {
	if id <= 0 {
		return nil, domain.ErrPurchaseNotFound
	}
	return s.purchases.GetPurchase(ctx, id)
}

// ListPurchases returns recent purchases, newest first.
func (s *PurchaseService) ListPurchases(ctx context.Context, limit int) ([]domain.Purchase, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.purchases.ListPurchases(ctx, limit)
}

func (s *PurchaseService) invalidateStock(ctx context.Context, lines []domain.LineRequest) {
	if s.cache == nil {
		return
	}
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ItemID)
	}
	if err := s.cache.InvalidateStock(ctx, ids...); err != nil {
		s.logger.Warn("stock cache invalidation failed", zap.Error(err))
	}
}

// ValidatePurchaseRequest checks the request's structure only: it performs
// no reads or writes and is safe to call repeatedly. Stock sufficiency is
// deliberately not checked here; concurrent purchases would make any answer
// stale by commit time, so the transaction decides.
func ValidatePurchaseRequest(req domain.PurchaseRequest) error {
	if strings.TrimSpace(req.CustomerName) == "" {
		return fmt.Errorf("%w: customer_name is required", domain.ErrValidation)
	}
	if strings.TrimSpace(req.ShippingAddress) == "" {
		return fmt.Errorf("%w: shipping_address is required", domain.ErrValidation)
	}
	if len(req.Lines) == 0 {
		return fmt.Errorf("%w: items must contain at least one line", domain.ErrValidation)
	}
	for i, line := range req.Lines {
		if line.ItemID <= 0 {
			return fmt.Errorf("%w: items[%d].item_id must be a positive integer", domain.ErrValidation, i)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: items[%d].quantity must be a positive integer", domain.ErrValidation, i)
		}
	}
	return nil
}
