package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/stockroom/internal/core/domain"
	"github.com/rl1809/stockroom/internal/port"
)

// ItemService carries the item catalog CRUD and the cached stock read path.
type ItemService struct {
	items    port.ItemRepository
	cache    port.StockCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

func NewItemService(items port.ItemRepository, cache port.StockCache, cacheTTL time.Duration, logger *zap.Logger) *ItemService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ItemService{
		items:    items,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

func (s *ItemService) Create(ctx context.Context, item domain.Item) (int64, error) {
	if err := validateItem(item); err != nil {
		return 0, err
	}
	id, err := s.items.CreateItem(ctx, item)
	if err != nil {
		return 0, fmt.Errorf("create item: %w", err)
	}
	s.logger.Info("item created", zap.Int64("item_id", id), zap.String("name", item.Name))
	return id, nil
}

func (s *ItemService) Get(ctx context.Context, id int64) (*domain.Item, error) {
	if id <= 0 {
		return nil, domain.ErrItemNotFound
	}
	return s.items.GetItem(ctx, id)
}

func (s *ItemService) List(ctx context.Context) ([]domain.Item, error) {
	return s.items.ListItems(ctx)
}

func (s *ItemService) Update(ctx context.Context, item domain.Item) error {
	if item.ID <= 0 {
		return domain.ErrItemNotFound
	}
	if err := validateItem(item); err != nil {
		return err
	}
	if err := s.items.UpdateItem(ctx, item); err != nil {
		return err
	}
	s.dropCached(ctx, item.ID)
	return nil
}

func (s *ItemService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.ErrItemNotFound
	}
	if err := s.items.DeleteItem(ctx, id); err != nil {
		return err
	}
	s.dropCached(ctx, id)
	return nil
}

// Stock reads the current stock level through the cache. A cache failure
// degrades to a direct database read, never to a request failure.
func (s *ItemService) Stock(ctx context.Context, id int64) (int, error) {
	if id <= 0 {
		return 0, domain.ErrItemNotFound
	}

	if s.cache != nil {
		stock, ok, err := s.cache.GetStock(ctx, id)
		if err != nil {
			s.logger.Warn("stock cache read failed", zap.Int64("item_id", id), zap.Error(err))
		} else if ok {
			return stock, nil
		}
	}

	stock, err := s.items.GetStock(ctx, id)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.SetStock(ctx, id, stock, s.cacheTTL); err != nil {
			s.logger.Warn("stock cache write failed", zap.Int64("item_id", id), zap.Error(err))
		}
	}
	return stock, nil
}

func (s *ItemService) dropCached(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateStock(ctx, id); err != nil {
		s.logger.Warn("stock cache invalidation failed", zap.Int64("item_id", id), zap.Error(err))
	}
}

func validateItem(item domain.Item) error {
	if strings.TrimSpace(item.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if item.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", domain.ErrValidation)
	}
	if item.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
	}
	return nil
}
