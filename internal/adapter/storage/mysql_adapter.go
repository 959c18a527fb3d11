package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/stockroom/internal/core/domain"
)

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// CreatePurchase executes a purchase as one transaction: header insert,
// line inserts and stock decrements either all commit or all roll back.
// The deferred Rollback covers every early return; it is a no-op once
// Commit has succeeded.
func (m *MySQLAdapter) CreatePurchase(ctx context.Context, req domain.PurchaseRequest) (int64, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO purchases (customer_name, shipping_address, created_at)
		VALUES (?, ?, NOW())`,
		req.CustomerName, req.ShippingAddress,
	)
	if err != nil {
		return 0, fmt.Errorf("insert purchase: %w", err)
	}
	purchaseID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("purchase id: %w", err)
	}

	for _, line := range req.Lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO purchase_lines (purchase_id, item_id, quantity)
			VALUES (?, ?, ?)`,
			purchaseID, line.ItemID, line.Quantity,
		)
		if err != nil {
			return 0, fmt.Errorf("insert purchase line: %w", err)
		}

		if err := decrementStock(ctx, tx, line.ItemID, line.Quantity); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit purchase: %w", err)
	}
	return purchaseID, nil
}

// decrementStock is the stock ledger's conditional decrement. The stock
// check lives in the WHERE clause of a single UPDATE, so two concurrent
// purchases can never both pass a stale read and drive stock below zero.
// Zero affected rows means the item does not exist or cannot cover the
// quantity; the two cases are indistinguishable here on purpose.
func decrementStock(ctx context.Context, tx *sql.Tx, itemID int64, quantity int) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE items
		SET stock = stock - ?, updated_at = NOW()
		WHERE id = ? AND stock >= ?`,
		quantity, itemID, quantity,
	)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if rows == 0 {
		return domain.ErrInsufficientStock
	}
	return nil
}

func (m *MySQLAdapter) GetPurchase(ctx context.Context, id int64) (*domain.Purchase, error) {
	var p domain.Purchase
	err := m.db.QueryRowContext(ctx, `
		SELECT id, customer_name, shipping_address, created_at
		FROM purchases WHERE id = ?`, id,
	).Scan(&p.ID, &p.CustomerName, &p.ShippingAddress, &p.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPurchaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query purchase: %w", err)
	}

	p.Lines, err = m.purchaseLines(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (m *MySQLAdapter) ListPurchases(ctx context.Context, limit int) ([]domain.Purchase, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, customer_name, shipping_address, created_at
		FROM purchases ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query purchases: %w", err)
	}
	defer rows.Close()

	var purchases []domain.Purchase
	for rows.Next() {
		var p domain.Purchase
		if err := rows.Scan(&p.ID, &p.CustomerName, &p.ShippingAddress, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchases: %w", err)
	}

	for i := range purchases {
		purchases[i].Lines, err = m.purchaseLines(ctx, purchases[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return purchases, nil
}

func (m *MySQLAdapter) purchaseLines(ctx context.Context, purchaseID int64) ([]domain.PurchaseLine, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, purchase_id, item_id, quantity
		FROM purchase_lines WHERE purchase_id = ? ORDER BY id`, purchaseID,
	)
	if err != nil {
		return nil, fmt.Errorf("query purchase lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.PurchaseLine
	for rows.Next() {
		var l domain.PurchaseLine
		if err := rows.Scan(&l.ID, &l.PurchaseID, &l.ItemID, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scan purchase line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchase lines: %w", err)
	}
	return lines, nil
}

func (m *MySQLAdapter) CreateItem(ctx context.Context, item domain.Item) (int64, error) {
	res, err := m.db.ExecContext(ctx, `
		INSERT INTO items (name, stock, price, created_at, updated_at)
		VALUES (?, ?, ?, NOW(), NOW())`,
		item.Name, item.Stock, item.Price,
	)
	if err != nil {
		return 0, fmt.Errorf("insert item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("item id: %w", err)
	}
	return id, nil
}

func (m *MySQLAdapter) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	var item domain.Item
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, stock, price, created_at, updated_at
		FROM items WHERE id = ?`, id,
	).Scan(&item.ID, &item.Name, &item.Stock, &item.Price, &item.CreatedAt, &item.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}
	return &item, nil
}

func (m *MySQLAdapter) ListItems(ctx context.Context) ([]domain.Item, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, stock, price, created_at, updated_at
		FROM items ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Stock, &item.Price, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

func (m *MySQLAdapter) UpdateItem(ctx context.Context, item domain.Item) error {
	res, err := m.db.ExecContext(ctx, `
		UPDATE items SET name = ?, stock = ?, price = ?, updated_at = NOW()
		WHERE id = ?`,
		item.Name, item.Stock, item.Price, item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if rows == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (m *MySQLAdapter) DeleteItem(ctx context.Context, id int64) error {
	var referenced bool
	err := m.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM purchase_lines WHERE item_id = ?)`, id,
	).Scan(&referenced)
	if err != nil {
		return fmt.Errorf("check item references: %w", err)
	}
	if referenced {
		return domain.ErrItemReferenced
	}

	res, err := m.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if rows == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (m *MySQLAdapter) GetStock(ctx context.Context, id int64) (int, error) {
	var stock int
	err := m.db.QueryRowContext(ctx, `SELECT stock FROM items WHERE id = ?`, id).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrItemNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("query stock: %w", err)
	}
	return stock, nil
}
