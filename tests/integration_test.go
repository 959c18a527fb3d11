package tests

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/rl1809/stockroom/internal/adapter/storage"
	"github.com/rl1809/stockroom/internal/core/domain"
	"github.com/rl1809/stockroom/internal/core/service"
)

type testEnv struct {
	redis   *redis.Client
	mysql   *sql.DB
	cache   *storage.RedisAdapter
	db      *storage.MySQLAdapter
	cleanup func()
}

func setupTestEnv(t *testing.T) *testEnv {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "root:root@tcp(localhost:3306)/stockroom?parseTime=true"
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	ensureSchema(t, db)

	return &testEnv{
		redis: rdb,
		mysql: db,
		cache: storage.NewRedisAdapter(rdb),
		db:    storage.NewMySQLAdapter(db),
		cleanup: func() {
			rdb.Close()
			db.Close()
		},
	}
}

func ensureSchema(t *testing.T, db *sql.DB) {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS items (
			id BIGINT NOT NULL AUTO_INCREMENT,
			name VARCHAR(255) NOT NULL,
			stock INT NOT NULL DEFAULT 0,
			price DECIMAL(12,2) NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (id)
		)`,
		`CREATE TABLE IF NOT EXISTS purchases (
			id BIGINT NOT NULL AUTO_INCREMENT,
			customer_name VARCHAR(255) NOT NULL,
			shipping_address VARCHAR(512) NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id)
		)`,
		`CREATE TABLE IF NOT EXISTS purchase_lines (
			id BIGINT NOT NULL AUTO_INCREMENT,
			purchase_id BIGINT NOT NULL,
			item_id BIGINT NOT NULL,
			quantity INT NOT NULL,
			PRIMARY KEY (id),
			KEY idx_purchase_lines_purchase (purchase_id),
			KEY idx_purchase_lines_item (item_id),
			CONSTRAINT fk_purchase_lines_purchase FOREIGN KEY (purchase_id) REFERENCES purchases (id) ON DELETE CASCADE
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("schema setup failed: %v", err)
		}
	}
}

func (e *testEnv) seedItem(t *testing.T, stock int) int64 {
	ctx := context.Background()
	adapter := e.db
	id, err := adapter.CreateItem(ctx, domain.Item{
		Name:  "integration-item-" + uuid.New().String(),
		Stock: stock,
		Price: decimal.RequireFromString("5.00"),
	})
	if err != nil {
		t.Fatalf("seed item failed: %v", err)
	}

	t.Cleanup(func() {
		e.mysql.ExecContext(ctx, `
			DELETE FROM purchases WHERE id IN (
				SELECT DISTINCT purchase_id FROM purchase_lines WHERE item_id = ?
			)`, id)
		e.mysql.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
		e.redis.Del(ctx, fmt.Sprintf("stock:%d", id))
	})
	return id
}

func TestIntegration_ConcurrentPurchasesDepleteStockExactly(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	initialStock := 10
	totalRequests := 20
	itemID := env.seedItem(t, initialStock)

	purchaseService := service.NewPurchaseService(env.db, env.cache, nil)

	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := purchaseService.Submit(ctx, domain.PurchaseRequest{
				CustomerName:    fmt.Sprintf("customer-%d", n),
				ShippingAddress: "1 Integration Way",
				Lines:           []domain.LineRequest{{ItemID: itemID, Quantity: 1}},
			})
			if err == nil {
				successCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	if got := successCount.Load(); got != int32(initialStock) {
		t.Errorf("expected %d successful purchases, got %d", initialStock, got)
	}

	var finalStock int
	env.mysql.QueryRowContext(ctx, `SELECT stock FROM items WHERE id = ?`, itemID).Scan(&finalStock)
	if finalStock != 0 {
		t.Errorf("expected stock 0, got %d", finalStock)
	}

	var purchaseCount int
	env.mysql.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT purchase_id) FROM purchase_lines WHERE item_id = ?`, itemID,
	).Scan(&purchaseCount)
	if purchaseCount != initialStock {
		t.Errorf("expected %d purchases, got %d", initialStock, purchaseCount)
	}
}

func TestIntegration_FailedPurchaseLeavesNoTrace(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	itemID := env.seedItem(t, 5)

	purchaseService := service.NewPurchaseService(env.db, env.cache, nil)

	// Individually affordable lines that jointly exceed stock.
	_, err := purchaseService.Submit(ctx, domain.PurchaseRequest{
		CustomerName:    "customer",
		ShippingAddress: "1 Integration Way",
		Lines: []domain.LineRequest{
			{ItemID: itemID, Quantity: 3},
			{ItemID: itemID, Quantity: 3},
		},
	})
	if err == nil {
		t.Fatal("expected purchase to fail")
	}

	var stock int
	env.mysql.QueryRowContext(ctx, `SELECT stock FROM items WHERE id = ?`, itemID).Scan(&stock)
	if stock != 5 {
		t.Errorf("expected stock unchanged at 5, got %d", stock)
	}

	var lineCount int
	env.mysql.QueryRowContext(ctx, `SELECT COUNT(*) FROM purchase_lines WHERE item_id = ?`, itemID).Scan(&lineCount)
	if lineCount != 0 {
		t.Errorf("expected no purchase lines, got %d", lineCount)
	}
}

func TestIntegration_StockQueryUsesCacheAndInvalidation(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	itemID := env.seedItem(t, 10)

	purchaseService := service.NewPurchaseService(env.db, env.cache, nil)
	itemService := service.NewItemService(env.db, env.cache, time.Minute, nil)

	// Prime the cache through the read path.
	stock, err := itemService.Stock(ctx, itemID)
	if err != nil {
		t.Fatalf("stock query failed: %v", err)
	}
	if stock != 10 {
		t.Fatalf("expected stock 10, got %d", stock)
	}

	cached, ok, err := env.cache.GetStock(ctx, itemID)
	if err != nil || !ok || cached != 10 {
		t.Fatalf("expected cached stock 10, got %d (hit=%v, err=%v)", cached, ok, err)
	}

	// A committed purchase must drop the cached value so the next read
	// reflects the decrement.
	_, err = purchaseService.Submit(ctx, domain.PurchaseRequest{
		CustomerName:    "customer",
		ShippingAddress: "1 Integration Way",
		Lines:           []domain.LineRequest{{ItemID: itemID, Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("purchase failed: %v", err)
	}

	if _, ok, _ := env.cache.GetStock(ctx, itemID); ok {
		t.Error("expected cache entry to be invalidated after purchase")
	}

	stock, err = itemService.Stock(ctx, itemID)
	if err != nil {
		t.Fatalf("stock query failed: %v", err)
	}
	if stock != 6 {
		t.Errorf("expected stock 6 after purchase, got %d", stock)
	}
}

func TestIntegration_ResubmissionCreatesDistinctPurchases(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	itemID := env.seedItem(t, 10)

	purchaseService := service.NewPurchaseService(env.db, env.cache, nil)

	req := domain.PurchaseRequest{
		CustomerName:    "repeat-customer",
		ShippingAddress: "1 Integration Way",
		Lines:           []domain.LineRequest{{ItemID: itemID, Quantity: 2}},
	}

	first, err := purchaseService.Submit(ctx, req)
	if err != nil {
		t.Fatalf("first submission failed: %v", err)
	}
	second, err := purchaseService.Submit(ctx, req)
	if err != nil {
		t.Fatalf("second submission failed: %v", err)
	}

	if first == second {
		t.Errorf("expected distinct purchase ids, got %d twice", first)
	}

	var stock int
	env.mysql.QueryRowContext(ctx, `SELECT stock FROM items WHERE id = ?`, itemID).Scan(&stock)
	if stock != 6 {
		t.Errorf("expected stock 6 after two purchases, got %d", stock)
	}
}
