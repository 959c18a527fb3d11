package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/rl1809/stockroom/internal/adapter/storage"
	"github.com/rl1809/stockroom/internal/core/domain"
	"github.com/rl1809/stockroom/internal/core/service"
)

const (
	mysqlDSN      = "root:root@tcp(localhost:3306)/stockroom?parseTime=true"
	initialStock  = 20
	totalRequests = 50
)

func main() {
	ctx := context.Background()

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}

	// Seed a fresh item for this run
	res, err := db.ExecContext(ctx, `
		INSERT INTO items (name, stock, price, created_at, updated_at)
		VALUES ('stress-test-item', ?, 9.99, NOW(), NOW())`, initialStock)
	if err != nil {
		log.Fatalf("failed to seed item: %v", err)
	}
	itemID, _ := res.LastInsertId()

	adapter := storage.NewMySQLAdapter(db)
	purchaseService := service.NewPurchaseService(adapter, nil, nil)

	var successCount atomic.Int32
	var stockFailCount atomic.Int32
	var otherFailCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			_, err := purchaseService.Submit(ctx, domain.PurchaseRequest{
				CustomerName:    fmt.Sprintf("customer-%d", n),
				ShippingAddress: "1 Stress Test Lane",
				Lines:           []domain.LineRequest{{ItemID: itemID, Quantity: 1}},
			})
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				stockFailCount.Add(1)
			default:
				otherFailCount.Add(1)
				log.Printf("request %d: %v", n, err)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	stockFail := stockFailCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Out of Stock:     %d\n", stockFail)
	fmt.Printf("Other Failures:   %d\n", otherFailCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if success == initialStock && stockFail == totalRequests-initialStock {
		fmt.Printf("PASS: Exactly %d purchases succeeded, %d rejected\n", initialStock, totalRequests-initialStock)
	} else {
		fmt.Printf("FAIL: Expected %d success/%d rejected, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, stockFail)
	}

	// Verify final stock in MySQL
	var finalStock int
	db.QueryRowContext(ctx, `SELECT stock FROM items WHERE id = ?`, itemID).Scan(&finalStock)
	fmt.Printf("Final Stock: %d\n", finalStock)

	if finalStock == 0 {
		fmt.Println("PASS: Stock depleted to 0")
	} else {
		fmt.Printf("FAIL: Expected stock 0, got %d\n", finalStock)
	}
}
