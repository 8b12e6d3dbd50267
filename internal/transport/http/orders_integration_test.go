package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/freshmart/ordersaga/internal/app"
	"github.com/freshmart/ordersaga/internal/bus"
	"github.com/freshmart/ordersaga/internal/clock"
	"github.com/freshmart/ordersaga/internal/domain"
	"github.com/freshmart/ordersaga/internal/storage/postgres"
	"github.com/freshmart/ordersaga/internal/testutil"
)

// Exercises the full choreography over Postgres: placement through the
// HTTP handler, allocation, payment and the terminal status read back
// through the status endpoint.
func TestPlaceOrder_HTTPIntegration(t *testing.T) {
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, context.Background(), pool)

	logger := zap.NewNop()
	clk := clock.NewSystem()

	orderRepo := postgres.NewOrderRepository(pool)
	batchRepo := postgres.NewBatchRepository(pool)
	recordRepo := postgres.NewAllocationRecordRepository(pool)

	registry := bus.NewRegistry()
	eventBus := bus.NewInProcess(registry, logger, bus.WithRedelivery(1, 0))

	ledger := app.NewLedger(batchRepo, logger)
	alloc := app.NewAllocationHandler(ledger, recordRepo, eventBus, clk, logger)
	payments := app.NewPaymentService(eventBus, logger)
	orders := app.NewOrderService(orderRepo, eventBus, clk, logger)
	app.RegisterSagaHandlers(registry, alloc, payments, orders)

	ctx := context.Background()
	testutil.TruncateAll(t, ctx, pool)
	testutil.InsertBatch(t, ctx, pool, domain.Batch{
		ProductID: "PRODUCT-1",
		Quantity:  10,
		ExpiresAt: time.Now().UTC().Add(72 * time.Hour),
	})

	placeHandler := HandlePlaceOrder(orders)
	getHandler := HandleGetOrder(orders)

	reqBody := []byte(`{"product_id":"PRODUCT-1","quantity":3,"price":100}`)
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBuffer(reqBody))
	rec := httptest.NewRecorder()
	placeHandler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created orderResponse
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected order id to be set")
	}
	if created.Status != string(domain.OrderStatusPending) {
		t.Fatalf("expected pending at placement, got %s", created.Status)
	}

	eventBus.Wait()

	statusReq := httptest.NewRequest(http.MethodGet, "/orders/"+created.ID, nil)
	statusRec := httptest.NewRecorder()
	getHandler.ServeHTTP(statusRec, statusReq)

	if statusRec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", statusRec.Code)
	}

	var settled orderResponse
	if err := json.NewDecoder(statusRec.Body).Decode(&settled); err != nil {
		t.Fatalf("decode status response: %v", err)
	}
	if settled.Status != string(domain.OrderStatusCompleted) {
		t.Fatalf("expected completed, got %s", settled.Status)
	}
	if got := testutil.TotalStock(t, ctx, pool, "PRODUCT-1"); got != 7 {
		t.Fatalf("expected 7 remaining, got %d", got)
	}
}
