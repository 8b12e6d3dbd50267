package domain

import "testing"

func TestOrder_Transitions(t *testing.T) {
	t.Parallel()

	t.Run("pending order completes once", func(t *testing.T) {
		order := Order{ID: "order-1", Status: OrderStatusPending}
		if err := order.Complete(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if order.Status != OrderStatusCompleted {
			t.Fatalf("expected completed, got %s", order.Status)
		}
		if err := order.Complete(); err != ErrOrderFinalized {
			t.Fatalf("expected ErrOrderFinalized, got %v", err)
		}
	})

	t.Run("pending order cancels once", func(t *testing.T) {
		order := Order{ID: "order-2", Status: OrderStatusPending}
		if err := order.Cancel(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if order.Status != OrderStatusCancelled {
			t.Fatalf("expected cancelled, got %s", order.Status)
		}
	})

	t.Run("terminal state never reverses", func(t *testing.T) {
		order := Order{ID: "order-3", Status: OrderStatusCompleted}
		if err := order.Cancel(); err != ErrOrderFinalized {
			t.Fatalf("expected ErrOrderFinalized, got %v", err)
		}
		if order.Status != OrderStatusCompleted {
			t.Fatalf("expected status unchanged, got %s", order.Status)
		}
	})

	t.Run("total amount is derived", func(t *testing.T) {
		order := Order{Quantity: 3, Price: 1500}
		if got := order.TotalAmount(); got != 4500 {
			t.Fatalf("expected 4500, got %d", got)
		}
	})
}

func TestBatch_Deduct(t *testing.T) {
	t.Parallel()

	batch := Batch{ID: "batch-1", Quantity: 5}

	if taken := batch.Deduct(3); taken != 3 {
		t.Fatalf("expected 3 taken, got %d", taken)
	}
	if batch.Quantity != 2 {
		t.Fatalf("expected 2 remaining, got %d", batch.Quantity)
	}

	// Capped at the remaining quantity, never negative.
	if taken := batch.Deduct(10); taken != 2 {
		t.Fatalf("expected 2 taken, got %d", taken)
	}
	if batch.Quantity != 0 {
		t.Fatalf("expected 0 remaining, got %d", batch.Quantity)
	}

	batch.Restore(4)
	if batch.Quantity != 4 {
		t.Fatalf("expected 4 after restore, got %d", batch.Quantity)
	}
}
