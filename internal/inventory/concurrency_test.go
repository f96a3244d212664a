package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	pkgerrors "github.com/mesaeats/mesa-backend/pkg/errors"
)

// N+1 callers race to reserve one unit each from N available. Exactly one
// must lose with InsufficientStock and the invariant must hold afterwards.
func TestConcurrentReserveOversubscribed(t *testing.T) {
	t.Parallel()

	const available = 5

	env := newTestEnv(t)
	ctx := context.Background()
	restaurantID := uuid.New()
	product := seedProduct(t, env.db, "7500000000110")
	record := seedRecord(t, env.db, restaurantID, product, available, 0, 2)

	var mu sync.Mutex
	var insufficient, succeeded int

	var group errgroup.Group
	for i := 0; i < available+1; i++ {
		group.Go(func() error {
			_, err := env.svc.Reserve(ctx, ReservationInput{
				RestaurantID: restaurantID,
				Barcode:      product.Barcode,
				Quantity:     1,
				OrderID:      uuid.New(),
				UserID:       uuid.New(),
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return nil
			}
			typed := pkgerrors.As(err)
			if typed != nil && typed.Code() == pkgerrors.CodeInsufficientStock {
				insufficient++
				return nil
			}
			return err
		})
	}
	if err := group.Wait(); err != nil {
		t.Fatalf("unexpected reserve error: %v", err)
	}

	if succeeded != available {
		t.Fatalf("expected %d successful reservations, got %d", available, succeeded)
	}
	if insufficient != 1 {
		t.Fatalf("expected exactly one insufficient stock failure, got %d", insufficient)
	}

	stored := reloadRecord(t, env.db, record.ID)
	if stored.ReservedStock != available || stored.AvailableStock != 0 {
		t.Fatalf("unexpected final state: %+v", stored)
	}
	if n := countTransactions(t, env.db, record.ID); n != available {
		t.Fatalf("expected %d ledger rows, got %d", available, n)
	}
}

// Concurrent restocks against the same missing record must converge on one
// row through the unique index and the conflict retry path.
func TestConcurrentFirstRestock(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	restaurantID := uuid.New()
	product := seedProduct(t, env.db, "7500000000127")

	var group errgroup.Group
	for i := 0; i < 4; i++ {
		group.Go(func() error {
			_, err := env.svc.Restock(ctx, RestockInput{
				RestaurantID: restaurantID,
				Barcode:      product.Barcode,
				Quantity:     5,
				UserID:       uuid.New(),
			})
			return err
		})
	}
	if err := group.Wait(); err != nil {
		t.Fatalf("restock: %v", err)
	}

	record, err := env.svc.GetRecord(ctx, restaurantID, product.Barcode)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record.CurrentStock != 20 || record.AvailableStock != 20 {
		t.Fatalf("expected all deliveries applied once, got %+v", record)
	}
	if n := countTransactions(t, env.db, record.ID); n != 4 {
		t.Fatalf("expected 4 ledger rows, got %d", n)
	}
}
