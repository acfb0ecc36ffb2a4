package reservation

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	product "github.com/angelmondragon/shop-backend/internal/products"
	pkgerrors "github.com/angelmondragon/shop-backend/pkg/errors"
)

// StockRequest asks for Qty units of ProductID.
type StockRequest struct {
	ProductID uuid.UUID
	Qty       int
}

// ReserveStock decrements stock for every request inside tx. Each decrement is a single
// conditional UPDATE, so stock never drops below zero even under concurrent checkouts.
// The first short product aborts with CodeInsufficientStock; the caller's transaction
// rollback undoes earlier decrements.
func ReserveStock(ctx context.Context, tx *gorm.DB, requests []StockRequest) error {
	totals := make(map[uuid.UUID]int, len(requests))
	for _, req := range requests {
		if req.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "reservation quantity must be positive")
		}
		totals[req.ProductID] += req.Qty
	}

	// Fixed order keeps concurrent checkouts from deadlocking on row locks.
	ids := make([]uuid.UUID, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	repo := product.NewRepository(tx)
	for _, id := range ids {
		ok, err := repo.DecrementStock(ctx, id, totals[id])
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock").WithDetails(map[string]any{
				"product_id": id,
				"requested":  totals[id],
			})
		}
	}
	return nil
}
