package orders

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/shop-backend/pkg/db/models"
	"github.com/angelmondragon/shop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shop-backend/pkg/errors"
	"github.com/angelmondragon/shop-backend/pkg/pagination"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, userID uuid.UUID, createdAt time.Time) *models.Order {
	t.Helper()
	repo := NewRepository(db)
	order, err := repo.CreateOrder(context.Background(), &models.Order{
		UserID:     userID,
		TotalPrice: decimal.RequireFromString("18.00"),
		Currency:   "EUR",
		CreatedAt:  createdAt,
	})
	require.NoError(t, err)
	require.NoError(t, repo.CreateOrderItems(context.Background(), []models.OrderItem{
		{OrderID: order.ID, ProductID: uuid.New(), Price: decimal.RequireFromString("9.00"), Quantity: 2},
	}))
	return order
}

func TestGetScopesToOwner(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	owner := uuid.New()
	order := seedOrder(t, db, owner, time.Now().UTC())

	dto, err := svc.Get(context.Background(), owner, order.ID)
	require.NoError(t, err)
	require.Equal(t, "new", dto.Status)
	require.False(t, dto.Paid)
	require.Len(t, dto.Items, 1)
	require.True(t, dto.Items[0].Subtotal.Equal(decimal.RequireFromString("18.00")))

	body, err := json.Marshal(dto)
	require.NoError(t, err)
	require.Contains(t, string(body), `"total_price":"18.00"`)
	require.Contains(t, string(body), `"price":"9.00"`)

	_, err = svc.Get(context.Background(), uuid.New(), order.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeOrderNotFound, typed.Code())
}

func TestConfirmPaymentMarksPaid(t *testing.T) {
	db := newTestDB(t)
	svc, _ := NewService(NewRepository(db))
	owner := uuid.New()
	order := seedOrder(t, db, owner, time.Now().UTC())

	_, err := svc.ConfirmPayment(context.Background(), uuid.New(), order.ID)
	require.Error(t, err)

	dto, err := svc.ConfirmPayment(context.Background(), owner, order.ID)
	require.NoError(t, err)
	require.True(t, dto.Paid)
	require.Equal(t, enums.OrderStatusPaid.String(), dto.Status)

	var stored models.Order
	require.NoError(t, db.First(&stored, "id = ?", order.ID).Error)
	require.True(t, stored.Paid)
	require.Equal(t, enums.OrderStatusPaid, stored.Status)
}

func TestConfirmPaymentOnlyFromNew(t *testing.T) {
	for _, status := range []enums.OrderStatus{enums.OrderStatusPaid, enums.OrderStatusCancelled, enums.OrderStatusDelivered} {
		t.Run(status.String(), func(t *testing.T) {
			db := newTestDB(t)
			svc, _ := NewService(NewRepository(db))
			owner := uuid.New()
			order := seedOrder(t, db, owner, time.Now().UTC())
			require.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", status).Error)

			_, err := svc.ConfirmPayment(context.Background(), owner, order.ID)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

			var stored models.Order
			require.NoError(t, db.First(&stored, "id = ?", order.ID).Error)
			require.Equal(t, status, stored.Status)
			require.False(t, stored.Paid)
		})
	}
}

func TestConfirmPaymentTwiceConflicts(t *testing.T) {
	db := newTestDB(t)
	svc, _ := NewService(NewRepository(db))
	owner := uuid.New()
	order := seedOrder(t, db, owner, time.Now().UTC())

	_, err := svc.ConfirmPayment(context.Background(), owner, order.ID)
	require.NoError(t, err)
	_, err = svc.ConfirmPayment(context.Background(), owner, order.ID)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
}

func TestTransitionOrderChecksCurrentStatus(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	order := seedOrder(t, db, uuid.New(), time.Now().UTC())

	moved, err := repo.TransitionOrder(context.Background(), order.ID, enums.OrderStatusPaid, map[string]any{"status": enums.OrderStatusDelivered})
	require.NoError(t, err)
	require.False(t, moved)

	moved, err = repo.TransitionOrder(context.Background(), order.ID, enums.OrderStatusNew, map[string]any{"status": enums.OrderStatusCancelled})
	require.NoError(t, err)
	require.True(t, moved)
}

func TestListNewestFirstWithCursor(t *testing.T) {
	db := newTestDB(t)
	svc, _ := NewService(NewRepository(db))
	owner := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	older := seedOrder(t, db, owner, base)
	newer := seedOrder(t, db, owner, base.Add(time.Minute))
	seedOrder(t, db, uuid.New(), base.Add(2*time.Minute))

	page, err := svc.List(context.Background(), owner, pagination.Params{Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, newer.ID, page.Items[0].ID)
	require.NotNil(t, page.NextCursor)

	page, err = svc.List(context.Background(), owner, pagination.Params{Limit: 1, Cursor: *page.NextCursor})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, older.ID, page.Items[0].ID)
	require.Nil(t, page.NextCursor)
}
