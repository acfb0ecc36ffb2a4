package product

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shop-backend/pkg/errors"
	"github.com/angelmondragon/shop-backend/pkg/money"
	"github.com/angelmondragon/shop-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()
	repo := NewRepository(newTestDB(t))
	svc, err := NewService(repo, money.NewConverter(money.DefaultRates()))
	require.NoError(t, err)
	return svc, repo
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestGetConvertsPrice(t *testing.T) {
	svc, repo := newTestService(t)
	category := seedCategory(t, repo.db)
	p := seedProduct(t, repo.db, category.ID, "Lamp", 4, time.Now().UTC())

	dto, err := svc.Get(context.Background(), p.ID, "eur")
	require.NoError(t, err)
	require.Equal(t, "EUR", dto.Currency)
	require.True(t, dto.PriceConverted.Equal(decimal.RequireFromString("9.00")))

	_, err = svc.Get(context.Background(), uuid.New(), "USD")
	requireCode(t, err, pkgerrors.CodeProductNotFound)
}

func TestCreateValidatesInput(t *testing.T) {
	svc, repo := newTestService(t)
	category := seedCategory(t, repo.db)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateProductInput{CategoryID: category.ID, Name: "X", PriceUSD: decimal.NewFromInt(-1)})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Create(ctx, CreateProductInput{CategoryID: category.ID, Name: "X", PriceUSD: decimal.NewFromInt(1), Stock: -1})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Create(ctx, CreateProductInput{CategoryID: uuid.New(), Name: "X", PriceUSD: decimal.NewFromInt(1)})
	requireCode(t, err, pkgerrors.CodeValidation)

	dto, err := svc.Create(ctx, CreateProductInput{CategoryID: category.ID, Name: " Chair ", PriceUSD: decimal.RequireFromString("49.999"), Stock: 2})
	require.NoError(t, err)
	require.Equal(t, "Chair", dto.Name)
	require.True(t, dto.PriceUSD.Equal(decimal.RequireFromString("50.00")))
}

func TestUpdatePartial(t *testing.T) {
	svc, repo := newTestService(t)
	category := seedCategory(t, repo.db)
	p := seedProduct(t, repo.db, category.ID, "Desk", 1, time.Now().UTC())

	stock := 9
	dto, err := svc.Update(context.Background(), p.ID, UpdateProductInput{Stock: &stock})
	require.NoError(t, err)
	require.Equal(t, 9, dto.Stock)
	require.Equal(t, "Desk", dto.Name)

	_, err = svc.Update(context.Background(), uuid.New(), UpdateProductInput{Stock: &stock})
	requireCode(t, err, pkgerrors.CodeProductNotFound)
}

func TestListReturnsNextCursor(t *testing.T) {
	svc, repo := newTestService(t)
	category := seedCategory(t, repo.db)
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		seedProduct(t, repo.db, category.ID, "Item", 1, base.Add(time.Duration(i)*time.Minute))
	}

	page, err := svc.List(context.Background(), pagination.Params{Limit: 2}, "RUB")
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotNil(t, page.NextCursor)
	require.True(t, page.Items[0].PriceConverted.Equal(decimal.RequireFromString("950.00")))

	page, err = svc.List(context.Background(), pagination.Params{Limit: 2, Cursor: *page.NextCursor}, "RUB")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Nil(t, page.NextCursor)
}

func TestCreateCategory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, CreateCategoryInput{Name: "Toys", Slug: "Bad Slug"})
	requireCode(t, err, pkgerrors.CodeValidation)

	dto, err := svc.CreateCategory(ctx, CreateCategoryInput{Name: "Toys", Slug: "toys"})
	require.NoError(t, err)
	require.Equal(t, "toys", dto.Slug)

	_, err = svc.CreateCategory(ctx, CreateCategoryInput{Name: "Toys again", Slug: "toys"})
	requireCode(t, err, pkgerrors.CodeConflict)
}

func TestDeleteKeepsOrderedProducts(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	category := seedCategory(t, repo.db)
	ordered := seedProduct(t, repo.db, category.ID, "Sold", 1, time.Now().UTC())
	spare := seedProduct(t, repo.db, category.ID, "Spare", 1, time.Now().UTC())

	line := models.OrderItem{OrderID: uuid.New(), ProductID: ordered.ID, Price: decimal.RequireFromString("10.00"), Quantity: 1}
	require.NoError(t, repo.db.Omit("Product").Create(&line).Error)
	require.NoError(t, repo.db.Create(&models.CartItem{CartID: uuid.New(), ProductID: spare.ID, Quantity: 1}).Error)

	requireCode(t, svc.Delete(ctx, ordered.ID), pkgerrors.CodeConflict)
	var lines int64
	require.NoError(t, repo.db.Model(&models.OrderItem{}).Where("product_id = ?", ordered.ID).Count(&lines).Error)
	require.EqualValues(t, 1, lines)

	require.NoError(t, svc.Delete(ctx, spare.ID))
	_, err := svc.Get(ctx, spare.ID, "USD")
	requireCode(t, err, pkgerrors.CodeProductNotFound)
	var carts int64
	require.NoError(t, repo.db.Model(&models.CartItem{}).Where("product_id = ?", spare.ID).Count(&carts).Error)
	require.Zero(t, carts)

	requireCode(t, svc.Delete(ctx, uuid.New()), pkgerrors.CodeProductNotFound)
}

func TestDeleteCategoryOnlyWhenEmpty(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	full := seedCategory(t, repo.db)
	seedProduct(t, repo.db, full.ID, "Lamp", 1, time.Now().UTC())
	empty := seedCategory(t, repo.db)

	requireCode(t, svc.DeleteCategory(ctx, full.ID), pkgerrors.CodeConflict)
	require.NoError(t, svc.DeleteCategory(ctx, empty.ID))
	requireCode(t, svc.DeleteCategory(ctx, empty.ID), pkgerrors.CodeNotFound)
}
