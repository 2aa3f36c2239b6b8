package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kasuwahq/kasuwa-backend/pkg/db"
	"github.com/kasuwahq/kasuwa-backend/pkg/db/dbtest"
	"github.com/kasuwahq/kasuwa-backend/pkg/db/models"
	"github.com/kasuwahq/kasuwa-backend/pkg/enums"
	"github.com/kasuwahq/kasuwa-backend/pkg/pagination"
)

func seedOrder(t *testing.T, repo Repository, userID uuid.UUID) *models.Order {
	t.Helper()
	order := &models.Order{
		UserID:            userID,
		DeliveryAddressID: uuid.New(),
		DeliveryCost:      decimal.NewFromInt(10),
		TotalCost:         decimal.RequireFromString("55.00"),
		Status:            enums.OrderStatusPending,
		Items: []models.OrderItem{
			{ProductID: uuid.New(), Price: decimal.RequireFromString("20.00"), Quantity: 1},
			{ProductID: uuid.New(), Price: decimal.RequireFromString("12.50"), Quantity: 2},
		},
	}
	require.NoError(t, repo.Create(context.Background(), order))
	return order
}

func TestRepositoryCreatePersistsItems(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	order := seedOrder(t, repo, uuid.New())
	require.NotEqual(t, uuid.Nil, order.ID)

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 2)
	require.Equal(t, order.ID, found.Items[0].OrderID)
	require.True(t, found.TotalCost.Equal(decimal.RequireFromString("55.00")))
	require.Equal(t, enums.OrderStatusPending, found.Status)
}

func TestRepositoryMarkCompleteIsCompareAndSwap(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	order := seedOrder(t, repo, uuid.New())

	won, err := repo.MarkComplete(ctx, order.ID)
	require.NoError(t, err)
	require.True(t, won, "first flip wins")

	again, err := repo.MarkComplete(ctx, order.ID)
	require.NoError(t, err)
	require.False(t, again, "second flip must lose")

	missing, err := repo.MarkComplete(ctx, uuid.New())
	require.NoError(t, err)
	require.False(t, missing)

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusComplete, found.Status)
}

func TestRepositoryDeleteWithItems(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	order := seedOrder(t, repo, uuid.New())

	require.NoError(t, repo.DeleteWithItems(ctx, order.ID))

	_, err := repo.FindByID(ctx, order.ID)
	require.True(t, db.IsNotFound(err))

	var items int64
	require.NoError(t, conn.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&items).Error)
	require.Zero(t, items)
}

func TestRepositoryListByUserPaginates(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	userID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		order := &models.Order{
			ID:                uuid.New(),
			UserID:            userID,
			DeliveryAddressID: uuid.New(),
			DeliveryCost:      decimal.NewFromInt(10),
			TotalCost:         decimal.NewFromInt(int64(20 + i)),
			Status:            enums.OrderStatusPending,
			CreatedAt:         base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, conn.Create(order).Error)
	}
	// Another user's order must not leak into the listing.
	require.NoError(t, conn.Create(&models.Order{
		UserID:            uuid.New(),
		DeliveryAddressID: uuid.New(),
		DeliveryCost:      decimal.NewFromInt(10),
		TotalCost:         decimal.NewFromInt(99),
		Status:            enums.OrderStatusPending,
	}).Error)

	first, next, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 3})
	require.NoError(t, err)
	require.Len(t, first, 3)
	require.NotEmpty(t, next)
	require.True(t, first[0].CreatedAt.After(first[2].CreatedAt), "newest first")

	rest, last, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 3, Cursor: next})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.Empty(t, last)
}
