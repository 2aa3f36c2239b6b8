package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kasuwahq/kasuwa-backend/pkg/db/dbtest"
	"github.com/kasuwahq/kasuwa-backend/pkg/db/models"
	"github.com/kasuwahq/kasuwa-backend/pkg/enums"
	"github.com/kasuwahq/kasuwa-backend/pkg/pagination"
)

func TestRepositoryCreateAndFindPaid(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	userID := uuid.New()
	orderID := uuid.New()

	txn := &models.Transaction{
		UserID:        userID,
		OrderID:       orderID,
		Amount:        decimal.RequireFromString("55.00"),
		Status:        enums.TransactionStatusPaid,
		PaymentMethod: enums.PaymentMethodCard,
	}
	require.NoError(t, repo.Create(ctx, txn))
	require.NotEqual(t, uuid.Nil, txn.ID)

	found, err := repo.FindPaidByOrder(ctx, orderID)
	require.NoError(t, err)
	require.Equal(t, txn.ID, found.ID)
	require.True(t, found.Amount.Equal(decimal.RequireFromString("55.00")))

	_, err = repo.FindPaidByOrder(ctx, uuid.New())
	require.Error(t, err)
}

func TestRepositoryListByUserPaginates(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	userID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		txn := &models.Transaction{
			ID:            uuid.New(),
			UserID:        userID,
			OrderID:       uuid.New(),
			Amount:        decimal.NewFromInt(int64(10 + i)),
			Status:        enums.TransactionStatusPaid,
			PaymentMethod: enums.PaymentMethodCard,
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, conn.Create(txn).Error)
	}

	first, next, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 3})
	require.NoError(t, err)
	require.Len(t, first, 3)
	require.NotEmpty(t, next)

	rest, last, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 3, Cursor: next})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	require.Empty(t, last)

	seen := map[uuid.UUID]bool{}
	for _, txn := range append(first, rest...) {
		require.False(t, seen[txn.ID], "duplicate row across pages")
		seen[txn.ID] = true
	}
}

func TestServiceRecordValidation(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), nil)
	ctx := context.Background()

	cases := []struct {
		name  string
		input RecordInput
	}{
		{"missing ids", RecordInput{Amount: decimal.NewFromInt(10), Status: enums.TransactionStatusPaid, PaymentMethod: enums.PaymentMethodCard}},
		{"zero amount", RecordInput{UserID: uuid.New(), OrderID: uuid.New(), Status: enums.TransactionStatusPaid, PaymentMethod: enums.PaymentMethodCard}},
		{"bad status", RecordInput{UserID: uuid.New(), OrderID: uuid.New(), Amount: decimal.NewFromInt(10), Status: "SETTLED", PaymentMethod: enums.PaymentMethodCard}},
		{"bad method", RecordInput{UserID: uuid.New(), OrderID: uuid.New(), Amount: decimal.NewFromInt(10), Status: enums.TransactionStatusPaid, PaymentMethod: "CASH"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Record(ctx, tc.input)
			require.Error(t, err)
		})
	}

	txn, err := svc.Record(ctx, RecordInput{
		UserID:        uuid.New(),
		OrderID:       uuid.New(),
		Amount:        decimal.NewFromInt(10),
		Status:        enums.TransactionStatusPaid,
		PaymentMethod: enums.PaymentMethodCard,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, txn.ID)
}
