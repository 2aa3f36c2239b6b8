package referral

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kasuwahq/kasuwa-backend/pkg/config"
	"github.com/kasuwahq/kasuwa-backend/pkg/db/dbtest"
	"github.com/kasuwahq/kasuwa-backend/pkg/db/models"
)

func testConfig() config.CheckoutConfig {
	return config.CheckoutConfig{
		DeliveryCost:      decimal.NewFromInt(10),
		ReferralThreshold: decimal.NewFromInt(50),
		ReferralBonus:     decimal.NewFromInt(5),
	}
}

func TestCreditForOrderAboveThreshold(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), testConfig(), nil)
	ctx := context.Background()

	referrerUser := uuid.New()
	buyerUser := uuid.New()
	referrerProfile := models.Profile{UserID: referrerUser, ReferralCode: "REF001"}
	require.NoError(t, conn.Create(&referrerProfile).Error)
	buyerProfile := models.Profile{UserID: buyerUser, ReferralCode: "REF002", ReferrerID: &referrerUser}
	require.NoError(t, conn.Create(&buyerProfile).Error)

	require.NoError(t, svc.CreditForOrder(ctx, buyerUser, decimal.RequireFromString("55.00")))

	var updated models.Profile
	require.NoError(t, conn.First(&updated, "id = ?", referrerProfile.ID).Error)
	require.True(t, updated.ReferralBalance.Equal(decimal.NewFromInt(5)),
		"balance = %s", updated.ReferralBalance)
}

func TestCreditForOrderAtThresholdBoundary(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), testConfig(), nil)
	ctx := context.Background()

	referrerUser := uuid.New()
	buyerUser := uuid.New()
	referrerProfile := models.Profile{UserID: referrerUser, ReferralCode: "REF001"}
	require.NoError(t, conn.Create(&referrerProfile).Error)
	buyerProfile := models.Profile{UserID: buyerUser, ReferralCode: "REF002", ReferrerID: &referrerUser}
	require.NoError(t, conn.Create(&buyerProfile).Error)

	// Exactly at the threshold still qualifies.
	require.NoError(t, svc.CreditForOrder(ctx, buyerUser, decimal.NewFromInt(50)))

	var updated models.Profile
	require.NoError(t, conn.First(&updated, "id = ?", referrerProfile.ID).Error)
	require.True(t, updated.ReferralBalance.Equal(decimal.NewFromInt(5)))
}

func TestCreditForOrderBelowThresholdIsNoop(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), testConfig(), nil)
	ctx := context.Background()

	referrerUser := uuid.New()
	buyerUser := uuid.New()
	referrerProfile := models.Profile{UserID: referrerUser, ReferralCode: "REF001"}
	require.NoError(t, conn.Create(&referrerProfile).Error)
	buyerProfile := models.Profile{UserID: buyerUser, ReferralCode: "REF002", ReferrerID: &referrerUser}
	require.NoError(t, conn.Create(&buyerProfile).Error)

	require.NoError(t, svc.CreditForOrder(ctx, buyerUser, decimal.NewFromInt(40)))

	var updated models.Profile
	require.NoError(t, conn.First(&updated, "id = ?", referrerProfile.ID).Error)
	require.True(t, updated.ReferralBalance.IsZero())
}

func TestCreditForOrderMissingProfileSwallowed(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), testConfig(), nil)

	require.NoError(t, svc.CreditForOrder(context.Background(), uuid.New(), decimal.NewFromInt(100)))
}

func TestCreditForOrderWithoutReferrerIsNoop(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), testConfig(), nil)
	ctx := context.Background()

	buyerUser := uuid.New()
	buyerProfile := models.Profile{UserID: buyerUser, ReferralCode: "REF002"}
	require.NoError(t, conn.Create(&buyerProfile).Error)

	require.NoError(t, svc.CreditForOrder(ctx, buyerUser, decimal.NewFromInt(100)))

	var updated models.Profile
	require.NoError(t, conn.First(&updated, "id = ?", buyerProfile.ID).Error)
	require.True(t, updated.ReferralBalance.IsZero())
}

func TestCreditForSignup(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), testConfig(), nil)
	ctx := context.Background()

	referrerUser := uuid.New()
	referrerProfile := models.Profile{UserID: referrerUser, ReferralCode: "REF001"}
	require.NoError(t, conn.Create(&referrerProfile).Error)

	require.NoError(t, svc.CreditForSignup(ctx, referrerUser))
	require.NoError(t, svc.CreditForSignup(ctx, uuid.New()), "missing referrer is swallowed")

	var updated models.Profile
	require.NoError(t, conn.First(&updated, "id = ?", referrerProfile.ID).Error)
	require.True(t, updated.ReferralBalance.Equal(decimal.NewFromInt(5)))
}
