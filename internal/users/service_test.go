package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kasuwahq/kasuwa-backend/pkg/config"
	"github.com/kasuwahq/kasuwa-backend/pkg/db/dbtest"
	"github.com/kasuwahq/kasuwa-backend/pkg/db/models"
	pkgerrors "github.com/kasuwahq/kasuwa-backend/pkg/errors"
	"github.com/kasuwahq/kasuwa-backend/pkg/security"
)

type gormTxRunner struct {
	conn *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := r.conn.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

type fakeCreditor struct {
	credited []uuid.UUID
}

func (f *fakeCreditor) CreditForSignup(_ context.Context, referrerUserID uuid.UUID) error {
	f.credited = append(f.credited, referrerUserID)
	return nil
}

type fakeInvites struct {
	joined []string
}

func (f *fakeInvites) MarkJoined(_ context.Context, email string) error {
	f.joined = append(f.joined, email)
	return nil
}

type codeReader struct {
	conn *gorm.DB
}

func (c codeReader) FindProfileByReferralCode(ctx context.Context, code string) (*models.Profile, error) {
	var profile models.Profile
	if err := c.conn.WithContext(ctx).Where("referral_code = ?", code).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func passwordConfig() config.PasswordConfig {
	// Small parameters keep argon2 fast in tests.
	return config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func newTestService(t *testing.T, conn *gorm.DB) (Service, *fakeCreditor, *fakeInvites) {
	t.Helper()
	creditor := &fakeCreditor{}
	invites := &fakeInvites{}
	svc := NewService(Deps{
		DB:        gormTxRunner{conn},
		Repo:      NewRepository(conn),
		Referrals: creditor,
		Codes:     codeReader{conn},
		Invites:   invites,
		Password:  passwordConfig(),
	})
	return svc, creditor, invites
}

func TestSignupCreatesUserAndProfile(t *testing.T) {
	conn := dbtest.Open(t)
	svc, creditor, invites := newTestService(t, conn)
	ctx := context.Background()

	user, err := svc.Signup(ctx, SignupInput{
		Email:     "Amina@Example.com",
		Username:  "amina",
		Password:  "correct-horse",
		FirstName: "Amina",
	})
	require.NoError(t, err)
	require.Equal(t, "amina@example.com", user.Email, "email is normalized")
	require.NotNil(t, user.Profile)
	require.Len(t, user.Profile.ReferralCode, 10)
	require.Nil(t, user.Profile.ReferrerID)

	ok, err := security.VerifyPassword("correct-horse", user.PasswordHash)
	require.NoError(t, err)
	require.True(t, ok)

	require.Empty(t, creditor.credited, "no referral code, no signup credit")
	require.Equal(t, []string{"amina@example.com"}, invites.joined)
}

func TestSignupWithReferralCodeLinksAndCredits(t *testing.T) {
	conn := dbtest.Open(t)
	svc, creditor, _ := newTestService(t, conn)
	ctx := context.Background()

	referrer, err := svc.Signup(ctx, SignupInput{
		Email: "ref@example.com", Username: "ref", Password: "correct-horse",
	})
	require.NoError(t, err)

	joined, err := svc.Signup(ctx, SignupInput{
		Email: "new@example.com", Username: "new", Password: "correct-horse",
		ReferralCode: referrer.Profile.ReferralCode,
	})
	require.NoError(t, err)
	require.NotNil(t, joined.Profile.ReferrerID)
	require.Equal(t, referrer.ID, *joined.Profile.ReferrerID)
	require.Equal(t, []uuid.UUID{referrer.ID}, creditor.credited)
}

func TestSignupRejectsUnknownReferralCode(t *testing.T) {
	conn := dbtest.Open(t)
	svc, _, _ := newTestService(t, conn)

	_, err := svc.Signup(context.Background(), SignupInput{
		Email: "x@example.com", Username: "x", Password: "correct-horse",
		ReferralCode: "NOPE123456",
	})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestSignupDuplicateEmailConflicts(t *testing.T) {
	conn := dbtest.Open(t)
	svc, _, _ := newTestService(t, conn)
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupInput{Email: "dup@example.com", Username: "a", Password: "correct-horse"})
	require.NoError(t, err)

	_, err = svc.Signup(ctx, SignupInput{Email: "dup@example.com", Username: "b", Password: "correct-horse"})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))
}

func TestUpdateProfile(t *testing.T) {
	conn := dbtest.Open(t)
	svc, _, _ := newTestService(t, conn)
	ctx := context.Background()

	user, err := svc.Signup(ctx, SignupInput{Email: "p@example.com", Username: "p", Password: "correct-horse"})
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{
		FirstName: "Ada", LastName: "Obi", PhoneNumber: "+2348012345678",
	})
	require.NoError(t, err)
	require.Equal(t, "Ada", updated.FirstName)
	require.Equal(t, "+2348012345678", updated.PhoneNumber)
}

func TestAddressBook(t *testing.T) {
	conn := dbtest.Open(t)
	svc, _, _ := newTestService(t, conn)
	ctx := context.Background()

	user, err := svc.Signup(ctx, SignupInput{Email: "a@example.com", Username: "a", Password: "correct-horse"})
	require.NoError(t, err)

	_, err = svc.AddAddress(ctx, user.ID, AddressInput{Street: "1 Main St"})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "partial address rejected")

	address, err := svc.AddAddress(ctx, user.ID, AddressInput{
		Label: "home", Street: "1 Main St", City: "Kano", State: "Kano", Country: "NG",
	})
	require.NoError(t, err)

	listed, err := svc.ListAddresses(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	require.NoError(t, svc.DeleteAddress(ctx, user.ID, address.ID))
	err = svc.DeleteAddress(ctx, user.ID, address.ID)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}
