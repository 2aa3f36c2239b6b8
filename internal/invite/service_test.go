package invite

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kasuwahq/kasuwa-backend/internal/mailer"
	"github.com/kasuwahq/kasuwa-backend/pkg/db/dbtest"
	"github.com/kasuwahq/kasuwa-backend/pkg/db/models"
	pkgerrors "github.com/kasuwahq/kasuwa-backend/pkg/errors"
)

type profileLookup struct {
	conn *gorm.DB
}

func (p profileLookup) FindProfileByUser(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := p.conn.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

type captureSender struct {
	sent []mailer.Message
}

func (c *captureSender) Send(_ context.Context, msg mailer.Message) error {
	c.sent = append(c.sent, msg)
	return nil
}

func TestCreateInvitation(t *testing.T) {
	conn := dbtest.Open(t)
	sender := &captureSender{}
	svc := NewService(NewRepository(conn), profileLookup{conn}, sender, nil)
	ctx := context.Background()

	inviterID := uuid.New()
	require.NoError(t, conn.Create(&models.Profile{UserID: inviterID, ReferralCode: "INV123"}).Error)

	invitation, err := svc.Create(ctx, inviterID, "Friend@Example.com")
	require.NoError(t, err)
	require.Equal(t, "friend@example.com", invitation.Email)
	require.Equal(t, "INV123", invitation.ReferralCode)
	require.False(t, invitation.Joined)

	require.Len(t, sender.sent, 1)
	require.True(t, strings.Contains(sender.sent[0].Body, "INV123"))
}

func TestCreateInvitationValidation(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), profileLookup{conn}, &captureSender{}, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, uuid.New(), "not-an-email")
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, uuid.New(), "x@example.com")
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound), "unknown inviter")
}

func TestMarkJoinedFlipsOpenInvitations(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), profileLookup{conn}, &captureSender{}, nil)
	ctx := context.Background()

	inviterA := uuid.New()
	inviterB := uuid.New()
	require.NoError(t, conn.Create(&models.Invitation{InviterID: inviterA, Email: "x@example.com", ReferralCode: "A"}).Error)
	require.NoError(t, conn.Create(&models.Invitation{InviterID: inviterB, Email: "x@example.com", ReferralCode: "B"}).Error)
	require.NoError(t, conn.Create(&models.Invitation{InviterID: inviterA, Email: "other@example.com", ReferralCode: "A"}).Error)

	require.NoError(t, svc.MarkJoined(ctx, "X@example.com"))

	var joined int64
	require.NoError(t, conn.Model(&models.Invitation{}).Where("joined = ?", true).Count(&joined).Error)
	require.EqualValues(t, 2, joined)

	listed, err := svc.List(ctx, inviterA)
	require.NoError(t, err)
	require.Len(t, listed, 2)
}
