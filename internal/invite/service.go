package invite

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kasuwahq/kasuwa-backend/internal/mailer"
	"github.com/kasuwahq/kasuwa-backend/pkg/db"
	"github.com/kasuwahq/kasuwa-backend/pkg/db/models"
	pkgerrors "github.com/kasuwahq/kasuwa-backend/pkg/errors"
	"github.com/kasuwahq/kasuwa-backend/pkg/logger"
)

type profileReader interface {
	FindProfileByUser(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

// Service sends referral invitations carrying the inviter's code and marks
// them joined when the invitee signs up.
type Service interface {
	Create(ctx context.Context, inviterID uuid.UUID, email string) (*models.Invitation, error)
	List(ctx context.Context, inviterID uuid.UUID) ([]models.Invitation, error)
	MarkJoined(ctx context.Context, email string) error
}

type service struct {
	repo     Repository
	profiles profileReader
	sender   mailer.Sender
	logg     *logger.Logger
}

func NewService(repo Repository, profiles profileReader, sender mailer.Sender, logg *logger.Logger) Service {
	return &service{repo: repo, profiles: profiles, sender: sender, logg: logg}
}

func (s *service) Create(ctx context.Context, inviterID uuid.UUID, email string) (*models.Invitation, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}

	profile, err := s.profiles.FindProfileByUser(ctx, inviterID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inviter profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading inviter profile")
	}

	invitation := &models.Invitation{
		InviterID:    inviterID,
		Email:        email,
		ReferralCode: profile.ReferralCode,
	}
	if err := s.repo.Create(ctx, invitation); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving invitation")
	}

	if err := s.sender.Send(ctx, mailer.Message{
		To:      email,
		Subject: "You have been invited to Kasuwa",
		Body:    fmt.Sprintf("Sign up with referral code %s to get started.", profile.ReferralCode),
	}); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, inviterID.String()), "invitation mail delivery failed: "+err.Error())
	}
	return invitation, nil
}

func (s *service) List(ctx context.Context, inviterID uuid.UUID) ([]models.Invitation, error) {
	invitations, err := s.repo.ListByInviter(ctx, inviterID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing invitations")
	}
	return invitations, nil
}

func (s *service) MarkJoined(ctx context.Context, email string) error {
	if _, err := s.repo.MarkJoinedByEmail(ctx, email); err != nil {
		return fmt.Errorf("marking invitations joined: %w", err)
	}
	return nil
}
