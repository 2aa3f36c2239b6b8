package referral

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kasuwahq/kasuwa-backend/pkg/config"
	"github.com/kasuwahq/kasuwa-backend/pkg/db"
	"github.com/kasuwahq/kasuwa-backend/pkg/logger"
)

// Service hands out referral bonuses. Both entry points are deliberately
// forgiving: a buyer without a profile or without a referrer is a normal
// case, not an error, so callers can fire-and-forget after payment.
type Service interface {
	// CreditForOrder rewards the buyer's referrer once the buyer completes
	// an order at or above the qualifying threshold.
	CreditForOrder(ctx context.Context, userID uuid.UUID, orderTotal decimal.Decimal) error
	// CreditForSignup rewards a referrer when someone signs up with their
	// code.
	CreditForSignup(ctx context.Context, referrerUserID uuid.UUID) error
}

type service struct {
	repo Repository
	cfg  config.CheckoutConfig
	logg *logger.Logger
}

func NewService(repo Repository, cfg config.CheckoutConfig, logg *logger.Logger) Service {
	return &service{repo: repo, cfg: cfg, logg: logg}
}

func (s *service) CreditForOrder(ctx context.Context, userID uuid.UUID, orderTotal decimal.Decimal) error {
	if orderTotal.LessThan(s.cfg.ReferralThreshold) {
		return nil
	}

	profile, err := s.repo.FindProfileByUser(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			s.debug(ctx, "buyer has no profile, skipping referral credit")
			return nil
		}
		return fmt.Errorf("loading buyer profile: %w", err)
	}
	if profile.ReferrerID == nil {
		return nil
	}

	referrer, err := s.repo.FindProfileByUser(ctx, *profile.ReferrerID)
	if err != nil {
		if db.IsNotFound(err) {
			s.debug(ctx, "referrer profile missing, skipping referral credit")
			return nil
		}
		return fmt.Errorf("loading referrer profile: %w", err)
	}

	if err := s.repo.IncrementBalance(ctx, referrer.ID, s.cfg.ReferralBonus); err != nil {
		return fmt.Errorf("crediting referrer balance: %w", err)
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, referrer.UserID.String()), "referral order bonus credited")
	}
	return nil
}

func (s *service) CreditForSignup(ctx context.Context, referrerUserID uuid.UUID) error {
	referrer, err := s.repo.FindProfileByUser(ctx, referrerUserID)
	if err != nil {
		if db.IsNotFound(err) {
			s.debug(ctx, "referrer profile missing, skipping signup credit")
			return nil
		}
		return fmt.Errorf("loading referrer profile: %w", err)
	}
	if err := s.repo.IncrementBalance(ctx, referrer.ID, s.cfg.ReferralBonus); err != nil {
		return fmt.Errorf("crediting referrer balance: %w", err)
	}
	return nil
}

func (s *service) debug(ctx context.Context, msg string) {
	if s.logg != nil {
		s.logg.Debug(ctx, msg)
	}
}
