package referral

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kasuwahq/kasuwa-backend/pkg/db/models"
)

// Repository reads and adjusts the referral side of profiles.
type Repository interface {
	FindProfileByUser(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	FindProfileByReferralCode(ctx context.Context, code string) (*models.Profile, error)
	IncrementBalance(ctx context.Context, profileID uuid.UUID, amount decimal.Decimal) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindProfileByUser(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) FindProfileByReferralCode(ctx context.Context, code string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("referral_code = ?", code).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// IncrementBalance adds amount server-side so concurrent credits never lose
// an update.
func (r *repository) IncrementBalance(ctx context.Context, profileID uuid.UUID, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", profileID).
		UpdateColumn("referral_balance", gorm.Expr("referral_balance + ?", amount)).Error
}
