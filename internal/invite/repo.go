package invite

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kasuwahq/kasuwa-backend/pkg/db/models"
)

type Repository interface {
	Create(ctx context.Context, invitation *models.Invitation) error
	ListByInviter(ctx context.Context, inviterID uuid.UUID) ([]models.Invitation, error)
	MarkJoinedByEmail(ctx context.Context, email string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, invitation *models.Invitation) error {
	return r.db.WithContext(ctx).Create(invitation).Error
}

func (r *repository) ListByInviter(ctx context.Context, inviterID uuid.UUID) ([]models.Invitation, error) {
	var invitations []models.Invitation
	err := r.db.WithContext(ctx).
		Where("inviter_id = ?", inviterID).
		Order("created_at DESC").
		Find(&invitations).Error
	if err != nil {
		return nil, err
	}
	return invitations, nil
}

// MarkJoinedByEmail flips every open invitation for the address, since the
// same person may have been invited by several users.
func (r *repository) MarkJoinedByEmail(ctx context.Context, email string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("email = ? AND joined = ?", strings.ToLower(email), false).
		Update("joined", true)
	return res.RowsAffected, res.Error
}
