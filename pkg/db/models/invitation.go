package models

import (
	"time"

	"github.com/google/uuid"
)

// Invitation records an email invite carrying the inviter's referral code.
type Invitation struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	InviterID    uuid.UUID `gorm:"column:inviter_id;type:uuid;index;not null"`
	Email        string    `gorm:"column:email;not null"`
	ReferralCode string    `gorm:"column:referral_code;not null"`
	Joined       bool      `gorm:"column:joined;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
