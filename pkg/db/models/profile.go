package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Profile carries the user-facing identity plus the referral relationship.
// ReferrerID points at the user whose referral code was used at signup; the
// referral balance accumulates signup and first-order bonuses.
type Profile struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID          uuid.UUID       `gorm:"column:user_id;type:uuid;uniqueIndex;not null"`
	FirstName       string          `gorm:"column:first_name"`
	LastName        string          `gorm:"column:last_name"`
	PhoneNumber     string          `gorm:"column:phone_number"`
	ReferralCode    string          `gorm:"column:referral_code;uniqueIndex;not null"`
	ReferrerID      *uuid.UUID      `gorm:"column:referrer_id;type:uuid"`
	ReferralBalance decimal.Decimal `gorm:"column:referral_balance;type:numeric(12,2);not null;default:0"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
