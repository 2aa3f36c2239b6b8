package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the account record. Credential issuance lives outside this
// service; only the hash is stored so signup and password checks work.
type User struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email         string    `gorm:"column:email;uniqueIndex;not null"`
	Username      string    `gorm:"column:username;not null"`
	PasswordHash  string    `gorm:"column:password_hash;not null"`
	EmailVerified bool      `gorm:"column:email_verified;not null;default:false"`
	Profile       *Profile  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
