package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kasuwahq/kasuwa-backend/pkg/enums"
)

// Transaction is an append-only ledger entry. Exactly one PAID row exists
// per completed order; the orders engine guarantees that with its status
// compare-and-swap.
type Transaction struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	UserID        uuid.UUID               `gorm:"column:user_id;type:uuid;index;not null"`
	OrderID       uuid.UUID               `gorm:"column:order_id;type:uuid;index;not null"`
	Amount        decimal.Decimal         `gorm:"column:amount;type:numeric(12,2);not null"`
	Status        enums.TransactionStatus `gorm:"column:status;type:text;not null"`
	PaymentMethod enums.PaymentMethod     `gorm:"column:payment_method;type:text;not null"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
}
