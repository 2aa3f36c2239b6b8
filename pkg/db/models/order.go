package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kasuwahq/kasuwa-backend/pkg/enums"
)

// Order is the immutable purchase snapshot created at checkout. Its id is
// also the merchant reference handed to the payment gateway, which is how
// verification finds its way back.
//
// Invariant: TotalCost = sum(item.Price * item.Quantity) + DeliveryCost,
// fixed at creation time.
type Order struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID            uuid.UUID         `gorm:"column:user_id;type:uuid;index;not null"`
	DeliveryAddressID uuid.UUID         `gorm:"column:delivery_address_id;type:uuid;not null"`
	DeliveryCost      decimal.Decimal   `gorm:"column:delivery_cost;type:numeric(12,2);not null"`
	TotalCost         decimal.Decimal   `gorm:"column:total_cost;type:numeric(12,2);not null"`
	Status            enums.OrderStatus `gorm:"column:status;type:text;not null;default:'PENDING'"`
	Items             []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is an immutable line item. Price is copied from the cart item,
// never re-fetched from the catalog.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;index;not null"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
