package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kasuwahq/kasuwa-backend/pkg/db"
	"github.com/kasuwahq/kasuwa-backend/pkg/db/models"
)

// Repository persists the single cart each user owns.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.ShoppingCart, error)
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.ShoppingCart, error)
	UpsertItem(ctx context.Context, item *models.CartItem) error
	FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error)
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.ShoppingCart, error) {
	var crt models.ShoppingCart
	err := r.db.WithContext(ctx).
		Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("created_at ASC") }).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&crt).Error
	if err != nil {
		return nil, err
	}
	return &crt, nil
}

func (r *repository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.ShoppingCart, error) {
	crt, err := r.FindByUser(ctx, userID)
	if err == nil {
		return crt, nil
	}
	if !db.IsNotFound(err) {
		return nil, err
	}

	fresh := &models.ShoppingCart{UserID: userID}
	if err := r.db.WithContext(ctx).Create(fresh).Error; err != nil {
		// Lost a race with another request creating the same cart.
		if db.IsUniqueViolation(err, "") {
			return r.FindByUser(ctx, userID)
		}
		return nil, err
	}
	return fresh, nil
}

// UpsertItem inserts the line or, when the product is already in the cart,
// replaces its quantity and refreshes the price snapshot.
func (r *repository) UpsertItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "unit_price", "updated_at"}),
		}).
		Create(item).Error
}

func (r *repository) FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", quantity).Error
}

func (r *repository) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartItem{}).Error
}

// DeleteByUser removes the cart and its items. Items go first because the
// sqlite test database does not enforce the cascade.
func (r *repository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	crt, err := r.FindByUser(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil
		}
		return err
	}
	if err := r.db.WithContext(ctx).Where("cart_id = ?", crt.ID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&models.ShoppingCart{}, "id = ?", crt.ID).Error
}
