package cart

import (
	"context"

	"github.com/google/uuid"

	"github.com/kasuwahq/kasuwa-backend/pkg/db"
	"github.com/kasuwahq/kasuwa-backend/pkg/db/models"
	pkgerrors "github.com/kasuwahq/kasuwa-backend/pkg/errors"
	"github.com/kasuwahq/kasuwa-backend/pkg/logger"
)

type productReader interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service owns cart mutations. Prices are snapshotted onto the cart item at
// add time; checkout reads the snapshot and never the live catalog price.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.ShoppingCart, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.ShoppingCart, error)
	UpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.ShoppingCart, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*models.ShoppingCart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	carts    Repository
	products productReader
	logg     *logger.Logger
}

func NewService(carts Repository, products productReader, logg *logger.Logger) Service {
	return &service{carts: carts, products: products, logg: logg}
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.ShoppingCart, error) {
	crt, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return &models.ShoppingCart{UserID: userID, Items: []models.CartItem{}}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	return crt, nil
}

func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.ShoppingCart, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.products.FindProduct(ctx, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	if product.Stock < quantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock")
	}

	crt, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "opening cart")
	}

	item := &models.CartItem{
		CartID:    crt.ID,
		ProductID: product.ID,
		Quantity:  quantity,
		UnitPrice: product.Price,
	}
	if err := s.carts.UpsertItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving cart item")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, userID.String()), "cart item added")
	}
	return s.carts.FindByUser(ctx, userID)
}

// UpdateItem changes a line's quantity. Zero removes the line; the price
// snapshot is left alone either way.
func (s *service) UpdateItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.ShoppingCart, error) {
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, userID, productID)
	}

	crt, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}

	item, err := s.carts.FindItem(ctx, crt.ID, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart item")
	}

	if err := s.carts.UpdateItemQuantity(ctx, item.ID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating cart item")
	}
	return s.carts.FindByUser(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*models.ShoppingCart, error) {
	crt, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	if err := s.carts.DeleteItem(ctx, crt.ID, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "removing cart item")
	}
	return s.carts.FindByUser(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.carts.DeleteByUser(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing cart")
	}
	return nil
}
