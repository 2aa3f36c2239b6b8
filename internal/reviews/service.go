package reviews

import (
	"context"

	"github.com/google/uuid"

	"github.com/kasuwahq/kasuwa-backend/pkg/db"
	"github.com/kasuwahq/kasuwa-backend/pkg/db/models"
	pkgerrors "github.com/kasuwahq/kasuwa-backend/pkg/errors"
	"github.com/kasuwahq/kasuwa-backend/pkg/pagination"
)

type productReader interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// CreateInput is one review submission.
type CreateInput struct {
	ProductID uuid.UUID
	UserID    uuid.UUID
	Rating    int
	Comment   string
}

// Page is one page of reviews for a product.
type Page struct {
	Reviews    []models.ProductReview
	NextCursor string
}

type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.ProductReview, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) (*Page, error)
}

type service struct {
	repo     Repository
	products productReader
}

func NewService(repo Repository, products productReader) Service {
	return &service{repo: repo, products: products}
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.ProductReview, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	if _, err := s.products.FindProduct(ctx, input.ProductID); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}

	review := &models.ProductReview{
		ProductID: input.ProductID,
		UserID:    input.UserID,
		Rating:    input.Rating,
		Comment:   input.Comment,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product already reviewed")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving review")
	}
	return review, nil
}

func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) (*Page, error) {
	rows, next, err := s.repo.ListByProduct(ctx, productID, params)
	if err != nil {
		if _, cursorErr := pagination.ParseCursor(params.Cursor); cursorErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, cursorErr, "invalid cursor")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing reviews")
	}
	return &Page{Reviews: rows, NextCursor: next}, nil
}
