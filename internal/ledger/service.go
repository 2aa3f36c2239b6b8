package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kasuwahq/kasuwa-backend/pkg/db/models"
	"github.com/kasuwahq/kasuwa-backend/pkg/enums"
	pkgerrors "github.com/kasuwahq/kasuwa-backend/pkg/errors"
	"github.com/kasuwahq/kasuwa-backend/pkg/logger"
	"github.com/kasuwahq/kasuwa-backend/pkg/pagination"
)

// RecordInput describes one ledger entry. Amount is the full order total,
// never a partial capture.
type RecordInput struct {
	UserID        uuid.UUID
	OrderID       uuid.UUID
	Amount        decimal.Decimal
	Status        enums.TransactionStatus
	PaymentMethod enums.PaymentMethod
}

// History is one page of a user's transaction history.
type History struct {
	Transactions []models.Transaction
	NextCursor   string
}

type Service interface {
	Record(ctx context.Context, input RecordInput) (*models.Transaction, error)
	History(ctx context.Context, userID uuid.UUID, params pagination.Params) (*History, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

func NewService(repo Repository, logg *logger.Logger) Service {
	return &service{repo: repo, logg: logg}
}

func (s *service) Record(ctx context.Context, input RecordInput) (*models.Transaction, error) {
	if input.UserID == uuid.Nil || input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user and order are required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown transaction status")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}

	txn := &models.Transaction{
		UserID:        input.UserID,
		OrderID:       input.OrderID,
		Amount:        input.Amount,
		Status:        input.Status,
		PaymentMethod: input.PaymentMethod,
	}
	if err := s.repo.Create(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording transaction")
	}
	return txn, nil
}

func (s *service) History(ctx context.Context, userID uuid.UUID, params pagination.Params) (*History, error) {
	if params.Cursor != "" {
		if _, err := pagination.ParseCursor(params.Cursor); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
	}
	rows, next, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing transactions")
	}
	return &History{Transactions: rows, NextCursor: next}, nil
}
