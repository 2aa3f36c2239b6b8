package orders

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/kasuwahq/kasuwa-backend/internal/ledger"
	"github.com/kasuwahq/kasuwa-backend/pkg/config"
	"github.com/kasuwahq/kasuwa-backend/pkg/db"
	"github.com/kasuwahq/kasuwa-backend/pkg/db/models"
	"github.com/kasuwahq/kasuwa-backend/pkg/enums"
	pkgerrors "github.com/kasuwahq/kasuwa-backend/pkg/errors"
	"github.com/kasuwahq/kasuwa-backend/pkg/logger"
	"github.com/kasuwahq/kasuwa-backend/pkg/metrics"
	"github.com/kasuwahq/kasuwa-backend/pkg/pagination"
	"github.com/kasuwahq/kasuwa-backend/pkg/paystack"
)

var minorUnitsPerUnit = decimal.NewFromInt(100)

type gateway interface {
	Initialize(ctx context.Context, params paystack.InitializeParams) (*paystack.InitializeResult, error)
	Verify(ctx context.Context, reference string) (*paystack.VerifyResult, error)
}

type cartStore interface {
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.ShoppingCart, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

type addressBook interface {
	FirstAddressByUser(ctx context.Context, userID uuid.UUID) (*models.Address, error)
}

type accountReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type referralCreditor interface {
	CreditForOrder(ctx context.Context, userID uuid.UUID, orderTotal decimal.Decimal) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service drives the two money-moving flows: checkout and payment
// verification.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID) (*CheckoutResult, error)
	VerifyPayment(ctx context.Context, userID uuid.UUID, reference string) (VerifyOutcome, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderPage, error)
}

// Deps wires the order engine. Metrics and Logger may be nil.
type Deps struct {
	DB        txRunner
	Orders    Repository
	Ledger    ledger.Repository
	Carts     cartStore
	Addresses addressBook
	Accounts  accountReader
	Referrals referralCreditor
	Gateway   gateway
	Checkout  config.CheckoutConfig
	Metrics   *metrics.PaymentMetrics
	Logger    *logger.Logger
}

type service struct {
	db        txRunner
	orders    Repository
	ledger    ledger.Repository
	carts     cartStore
	addresses addressBook
	accounts  accountReader
	referrals referralCreditor
	gateway   gateway
	cfg       config.CheckoutConfig
	metrics   *metrics.PaymentMetrics
	logg      *logger.Logger
}

func NewService(deps Deps) Service {
	return &service{
		db:        deps.DB,
		orders:    deps.Orders,
		ledger:    deps.Ledger,
		carts:     deps.Carts,
		addresses: deps.Addresses,
		accounts:  deps.Accounts,
		referrals: deps.Referrals,
		gateway:   deps.Gateway,
		cfg:       deps.Checkout,
		metrics:   deps.Metrics,
		logg:      deps.Logger,
	}
}

// Checkout snapshots the cart into an order and opens a gateway payment
// session. The order and its items are created atomically; a failed
// gateway call deletes the order again so no unpayable PENDING rows pile
// up. The cart itself is left untouched until the payment is verified.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID) (*CheckoutResult, error) {
	ctx = s.withUser(ctx, userID)

	account, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading account")
	}

	crt, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			s.metrics.IncCheckout("empty_cart")
			return nil, ErrEmptyCart
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	if len(crt.Items) == 0 {
		s.metrics.IncCheckout("empty_cart")
		return nil, ErrEmptyCart
	}

	address, err := s.addresses.FirstAddressByUser(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			s.metrics.IncCheckout("missing_address")
			return nil, ErrMissingAddress
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading delivery address")
	}

	// Totals come from the cart's price snapshots, never the live catalog.
	itemsTotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(crt.Items))
	for _, line := range crt.Items {
		itemsTotal = itemsTotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Price:     line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}
	total := itemsTotal.Add(s.cfg.DeliveryCost)

	order := &models.Order{
		UserID:            userID,
		DeliveryAddressID: address.ID,
		DeliveryCost:      s.cfg.DeliveryCost,
		TotalCost:         total,
		Status:            enums.OrderStatusPending,
		Items:             items,
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.orders.WithTx(tx).Create(ctx, order)
	})
	if err != nil {
		s.metrics.IncCheckout("error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
	}
	ctx = s.withOrder(ctx, order.ID)

	start := time.Now()
	session, initErr := s.gateway.Initialize(ctx, paystack.InitializeParams{
		AmountMinorUnits: total.Mul(minorUnitsPerUnit).Round(0).IntPart(),
		Email:            account.Email,
		CallbackURL:      s.cfg.CallbackURL,
		Reference:        order.ID.String(),
	})
	s.metrics.ObserveGateway("initialize", time.Since(start))

	if initErr != nil || !session.OK {
		// Compensate: the order is unpayable without a gateway session.
		if delErr := s.orders.DeleteWithItems(ctx, order.ID); delErr != nil && s.logg != nil {
			s.logg.Error(ctx, "deleting order after failed payment init", delErr)
		}
		s.metrics.IncCheckout("init_failed")
		if initErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrPaymentInitFailed, initErr)
		}
		return nil, ErrPaymentInitFailed
	}

	s.metrics.IncCheckout("success")
	if s.logg != nil {
		s.logg.Info(ctx, "checkout initialized")
	}
	return &CheckoutResult{OrderID: order.ID, PaymentURL: session.AuthorizationURL}, nil
}

// VerifyPayment asks the gateway for the authoritative payment status and,
// on success, completes the order exactly once: the PENDING to COMPLETE
// flip and the ledger entry commit in the same transaction. Cart clearing
// and the referral credit run after the commit and are best-effort.
func (s *service) VerifyPayment(ctx context.Context, userID uuid.UUID, reference string) (VerifyOutcome, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return "", ErrMissingReference
	}
	ctx = s.withUser(ctx, userID)
	if s.logg != nil {
		ctx = s.logg.WithReference(ctx, reference)
	}

	start := time.Now()
	status, err := s.gateway.Verify(ctx, reference)
	s.metrics.ObserveGateway("verify", time.Since(start))
	if err != nil {
		s.metrics.IncVerification("unreachable")
		return "", fmt.Errorf("%w: %v", ErrVerificationUnreachable, err)
	}
	if !status.OK {
		s.metrics.IncVerification("unreachable")
		return "", ErrVerificationUnreachable
	}
	if !status.Succeeded {
		s.metrics.IncVerification("payment_failed")
		if s.logg != nil {
			s.logg.Info(ctx, "payment not completed at gateway")
		}
		return OutcomePaymentFailed, nil
	}

	orderID, err := uuid.Parse(reference)
	if err != nil {
		s.metrics.IncVerification("order_not_found")
		return "", ErrOrderNotFound
	}

	var order *models.Order
	alreadyComplete := false
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)

		found, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if db.IsNotFound(err) {
				return ErrOrderNotFound
			}
			return err
		}
		// Ownership is checked against the order the reference points at;
		// someone else's reference looks identical to a missing order.
		if found.UserID != userID {
			return ErrOrderNotFound
		}
		order = found

		if found.Status == enums.OrderStatusComplete {
			alreadyComplete = true
			return nil
		}

		won, err := repo.MarkComplete(ctx, orderID)
		if err != nil {
			return err
		}
		if !won {
			// A concurrent verify got there first.
			alreadyComplete = true
			return nil
		}

		return s.ledger.WithTx(tx).Create(ctx, &models.Transaction{
			UserID:        found.UserID,
			OrderID:       found.ID,
			Amount:        found.TotalCost,
			Status:        enums.TransactionStatusPaid,
			PaymentMethod: enums.PaymentMethodCard,
		})
	})
	if err != nil {
		if stdErrors.Is(err, ErrOrderNotFound) {
			s.metrics.IncVerification("order_not_found")
			return "", ErrOrderNotFound
		}
		s.metrics.IncVerification("error")
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "completing order")
	}

	if alreadyComplete {
		s.metrics.IncVerification("already_complete")
		if s.logg != nil {
			s.logg.Info(ctx, "order already complete")
		}
		return OutcomeSucceeded, nil
	}

	var side error
	if err := s.carts.DeleteByUser(ctx, userID); err != nil {
		side = multierr.Append(side, fmt.Errorf("clearing cart: %w", err))
	}
	if err := s.referrals.CreditForOrder(ctx, userID, order.TotalCost); err != nil {
		side = multierr.Append(side, fmt.Errorf("crediting referral: %w", err))
	}
	if side != nil && s.logg != nil {
		s.logg.Warn(ctx, "post-payment cleanup incomplete: "+side.Error())
	}

	s.metrics.IncVerification("success")
	if s.logg != nil {
		s.logg.Info(ctx, "payment verified, order complete")
	}
	return OutcomeSucceeded, nil
}

func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrOrderNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderPage, error) {
	rows, next, err := s.orders.ListByUser(ctx, userID, params)
	if err != nil {
		if _, cursorErr := pagination.ParseCursor(params.Cursor); cursorErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, cursorErr, "invalid cursor")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return &OrderPage{Orders: rows, NextCursor: next}, nil
}

func (s *service) withUser(ctx context.Context, userID uuid.UUID) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithUserID(ctx, userID.String())
}

func (s *service) withOrder(ctx context.Context, orderID uuid.UUID) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithOrderID(ctx, orderID.String())
}
