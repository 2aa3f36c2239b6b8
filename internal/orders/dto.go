package orders

import (
	"github.com/google/uuid"

	"github.com/kasuwahq/kasuwa-backend/pkg/db/models"
)

// CheckoutResult is handed back to the buyer so the client can redirect to
// the hosted payment page. OrderID doubles as the gateway reference.
type CheckoutResult struct {
	OrderID    uuid.UUID
	PaymentURL string
}

// VerifyOutcome distinguishes a settled payment from a declined or
// abandoned one. A failed payment is a legitimate answer, not an error.
type VerifyOutcome string

const (
	OutcomeSucceeded     VerifyOutcome = "succeeded"
	OutcomePaymentFailed VerifyOutcome = "payment_failed"
)

// OrderPage is one page of a buyer's order history.
type OrderPage struct {
	Orders     []models.Order
	NextCursor string
}
