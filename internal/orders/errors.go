package orders

import (
	pkgerrors "github.com/kasuwahq/kasuwa-backend/pkg/errors"
)

// Sentinel errors for the checkout and verification flows. Handlers map
// them to HTTP statuses through the pkg/errors code metadata; services and
// tests match them with errors.Is.
var (
	ErrEmptyCart               = pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	ErrMissingAddress          = pkgerrors.New(pkgerrors.CodeValidation, "no delivery address on file")
	ErrMissingReference        = pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required")
	ErrOrderNotFound           = pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	ErrPaymentInitFailed       = pkgerrors.New(pkgerrors.CodeDependency, "payment initialization failed")
	ErrVerificationUnreachable = pkgerrors.New(pkgerrors.CodeDependency, "payment verification unavailable")
)
