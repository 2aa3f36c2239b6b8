package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kasuwahq/kasuwa-backend/api/responses"
	"github.com/kasuwahq/kasuwa-backend/api/validators"
	"github.com/kasuwahq/kasuwa-backend/internal/orders"
	"github.com/kasuwahq/kasuwa-backend/pkg/db/models"
	"github.com/kasuwahq/kasuwa-backend/pkg/enums"
	pkgerrors "github.com/kasuwahq/kasuwa-backend/pkg/errors"
	"github.com/kasuwahq/kasuwa-backend/pkg/logger"
)

type orderItemResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type orderResponse struct {
	ID           uuid.UUID           `json:"id"`
	Status       enums.OrderStatus   `json:"status"`
	DeliveryCost decimal.Decimal     `json:"delivery_cost"`
	TotalCost    decimal.Decimal     `json:"total_cost"`
	Items        []orderItemResponse `json:"items"`
	CreatedAt    time.Time           `json:"created_at"`
}

func newOrderResponse(order models.Order) orderResponse {
	resp := orderResponse{
		ID:           order.ID,
		Status:       order.Status,
		DeliveryCost: order.DeliveryCost,
		TotalCost:    order.TotalCost,
		Items:        make([]orderItemResponse, 0, len(order.Items)),
		CreatedAt:    order.CreatedAt,
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductID: item.ProductID,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}
	return resp
}

// OrdersCheckout opens a payment session for the caller's cart. The request
// carries no body; everything the order needs is already on the server.
func OrdersCheckout(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Checkout(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"order_id":    result.OrderID,
			"payment_url": result.PaymentURL,
		})
	}
}

// OrdersVerifyPayment resolves the payment status for a gateway reference.
// A declined or abandoned payment is reported as a 402, not a server error.
func OrdersVerifyPayment(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		outcome, err := svc.VerifyPayment(r.Context(), userID, r.URL.Query().Get("reference"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if outcome == orders.OutcomePaymentFailed {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodePaymentRejected, "payment was not completed"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": string(outcome)})
	}
}

func OrdersList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	type listResponse struct {
		Orders     []orderResponse `json:"orders"`
		NextCursor string          `json:"next_cursor,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp := listResponse{
			Orders:     make([]orderResponse, 0, len(page.Orders)),
			NextCursor: page.NextCursor,
		}
		for _, order := range page.Orders {
			resp.Orders = append(resp.Orders, newOrderResponse(order))
		}
		responses.WriteSuccess(w, resp)
	}
}

func OrdersGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParsePathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(*order))
	}
}
