package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kasuwahq/kasuwa-backend/api/responses"
	"github.com/kasuwahq/kasuwa-backend/internal/ledger"
	"github.com/kasuwahq/kasuwa-backend/pkg/enums"
	"github.com/kasuwahq/kasuwa-backend/pkg/logger"
)

func TransactionsList(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	type transactionResponse struct {
		ID            uuid.UUID               `json:"id"`
		OrderID       uuid.UUID               `json:"order_id"`
		Amount        decimal.Decimal         `json:"amount"`
		Status        enums.TransactionStatus `json:"status"`
		PaymentMethod enums.PaymentMethod     `json:"payment_method"`
		CreatedAt     time.Time               `json:"created_at"`
	}
	type listResponse struct {
		Transactions []transactionResponse `json:"transactions"`
		NextCursor   string                `json:"next_cursor,omitempty"`
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
		history, err := svc.History(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp := listResponse{
			Transactions: make([]transactionResponse, 0, len(history.Transactions)),
			NextCursor:   history.NextCursor,
		}
		for _, txn := range history.Transactions {
			resp.Transactions = append(resp.Transactions, transactionResponse{
				ID:            txn.ID,
				OrderID:       txn.OrderID,
				Amount:        txn.Amount,
				Status:        txn.Status,
				PaymentMethod: txn.PaymentMethod,
				CreatedAt:     txn.CreatedAt,
			})
		}
		responses.WriteSuccess(w, resp)
	}
}
