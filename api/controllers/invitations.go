package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kasuwahq/kasuwa-backend/api/responses"
	"github.com/kasuwahq/kasuwa-backend/api/validators"
	"github.com/kasuwahq/kasuwa-backend/internal/invite"
	"github.com/kasuwahq/kasuwa-backend/pkg/logger"
)

type invitationResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Joined    bool      `json:"joined"`
	CreatedAt time.Time `json:"created_at"`
}

type createInvitationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func InvitationsCreate(svc invite.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req createInvitationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invitation, err := svc.Create(r.Context(), userID, req.Email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, invitationResponse{
			ID:        invitation.ID,
			Email:     invitation.Email,
			Joined:    invitation.Joined,
			CreatedAt: invitation.CreatedAt,
		})
	}
}

func InvitationsList(svc invite.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp := make([]invitationResponse, 0, len(rows))
		for _, invitation := range rows {
			resp = append(resp, invitationResponse{
				ID:        invitation.ID,
				Email:     invitation.Email,
				Joined:    invitation.Joined,
				CreatedAt: invitation.CreatedAt,
			})
		}
		responses.WriteSuccess(w, map[string]any{"invitations": resp})
	}
}
