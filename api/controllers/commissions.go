package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rendasua/settlement-backend/api/responses"
	"github.com/rendasua/settlement-backend/api/validators"
	"github.com/rendasua/settlement-backend/internal/commission"
	pkgerrors "github.com/rendasua/settlement-backend/pkg/errors"
	"github.com/rendasua/settlement-backend/pkg/logger"
	"github.com/rendasua/settlement-backend/pkg/pagination"
)

// DistributeCommissions settles an order's commissions. The first successful
// call returns 201; a repeat returns the conflict from the distribution layer.
func DistributeCommissions(service commission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := service.Distribute(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// PreviewCommissions computes the breakdown without moving money.
func PreviewCommissions(service commission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		preview, err := service.Preview(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, preview)
	}
}

type payoutListResponse struct {
	Payouts    any    `json:"payouts"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// ListCommissionPayouts returns the audit trail for one order.
func ListCommissionPayouts(service commission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		payouts, nextCursor, err := service.ListPayouts(ctx, orderID, pagination.Params{
			Limit:  limit,
			Cursor: validators.ParseQueryString(r, "cursor"),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, payoutListResponse{
			Payouts:    payouts,
			NextCursor: nextCursor,
		})
	}
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "orderId")
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id must be a uuid").
			WithDetails(map[string]any{"field": "orderId"})
	}
	return orderID, nil
}
