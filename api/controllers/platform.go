package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gamevault/gamevault-backend/api/responses"
	"github.com/gamevault/gamevault-backend/api/validators"
	ledgersvc "github.com/gamevault/gamevault-backend/internal/platformledger"
	"github.com/gamevault/gamevault-backend/pkg/db/models"
	"github.com/gamevault/gamevault-backend/pkg/enums"
	pkgerrors "github.com/gamevault/gamevault-backend/pkg/errors"
	"github.com/gamevault/gamevault-backend/pkg/logger"
	"github.com/gamevault/gamevault-backend/pkg/pagination"
)

type transactionListResponse struct {
	Entries    []models.PlatformTransaction `json:"entries"`
	NextCursor string                       `json:"next_cursor,omitempty"`
}

type incomeResponse struct {
	Total           decimal.Decimal `json:"total"`
	CommissionTotal decimal.Decimal `json:"commission_total"`
	ListingFeeTotal decimal.Decimal `json:"listing_fee_total"`
	CommissionCount int64           `json:"commission_count"`
	ListingFeeCount int64           `json:"listing_fee_count"`
}

// PlatformTransactions pages through the ledger, newest first.
func PlatformTransactions(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := ledgersvc.ListFilters{}
		if raw := strings.TrimSpace(r.URL.Query().Get("kind")); raw != "" {
			kind, err := enums.ParsePlatformTransactionKind(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kind"))
				return
			}
			filters.Kind = &kind
		}
		userID, err := validators.ParseQueryUUID(r, "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.UserID = userID

		list, err := svc.List(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, transactionListResponse{
			Entries:    list.Entries,
			NextCursor: list.NextCursor,
		})
	}
}

// PlatformIncome reports lifetime platform revenue split by source.
func PlatformIncome(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.Income(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, incomeResponse{
			Total:           report.Total,
			CommissionTotal: report.CommissionTotal,
			ListingFeeTotal: report.ListingFeeTotal,
			CommissionCount: report.CommissionCount,
			ListingFeeCount: report.ListingFeeCount,
		})
	}
}
