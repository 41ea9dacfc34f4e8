package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gamevault/gamevault-backend/api/responses"
	"github.com/gamevault/gamevault-backend/api/validators"
	payoutsvc "github.com/gamevault/gamevault-backend/internal/payouts"
	"github.com/gamevault/gamevault-backend/pkg/enums"
	pkgerrors "github.com/gamevault/gamevault-backend/pkg/errors"
	"github.com/gamevault/gamevault-backend/pkg/logger"
)

type markManyPaidRequest struct {
	PayoutIDs []string `json:"payout_ids" validate:"required,min=1,dive,uuid"`
}

type settleRequest struct {
	SupplierID    string `json:"supplier_id" validate:"required,uuid"`
	Method        string `json:"method" validate:"required"`
	PayeeEmail    string `json:"payee_email,omitempty"`
	BankAccount   string `json:"bank_account,omitempty"`
	AccountHolder string `json:"account_holder,omitempty"`
}

type batchPaidResponse struct {
	PaidIDs  []uuid.UUID        `json:"paid_ids"`
	Failures []batchPaidFailure `json:"failures"`
}

type batchPaidFailure struct {
	PayoutID uuid.UUID `json:"payout_id"`
	Error    string    `json:"error"`
}

type settlementResponse struct {
	SupplierID uuid.UUID       `json:"supplier_id"`
	Method     string          `json:"method"`
	Count      int64           `json:"count"`
	Total      decimal.Decimal `json:"total"`
	PaidAt     time.Time       `json:"paid_at"`
}

type balanceResponse struct {
	SupplierID      uuid.UUID       `json:"supplier_id"`
	Pending         decimal.Decimal `json:"pending"`
	Paid            decimal.Decimal `json:"paid"`
	GrossSales      decimal.Decimal `json:"gross_sales"`
	CommissionTotal decimal.Decimal `json:"commission_total"`
}

// PayoutList returns a supplier's payouts, optionally filtered by status.
func PayoutList(svc payoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supplierID, err := validators.ParseQueryUUID(r, "supplier_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if supplierID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "supplier_id query parameter required"))
			return
		}

		var status *enums.PayoutStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParsePayoutStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			status = &parsed
		}

		payouts, err := svc.ListBySupplier(r.Context(), *supplierID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, payouts)
	}
}

// PayoutMarkPaid settles a single payout.
func PayoutMarkPaid(svc payoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "payoutId"), "payoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payout, err := svc.MarkPaid(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, payout)
	}
}

// PayoutMarkManyPaid settles a batch; partial failures are reported, not fatal.
func PayoutMarkManyPaid(svc payoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload markManyPaidRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ids := make([]uuid.UUID, 0, len(payload.PayoutIDs))
		for _, raw := range payload.PayoutIDs {
			id, err := validators.ParsePathUUID(raw, "payout_ids")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			ids = append(ids, id)
		}

		result, err := svc.MarkManyPaid(r.Context(), ids)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := batchPaidResponse{
			PaidIDs:  make([]uuid.UUID, 0, len(result.Paid)),
			Failures: make([]batchPaidFailure, 0, len(result.Failed)),
		}
		for _, payout := range result.Paid {
			resp.PaidIDs = append(resp.PaidIDs, payout.ID)
		}
		for _, failure := range result.Failed {
			resp.Failures = append(resp.Failures, batchPaidFailure{
				PayoutID: failure.PayoutID,
				Error:    failure.Err.Error(),
			})
		}

		responses.WriteSuccess(w, resp)
	}
}

// PayoutSettle pays every pending payout for one supplier in one run.
func PayoutSettle(svc payoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload settleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		supplierID, err := validators.ParsePathUUID(payload.SupplierID, "supplier_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePayoutMethod(strings.TrimSpace(payload.Method))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payout method"))
			return
		}

		summary, err := svc.Settle(r.Context(), payoutsvc.SettleInput{
			SupplierID:    supplierID,
			Method:        method,
			PayeeEmail:    payload.PayeeEmail,
			BankAccount:   payload.BankAccount,
			AccountHolder: payload.AccountHolder,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, settlementResponse{
			SupplierID: summary.SupplierID,
			Method:     string(summary.Method),
			Count:      summary.Count,
			Total:      summary.Total,
			PaidAt:     summary.PaidAt,
		})
	}
}

// PayoutBalance reports a supplier's pending and lifetime earnings.
func PayoutBalance(svc payoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supplierID, err := validators.ParseQueryUUID(r, "supplier_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if supplierID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "supplier_id query parameter required"))
			return
		}

		report, err := svc.Balance(r.Context(), *supplierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, balanceResponse{
			SupplierID:      report.SupplierID,
			Pending:         report.Pending,
			Paid:            report.Paid,
			GrossSales:      report.GrossSales,
			CommissionTotal: report.CommissionTotal,
		})
	}
}
