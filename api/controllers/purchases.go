package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/gamevault/gamevault-backend/api/responses"
	"github.com/gamevault/gamevault-backend/api/validators"
	purchasesvc "github.com/gamevault/gamevault-backend/internal/purchases"
	pkgerrors "github.com/gamevault/gamevault-backend/pkg/errors"
	"github.com/gamevault/gamevault-backend/pkg/logger"
)

type createPurchaseRequest struct {
	BuyerID       string          `json:"buyer_id" validate:"required,uuid"`
	ListingID     string          `json:"listing_id" validate:"required,uuid"`
	PricePaid     decimal.Decimal `json:"price_paid,omitempty"`
	PaymentMethod string          `json:"payment_method" validate:"required"`
	ExternalRef   *string         `json:"external_ref,omitempty"`
}

// PurchaseCreate opens a pending purchase at the listing's current price.
func PurchaseCreate(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createPurchaseRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		buyerID, err := validators.ParsePathUUID(payload.BuyerID, "buyer_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listingID, err := validators.ParsePathUUID(payload.ListingID, "listing_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		purchase, err := svc.Create(r.Context(), purchasesvc.CreateInput{
			BuyerID:       buyerID,
			ListingID:     listingID,
			PricePaid:     payload.PricePaid,
			PaymentMethod: payload.PaymentMethod,
			ExternalRef:   payload.ExternalRef,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, purchase)
	}
}

// PurchaseComplete settles payment and fans out both revenue-split sides.
func PurchaseComplete(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "purchaseId"), "purchaseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		purchase, err := svc.Complete(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, purchase)
	}
}

// PurchaseRefund always reports the operation as unavailable.
func PurchaseRefund(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "purchaseId"), "purchaseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.Refund(r.Context(), id)
		responses.WriteError(r.Context(), logg, w, err)
	}
}

func PurchaseDetail(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "purchaseId"), "purchaseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		purchase, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, purchase)
	}
}

// PurchaseLibrary lists the buyer's completed purchases.
func PurchaseLibrary(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := validators.ParseQueryUUID(r, "buyer_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if buyerID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "buyer_id query parameter required"))
			return
		}

		library, err := svc.Library(r.Context(), *buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, library)
	}
}

// PurchaseSalesReport aggregates completed sales, optionally per supplier.
func PurchaseSalesReport(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supplierID, err := validators.ParseQueryUUID(r, "supplier_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.SalesReport(r.Context(), supplierID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}
