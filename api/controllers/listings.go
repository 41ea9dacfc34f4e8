package controllers

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/gamevault/gamevault-backend/api/responses"
	"github.com/gamevault/gamevault-backend/api/validators"
	listingsvc "github.com/gamevault/gamevault-backend/internal/listings"
	pkgerrors "github.com/gamevault/gamevault-backend/pkg/errors"
	"github.com/gamevault/gamevault-backend/pkg/logger"
	"github.com/gamevault/gamevault-backend/pkg/storage"
)

type publishListingRequest struct {
	SupplierID  string           `json:"supplier_id" validate:"required,uuid"`
	Title       string           `json:"title" validate:"required"`
	Description string           `json:"description,omitempty"`
	Price       decimal.Decimal  `json:"price" validate:"required"`
	Category    string           `json:"category,omitempty"`
	ListingFee  *decimal.Decimal `json:"listing_fee,omitempty"`
}

type updateListingRequest struct {
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Category    *string          `json:"category,omitempty"`
}

// ListingPublish creates an active listing and charges the flat publication fee.
func ListingPublish(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload publishListingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		supplierID, err := validators.ParsePathUUID(payload.SupplierID, "supplier_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.Publish(r.Context(), listingsvc.PublishInput{
			SupplierID:  supplierID,
			Title:       payload.Title,
			Description: payload.Description,
			Price:       payload.Price,
			Category:    payload.Category,
			ListingFee:  payload.ListingFee,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, listing)
	}
}

// ListingCatalog returns active listings; q and category filter the result.
func ListingCatalog(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supplierID, err := validators.ParseQueryUUID(r, "supplier_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if supplierID != nil {
			listings, err := svc.ListBySupplier(r.Context(), *supplierID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, listings)
			return
		}

		term := r.URL.Query().Get("q")
		category := r.URL.Query().Get("category")

		if term == "" && category == "" {
			catalog, err := svc.Catalog(r.Context())
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, catalog)
			return
		}

		results, err := svc.Search(r.Context(), term, category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, results)
	}
}

func ListingDetail(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "listingId"), "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listing)
	}
}

func ListingUpdate(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "listingId"), "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateListingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.Update(r.Context(), id, listingsvc.UpdateInput{
			Title:       payload.Title,
			Description: payload.Description,
			Price:       payload.Price,
			Category:    payload.Category,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listing)
	}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// ListingUploadArtifact streams the request body into the object store and
// attaches the resulting URL to the listing. kind selects which slot the
// artifact fills: cover, promo, or download (the default).
func ListingUploadArtifact(svc listingsvc.Service, store storage.ObjectStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "listingId"), "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		name := strings.TrimSpace(r.URL.Query().Get("name"))
		if name == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "name query parameter required"))
			return
		}
		kind := strings.TrimSpace(r.URL.Query().Get("kind"))
		if kind == "" {
			kind = "download"
		}

		// The listing must exist before anything lands on disk.
		if _, err := svc.GetByID(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		body := &countingReader{r: r.Body}
		url, err := store.Upload(r.Context(), "listings/"+id.String(), name, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store artifact"))
			return
		}

		var media listingsvc.MediaInput
		switch kind {
		case "cover":
			media.CoverImageURL = &url
		case "promo":
			media.PromoVideoURL = &url
		case "download":
			media.DownloadURL = &url
			media.FileName = &name
			media.FileSizeBytes = &body.n
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "kind must be cover, promo, or download"))
			return
		}

		if err := svc.UpdateMedia(r.Context(), id, media); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"url": url, "size_bytes": body.n})
	}
}

func ListingSetStatus(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "listingId"), "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setActiveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetActive(r.Context(), id, *payload.Active); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"active": *payload.Active})
	}
}
