package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gamevault/gamevault-backend/api/controllers"
	"github.com/gamevault/gamevault-backend/api/middleware"
	"github.com/gamevault/gamevault-backend/internal/listings"
	"github.com/gamevault/gamevault-backend/internal/payouts"
	"github.com/gamevault/gamevault-backend/internal/platformledger"
	"github.com/gamevault/gamevault-backend/internal/purchases"
	"github.com/gamevault/gamevault-backend/internal/users"
	"github.com/gamevault/gamevault-backend/pkg/config"
	"github.com/gamevault/gamevault-backend/pkg/logger"
	"github.com/gamevault/gamevault-backend/pkg/storage"
)

type dbPinger interface {
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP dbPinger,
	userService users.Service,
	listingService listings.Service,
	purchaseService purchases.Service,
	payoutService payouts.Service,
	ledgerService platformledger.Service,
	objectStore storage.ObjectStore,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/", controllers.UserRegister(userService, logg))
			r.Get("/{userId}", controllers.UserDetail(userService, logg))
			r.Patch("/{userId}", controllers.UserUpdate(userService, logg))
			r.Patch("/{userId}/status", controllers.UserSetActive(userService, logg))
			r.Delete("/{userId}", controllers.UserDelete(userService, logg))
		})

		r.Route("/listings", func(r chi.Router) {
			r.Post("/", controllers.ListingPublish(listingService, logg))
			r.Get("/", controllers.ListingCatalog(listingService, logg))
			r.Get("/{listingId}", controllers.ListingDetail(listingService, logg))
			r.Patch("/{listingId}", controllers.ListingUpdate(listingService, logg))
			r.Patch("/{listingId}/status", controllers.ListingSetStatus(listingService, logg))
			r.Post("/{listingId}/artifacts", controllers.ListingUploadArtifact(listingService, objectStore, logg))
		})

		r.Route("/purchases", func(r chi.Router) {
			r.Post("/", controllers.PurchaseCreate(purchaseService, logg))
			r.Get("/library", controllers.PurchaseLibrary(purchaseService, logg))
			r.Get("/sales-report", controllers.PurchaseSalesReport(purchaseService, logg))
			r.Get("/{purchaseId}", controllers.PurchaseDetail(purchaseService, logg))
			r.Post("/{purchaseId}/complete", controllers.PurchaseComplete(purchaseService, logg))
			r.Post("/{purchaseId}/refund", controllers.PurchaseRefund(purchaseService, logg))
		})

		r.Route("/payouts", func(r chi.Router) {
			r.Get("/", controllers.PayoutList(payoutService, logg))
			r.Get("/balance", controllers.PayoutBalance(payoutService, logg))
			r.Post("/mark-paid", controllers.PayoutMarkManyPaid(payoutService, logg))
			r.Post("/settle", controllers.PayoutSettle(payoutService, logg))
			r.Post("/{payoutId}/mark-paid", controllers.PayoutMarkPaid(payoutService, logg))
		})

		r.Route("/platform", func(r chi.Router) {
			r.Get("/transactions", controllers.PlatformTransactions(ledgerService, logg))
			r.Get("/income", controllers.PlatformIncome(ledgerService, logg))
		})
	})

	return r
}
