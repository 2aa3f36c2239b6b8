package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kasuwahq/kasuwa-backend/api/controllers"
	"github.com/kasuwahq/kasuwa-backend/api/middleware"
	"github.com/kasuwahq/kasuwa-backend/internal/cart"
	"github.com/kasuwahq/kasuwa-backend/internal/catalog"
	"github.com/kasuwahq/kasuwa-backend/internal/invite"
	"github.com/kasuwahq/kasuwa-backend/internal/ledger"
	"github.com/kasuwahq/kasuwa-backend/internal/orders"
	"github.com/kasuwahq/kasuwa-backend/internal/otp"
	"github.com/kasuwahq/kasuwa-backend/internal/reviews"
	"github.com/kasuwahq/kasuwa-backend/internal/users"
	"github.com/kasuwahq/kasuwa-backend/pkg/config"
	"github.com/kasuwahq/kasuwa-backend/pkg/logger"
)

// RedisConn is the slice of the redis client the HTTP surface touches:
// idempotency records and the readiness probe.
type RedisConn interface {
	middleware.IdempotencyStore
	controllers.Pinger
}

// Deps bundles everything the HTTP surface needs. Registry may be nil when
// metrics are not wired (tests).
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    RedisConn
	Registry *prometheus.Registry

	Users   users.Service
	Catalog catalog.Service
	Cart    cart.Service
	Orders  orders.Service
	OTP     otp.Service
	Invites invite.Service
	Reviews reviews.Service
	Ledger  ledger.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/signup", controllers.UsersSignup(deps.Users, logg))

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/products", controllers.CatalogListProducts(deps.Catalog, logg))
			r.Get("/products/{productId}", controllers.CatalogGetProduct(deps.Catalog, logg))
			r.Get("/categories", controllers.CatalogListCategories(deps.Catalog, logg))
			r.Get("/brands", controllers.CatalogListBrands(deps.Catalog, logg))
		})
		r.Get("/products/{productId}/reviews", controllers.ReviewsListByProduct(deps.Reviews, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(deps.Redis, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(deps.Cart, logg))
				r.Delete("/", controllers.CartClear(deps.Cart, logg))
				r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
				r.Put("/items/{productId}", controllers.CartUpdateItem(deps.Cart, logg))
				r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.Cart, logg))
			})

			r.Post("/checkout", controllers.OrdersCheckout(deps.Orders, logg))
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrdersList(deps.Orders, logg))
				r.Get("/payment/verify", controllers.OrdersVerifyPayment(deps.Orders, logg))
				r.Get("/{orderId}", controllers.OrdersGet(deps.Orders, logg))
			})

			r.Route("/me", func(r chi.Router) {
				r.Get("/profile", controllers.UsersGetProfile(deps.Users, logg))
				r.Put("/profile", controllers.UsersUpdateProfile(deps.Users, logg))
				r.Get("/addresses", controllers.UsersListAddresses(deps.Users, logg))
				r.Post("/addresses", controllers.UsersAddAddress(deps.Users, logg))
				r.Delete("/addresses/{addressId}", controllers.UsersDeleteAddress(deps.Users, logg))
			})

			r.Route("/otp", func(r chi.Router) {
				r.Post("/request", controllers.OTPRequest(deps.OTP, deps.Users, logg))
				r.Post("/confirm", controllers.OTPConfirm(deps.OTP, logg))
			})

			r.Route("/invitations", func(r chi.Router) {
				r.Get("/", controllers.InvitationsList(deps.Invites, logg))
				r.Post("/", controllers.InvitationsCreate(deps.Invites, logg))
			})

			r.Post("/products/{productId}/reviews", controllers.ReviewsCreate(deps.Reviews, logg))

			r.Get("/transactions", controllers.TransactionsList(deps.Ledger, logg))
		})
	})

	return r
}
