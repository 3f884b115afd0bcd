package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hoangle-dev/storefront/internal/account"
	"github.com/hoangle-dev/storefront/internal/auth"
	"github.com/hoangle-dev/storefront/internal/cart"
	"github.com/hoangle-dev/storefront/internal/checkout"
	"github.com/hoangle-dev/storefront/internal/httpx"
	"github.com/hoangle-dev/storefront/internal/order"
	"github.com/hoangle-dev/storefront/internal/pricing"
	"github.com/hoangle-dev/storefront/internal/product"
)

func NewRouter(pool *pgxpool.Pool, pricingCfg pricing.Config) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	accountRepo := account.NewRepository(pool)
	productRepo := product.NewRepository(pool)
	cartRepo := cart.NewRepository(pool)
	orderRepo := order.NewRepository(pool)

	accountSvc := account.NewService(accountRepo)
	productSvc := product.NewService(productRepo)
	cartSvc := cart.NewService(cartRepo, productRepo, pricingCfg)
	orderSvc := order.NewService(orderRepo, accountRepo)
	checkoutSvc := checkout.NewService(cartRepo, productRepo, orderRepo, pricingCfg)

	reject := auth.RejectFunc(httpx.RespondMessage)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.RequireActor(reject))

		r.Mount("/accounts", account.NewHandler(accountSvc).Routes())
		r.Mount("/products", product.NewHandler(productSvc).Routes())
		r.Mount("/orders", order.NewHandler(orderSvc).Routes())

		// Only customers own carts; back-office and shipper roles have no
		// shopping surface.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(reject, auth.RoleCustomer))
			r.Mount("/cart", cart.NewHandler(cartSvc).Routes())
			r.Mount("/checkout", checkout.NewHandler(checkoutSvc).Routes())
		})
	})

	return r
}
