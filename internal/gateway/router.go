package gateway

import (
	"net/http"
	"time"

	"github.com/boostgg/storefront/internal/domain"
	"github.com/boostgg/storefront/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Cart        *CartHandler
	Checkout    *CheckoutHandler
	Products    *ProductHandler
	Auth        *AuthHandler
	Orders      *OrdersHandler
	Admin       *AdminHandler
	Skillmaster *SkillmasterHandler
}

func NewRouter(h Handlers, sessions *session.Store, requestTimeout time.Duration) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public catalog and auth entry points
		r.Get("/products", h.Products.ListProducts)
		r.Get("/products/{id}", h.Products.GetProduct)
		r.Get("/platforms", h.Products.ListPlatforms)
		r.Get("/categories", h.Products.ListCategories)

		r.Post("/auth/register", h.Auth.Register)
		r.Post("/auth/login", h.Auth.Login)
		r.Post("/auth/logout", h.Auth.Logout)
		r.Post("/auth/forgot-password", h.Auth.ForgotPassword)
		r.Post("/auth/reset-password", h.Auth.ResetPassword)

		// Everything below needs a session
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(sessions))

			r.Get("/auth/me", h.Auth.Me)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.GetCart)
				r.Delete("/", h.Cart.ClearCart)
				r.Post("/items", h.Cart.AddItem)
				r.Put("/items/{product_id}", h.Cart.UpdateQuantity)
				r.Delete("/items/{product_id}", h.Cart.RemoveItem)
			})

			r.Post("/checkout", h.Checkout.Initiate)
			r.Get("/checkout/callback", h.Checkout.Callback)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.Orders.ListOrders)
				r.Get("/{order_id}", h.Orders.GetOrder)
			})

			r.Route("/skillmaster", func(r chi.Router) {
				r.Use(RequireRole(domain.RoleSkillmaster))
				r.Get("/board", h.Skillmaster.ListBoard)
				r.Post("/board/{order_id}/claim", h.Skillmaster.ClaimOrder)
				r.Post("/board/{order_id}/accept", h.Skillmaster.AcceptOrder)
				r.Post("/board/{order_id}/release", h.Skillmaster.ReleaseOrder)
				r.Post("/orders/{order_id}/complete", h.Skillmaster.CompleteOrder)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireRole(domain.RoleAdmin))
				r.Get("/orders", h.Admin.ListOrders)
				r.Put("/orders/{order_id}/status", h.Admin.UpdateStatus)
				r.Post("/orders/{order_id}/assign", h.Admin.AssignOrder)
				r.Delete("/orders/{order_id}", h.Admin.DeleteOrder)
				r.Get("/users", h.Admin.ListUsers)
			})
		})
	})

	return r
}
