package handlers

import (
	"net/http"

	"github.com/Lixing-Zhang/sweetheart-kart/internal/middleware"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/session"
	"github.com/go-chi/chi/v5"
)

// Routes groups everything the API router needs
type Routes struct {
	Health   *HealthHandler
	Dishes   *DishHandler
	Cart     *CartHandler
	Coupons  *CouponHandler
	Orders   *OrderHandler
	Sessions *session.Store

	// UploadLimiter throttles gesture uploads; nil disables throttling
	UploadLimiter *middleware.RateLimiter
}

// Register mounts the health check and the session-scoped /api routes on r
func (rt Routes) Register(r chi.Router) {
	r.Get("/health", rt.Health.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/dish", rt.Dishes.ListDishes)
		r.Get("/dish/{dishId}", rt.Dishes.GetDish)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(rt.Sessions))

			r.Get("/cart", rt.Cart.GetCart)
			r.Delete("/cart", rt.Cart.ClearCart)
			r.Post("/cart/items", rt.Cart.AddItem)
			r.Put("/cart/items/{dishId}", rt.Cart.SetQuantity)
			r.Delete("/cart/items/{dishId}", rt.Cart.RemoveItem)
			r.Put("/cart/coupon", rt.Cart.SelectCoupon)

			r.Get("/coupon", rt.Coupons.ListCoupons)
			r.Get("/coupon/verify/{submissionId}", rt.Coupons.GetSubmission)
			r.With(rt.uploadLimit).Post("/coupon/verify", rt.Coupons.Verify)

			r.Post("/order", rt.Orders.PlaceOrder)
		})
	})
}

func (rt Routes) uploadLimit(next http.Handler) http.Handler {
	if rt.UploadLimiter == nil {
		return next
	}
	return rt.UploadLimiter.Middleware(next)
}
