package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Handlers struct {
	Products *ProductHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Orders   *OrdersHandler
}

// NewRouter wires the REST surface: catalog, cart, checkout and orders.
func NewRouter(h Handlers, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(MetricsMiddleware)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.Products.GetAll)
		r.Post("/", h.Products.Create)
		r.Get("/category/{category}", h.Products.GetByCategory)
		r.Get("/{id}", h.Products.GetByID)
		r.Put("/{id}", h.Products.Update)
		r.Patch("/{id}/stock", h.Products.UpdateStock)
		r.Delete("/{id}", h.Products.Delete)
	})

	r.Route("/cart/{userId}", func(r chi.Router) {
		r.Get("/", h.Cart.GetCart)
		r.Post("/add", h.Cart.AddItem)
		r.Post("/remove", h.Cart.RemoveItem)
		r.Delete("/", h.Cart.ClearCart)
	})

	r.Route("/checkout/{userId}", func(r chi.Router) {
		r.Post("/review", h.Checkout.Review)
		r.Post("/confirm", h.Checkout.Confirm)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.Orders.Create)
		r.Get("/", h.Orders.List)
		r.Get("/{id}", h.Orders.GetByID)
		r.Patch("/{id}/status", h.Orders.UpdateStatus)
	})

	r.Handle("/metrics", promhttp.Handler())

	return otelhttp.NewHandler(r, "storefront")
}
