// Package server exposes the checkout over HTTP: the JSON API used by
// external frontends and the server-rendered storefront pages.
package server

import (
	"expvar"
	"net/http"
	"time"

	"checkout-be/internal/callback"
	"checkout-be/internal/catalog"
	"checkout-be/internal/checkout"
	"checkout-be/internal/logger"
	mw "checkout-be/internal/middleware"
	"checkout-be/internal/metrics"
	"checkout-be/internal/payment"
	"checkout-be/internal/storefront"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const requestTimeout = 60 * time.Second

type Deps struct {
	Catalog        catalog.Catalog
	Gateway        payment.Gateway
	Currency       string
	AllowedOrigins []string
	Limiter        *mw.RateLimiter
}

type Server struct {
	catalog  catalog.Catalog
	gateway  payment.Gateway
	checkout checkout.Service
	verifier *callback.Verifier
	pages    *storefront.Pages
	limiter  *mw.RateLimiter
	currency string
	origins  []string
}

func New(d Deps) *Server {
	return &Server{
		catalog:  d.Catalog,
		gateway:  d.Gateway,
		checkout: checkout.NewService(d.Catalog, d.Gateway, d.Currency),
		verifier: callback.NewVerifier(d.Gateway, d.Catalog, d.Currency),
		pages:    storefront.NewPages(),
		limiter:  d.Limiter,
		currency: d.Currency,
		origins:  d.AllowedOrigins,
	}
}

func (s *Server) Routes() http.Handler {
	metrics.Publish()

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", logger.RequestIDHeader},
		ExposedHeaders:   []string{logger.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", s.healthHandler)
	r.Get("/debug/vars", expvar.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", s.productsHandler)
		r.Route("/paystack", func(r chi.Router) {
			r.Use(s.rateLimit)
			r.Post("/initialize", s.initializeHandler)
			r.Get("/verify", s.verifyHandler)
		})
	})

	r.Get("/", s.indexHandler)
	r.With(s.rateLimit).Post("/checkout", s.checkoutHandler)
	r.Get("/payment/callback", s.callbackHandler)

	return r
}

// rateLimit guards the routes that reach the payment provider.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return s.limiter.Middleware(next)
}
