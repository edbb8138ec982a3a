// Package api provides the HTTP API of the checkout service: a single
// endpoint that bills a customer for a product through Stripe and answers
// with the resulting payment status.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vocdoni/stripe-checkout/checkout"
	"github.com/vocdoni/stripe-checkout/validator"
	"go.vocdoni.io/dvote/log"
)

// requestTimeout bounds a whole checkout request, including every Stripe
// call it makes. When it expires the pending Stripe call is cancelled and the
// handler still answers with the degraded status.
const requestTimeout = 45 * time.Second

// Config holds the API server configuration.
type Config struct {
	Host string
	Port int
	// Checkout runs the billing flow for every request
	Checkout *checkout.Service
}

// API type represents the API HTTP server.
type API struct {
	host      string
	port      int
	checkout  *checkout.Service
	validator *validator.Validator
}

// New creates a new API HTTP server. It does not start the server. Use Start() for that.
func New(conf *Config) *API {
	if conf == nil || conf.Checkout == nil {
		return nil
	}
	return &API{
		host:      conf.Host,
		port:      conf.Port,
		checkout:  conf.Checkout,
		validator: validator.New(),
	}
}

// Start starts the API HTTP server (non blocking).
func (a *API) Start() {
	go func() {
		if err := http.ListenAndServe(fmt.Sprintf("%s:%d", a.host, a.port), a.initRouter()); err != nil {
			log.Fatalf("failed to start the API server: %v", err)
		}
	}()
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300, // Maximum value not ignored by any of major browsers
	}).Handler)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Throttle(100))
	r.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get(pingEndpoint, func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte(".")); err != nil {
			log.Warnw("failed to write ping response", "error", err)
		}
	})
	for _, path := range []string{rootEndpoint, checkoutEndpoint} {
		log.Infow("new route", "method", "GET", "path", path)
		r.Get(path, a.checkoutHandler)
		log.Infow("new route", "method", "POST", "path", path)
		r.Post(path, a.checkoutHandler)
	}
	return r
}
