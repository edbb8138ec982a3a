// Package stripe provides the gateway to the Stripe payment platform used by
// the checkout flow: products, prices, customers, checkout sessions and
// subscriptions.
package stripe

import (
	"context"

	"github.com/shopspring/decimal"
)

// Product is the subset of a Stripe product used to resolve product ids.
type Product struct {
	ID   string
	Name string
}

// Price is the subset of a Stripe price used to resolve price ids.
// UnitAmount is the price unit_amount_decimal. stripe-go carries that field as
// a float64, so amounts beyond about 15 significant digits lose precision
// before they are compared.
type Price struct {
	ID         string
	UnitAmount decimal.Decimal
}

// Customer is the subset of a Stripe customer used to resolve customer ids.
type Customer struct {
	ID    string
	Email string
}

// PriceParams holds parameters for creating a price
type PriceParams struct {
	Amount    decimal.Decimal
	ProductID string
	Currency  string
	// Monthly attaches a monthly recurring interval to the price.
	Monthly bool
}

// CheckoutParams holds parameters for creating a one-time checkout session
type CheckoutParams struct {
	PriceID    string
	SuccessURL string
	CancelURL  string
}

// Gateway is the set of Stripe operations the checkout flow depends on. Every
// method performs a single upstream request (list calls may page through
// results) and returns a *StripeError on failure.
type Gateway interface {
	ListProducts(ctx context.Context) ([]Product, error)
	ListPrices(ctx context.Context) ([]Price, error)
	// CreatePrice returns the id of the new price.
	CreatePrice(ctx context.Context, params *PriceParams) (string, error)
	ListCustomers(ctx context.Context) ([]Customer, error)
	// CreateCustomer returns the id of the new customer.
	CreateCustomer(ctx context.Context, name, email string) (string, error)
	// CreateCheckoutSession returns the payment status of the new session.
	CreateCheckoutSession(ctx context.Context, params *CheckoutParams) (string, error)
	// CreateSubscription returns the status of the new subscription.
	CreateSubscription(ctx context.Context, priceID, customerID string) (string, error)
}
