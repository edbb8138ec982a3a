// Package checkout implements the billing flow: it resolves (or creates) the
// Stripe price and customer matching a billing intent and then charges the
// customer once through a checkout session or monthly through a subscription.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vocdoni/stripe-checkout/stripe"
	"go.vocdoni.io/dvote/log"
)

// Default values of Config.
const (
	DefaultCurrency   = "usd"
	DefaultSuccessURL = "https://example.com/success"
	DefaultCancelURL  = "https://example.com/cancel"
)

// Step identifies one upstream operation of the billing flow.
type Step string

const (
	StepFindProduct        Step = "find_product"
	StepFindPrice          Step = "find_price"
	StepCreatePrice        Step = "create_price"
	StepFindCustomer       Step = "find_customer"
	StepCreateCustomer     Step = "create_customer"
	StepCreateCheckout     Step = "create_checkout_session"
	StepCreateSubscription Step = "create_subscription"
)

// StepError records why a step of the flow did not produce a value. Err is
// stripe.ErrNotFound when a lookup found nothing, or the upstream error when
// the call failed.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Config holds the fixed parameters of the billing flow.
type Config struct {
	Currency   string
	SuccessURL string
	CancelURL  string
}

// Result is the outcome of processing an intent. Ids are empty when they
// could not be resolved; the reason is listed in Failures.
type Result struct {
	Monthly            bool
	ProductID          string
	PriceID            string
	PriceCreated       bool
	CustomerID         string
	CustomerCreated    bool
	PaymentStatus      string
	SubscriptionStatus string
	Failures           []*StepError
}

// Status returns the status reported to the caller: the subscription status
// for monthly billing and the checkout payment status otherwise. It is empty
// when billing was skipped or failed.
func (r *Result) Status() string {
	if r.Monthly {
		return r.SubscriptionStatus
	}
	return r.PaymentStatus
}

// Failed returns the error recorded for the given step, or nil.
func (r *Result) Failed(step Step) error {
	for _, f := range r.Failures {
		if f.Step == step {
			return f
		}
	}
	return nil
}

func (r *Result) fail(step Step, err error) {
	r.Failures = append(r.Failures, &StepError{Step: step, Err: err})
	if errors.Is(err, stripe.ErrNotFound) {
		log.Debugw("checkout step found nothing", "step", step, "reason", err.Error())
		return
	}
	log.Warnw("checkout step failed", "step", step, "error", err.Error())
}

// Service runs the billing flow against a Stripe gateway. It keeps no state
// between calls and is safe for concurrent use as long as the gateway is.
type Service struct {
	gateway stripe.Gateway
	config  Config
}

// New creates a new checkout Service. Empty config fields take the package
// defaults.
func New(gateway stripe.Gateway, conf Config) *Service {
	if conf.Currency == "" {
		conf.Currency = DefaultCurrency
	}
	if conf.SuccessURL == "" {
		conf.SuccessURL = DefaultSuccessURL
	}
	if conf.CancelURL == "" {
		conf.CancelURL = DefaultCancelURL
	}
	return &Service{
		gateway: gateway,
		config:  conf,
	}
}

// Process runs the billing flow for the intent, one upstream call at a time:
//
//  1. resolve the product id by name
//  2. resolve the price id by amount, creating the price if none matches
//  3. resolve the customer id by email, creating the customer if none matches
//  4. create a subscription (monthly) or a one-time checkout session
//
// If no price is available steps 3 and 4 are skipped. Upstream failures do not
// stop the flow, they are recorded in the result and the flow goes on with
// whatever it could resolve.
func (s *Service) Process(ctx context.Context, intent *Intent) *Result {
	res := &Result{Monthly: intent.Monthly}

	productID, err := s.findProductID(ctx, intent.ProductName)
	if err != nil {
		res.fail(StepFindProduct, err)
	}
	res.ProductID = productID

	priceID, err := s.findPriceID(ctx, intent)
	if err != nil {
		res.fail(StepFindPrice, err)
	}
	if priceID == "" {
		priceID, err = s.gateway.CreatePrice(ctx, &stripe.PriceParams{
			Amount:    intent.Price,
			ProductID: productID,
			Currency:  s.config.Currency,
			Monthly:   intent.Monthly,
		})
		if err != nil {
			res.fail(StepCreatePrice, err)
		} else {
			res.PriceCreated = true
			log.Infow("price created", "id", priceID, "product", productID,
				"amount", intent.Price.String(), "monthly", intent.Monthly)
		}
	}
	res.PriceID = priceID
	if priceID == "" {
		log.Warnw("no price available, skipping billing", "product", intent.ProductName,
			"amount", intent.Price.String())
		return res
	}

	customerID, err := s.findCustomerID(ctx, intent.CustomerEmail)
	if err != nil {
		res.fail(StepFindCustomer, err)
	}
	if customerID == "" {
		customerID, err = s.gateway.CreateCustomer(ctx, intent.CustomerName, intent.CustomerEmail)
		if err != nil {
			res.fail(StepCreateCustomer, err)
		} else {
			res.CustomerCreated = true
			log.Infow("customer created", "id", customerID, "email", intent.CustomerEmail)
		}
	}
	res.CustomerID = customerID

	if intent.Monthly {
		status, err := s.gateway.CreateSubscription(ctx, priceID, customerID)
		if err != nil {
			res.fail(StepCreateSubscription, err)
			return res
		}
		res.SubscriptionStatus = status
		log.Infow("subscription created", "price", priceID, "customer", customerID, "status", status)
		return res
	}
	status, err := s.gateway.CreateCheckoutSession(ctx, &stripe.CheckoutParams{
		PriceID:    priceID,
		SuccessURL: s.config.SuccessURL,
		CancelURL:  s.config.CancelURL,
	})
	if err != nil {
		res.fail(StepCreateCheckout, err)
		return res
	}
	res.PaymentStatus = status
	log.Infow("checkout session created", "price", priceID, "status", status)
	return res
}

// findProductID scans every product for a case-insensitive name match. The
// scan does not stop on the first match, the last matching product wins.
func (s *Service) findProductID(ctx context.Context, name string) (string, error) {
	products, err := s.gateway.ListProducts(ctx)
	if err != nil {
		return "", err
	}
	id := ""
	for _, p := range products {
		if strings.EqualFold(p.Name, name) {
			id = p.ID
			log.Debugw("product matched", "id", id, "name", p.Name)
		}
	}
	if id == "" {
		return "", stripe.NewStripeError(stripe.ErrNotFound.Code,
			fmt.Sprintf("no product named %q", name), nil)
	}
	return id, nil
}

// findPriceID scans every price for one whose unit amount equals the intent
// price. Amounts are compared as decimals, so 10 matches 10.00 but not 10.001.
// The last matching price wins.
func (s *Service) findPriceID(ctx context.Context, intent *Intent) (string, error) {
	prices, err := s.gateway.ListPrices(ctx)
	if err != nil {
		return "", err
	}
	id := ""
	for _, p := range prices {
		if p.UnitAmount.Equal(intent.Price) {
			id = p.ID
			log.Debugw("price matched", "id", id, "amount", p.UnitAmount.String())
		}
	}
	if id == "" {
		return "", stripe.NewStripeError(stripe.ErrNotFound.Code,
			fmt.Sprintf("no price with amount %s", intent.Price.String()), nil)
	}
	return id, nil
}

// findCustomerID scans every customer for a case-insensitive email match. The
// last matching customer wins. Customers without email never match, and an
// empty email is not looked up at all.
func (s *Service) findCustomerID(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", stripe.NewStripeError(stripe.ErrNotFound.Code, "no email to look up", nil)
	}
	customers, err := s.gateway.ListCustomers(ctx)
	if err != nil {
		return "", err
	}
	id := ""
	for _, cus := range customers {
		if cus.Email != "" && strings.EqualFold(cus.Email, email) {
			id = cus.ID
			log.Debugw("customer matched", "id", id, "email", cus.Email)
		}
	}
	if id == "" {
		return "", stripe.NewStripeError(stripe.ErrNotFound.Code,
			fmt.Sprintf("no customer with email %q", email), nil)
	}
	return id, nil
}
