package stripe

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
	stripeapi "github.com/stripe/stripe-go/v81"
	stripeclient "github.com/stripe/stripe-go/v81/client"
	"go.vocdoni.io/dvote/log"
)

// listPageSize is the page size requested on list calls, the maximum Stripe
// accepts. The iterators keep fetching pages until the collection is exhausted.
const listPageSize = 100

// Client implements Gateway on top of the Stripe API. Each Client owns its
// own API key and backends, so several clients with different credentials can
// live in the same process.
type Client struct {
	config *Config
	api    *stripeclient.API
}

var _ Gateway = (*Client)(nil)

// NewClient creates a new Stripe client with the given configuration
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	backendConfig := &stripeapi.BackendConfig{
		HTTPClient:    &http.Client{Timeout: timeout},
		LeveledLogger: leveledLogger{},
		// upstream failures are reported to the caller, never retried
		MaxNetworkRetries: stripeapi.Int64(0),
	}
	if config.APIURL != "" {
		backendConfig.URL = stripeapi.String(config.APIURL)
	}
	api := &stripeclient.API{}
	api.Init(config.APIKey, stripeapi.NewBackendsWithConfig(backendConfig))
	return &Client{
		config: config,
		api:    api,
	}, nil
}

// ListProducts retrieves every product of the account
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	params := &stripeapi.ProductListParams{}
	params.Context = ctx
	params.Limit = stripeapi.Int64(listPageSize)

	var products []Product
	i := c.api.Products.List(params)
	for i.Next() {
		p := i.Product()
		products = append(products, Product{ID: p.ID, Name: p.Name})
	}
	if err := i.Err(); err != nil {
		return nil, NewStripeError(ErrAPICallFailed.Code, "failed to list products", err)
	}
	return products, nil
}

// ListPrices retrieves every price of the account, whatever product it
// belongs to.
func (c *Client) ListPrices(ctx context.Context) ([]Price, error) {
	params := &stripeapi.PriceListParams{}
	params.Context = ctx
	params.Limit = stripeapi.Int64(listPageSize)

	var prices []Price
	i := c.api.Prices.List(params)
	for i.Next() {
		p := i.Price()
		prices = append(prices, Price{
			ID:         p.ID,
			UnitAmount: decimal.NewFromFloat(p.UnitAmountDecimal),
		})
	}
	if err := i.Err(); err != nil {
		return nil, NewStripeError(ErrAPICallFailed.Code, "failed to list prices", err)
	}
	return prices, nil
}

// CreatePrice creates a price for the given product. When params.Monthly is
// set the price recurs every month.
func (c *Client) CreatePrice(ctx context.Context, params *PriceParams) (string, error) {
	priceParams := &stripeapi.PriceParams{
		Currency:          stripeapi.String(params.Currency),
		Product:           stripeapi.String(params.ProductID),
		UnitAmountDecimal: stripeapi.Float64(params.Amount.InexactFloat64()),
	}
	if params.Monthly {
		priceParams.Recurring = &stripeapi.PriceRecurringParams{
			Interval: stripeapi.String(string(stripeapi.PriceRecurringIntervalMonth)),
		}
	}
	priceParams.Context = ctx

	price, err := c.api.Prices.New(priceParams)
	if err != nil {
		return "", NewStripeError(ErrAPICallFailed.Code, "failed to create price", err)
	}
	return price.ID, nil
}

// ListCustomers retrieves every customer of the account
func (c *Client) ListCustomers(ctx context.Context) ([]Customer, error) {
	params := &stripeapi.CustomerListParams{}
	params.Context = ctx
	params.Limit = stripeapi.Int64(listPageSize)

	var customers []Customer
	i := c.api.Customers.List(params)
	for i.Next() {
		cus := i.Customer()
		customers = append(customers, Customer{ID: cus.ID, Email: cus.Email})
	}
	if err := i.Err(); err != nil {
		return nil, NewStripeError(ErrAPICallFailed.Code, "failed to list customers", err)
	}
	return customers, nil
}

// CreateCustomer creates a customer with the given name and email
func (c *Client) CreateCustomer(ctx context.Context, name, email string) (string, error) {
	params := &stripeapi.CustomerParams{
		Name:  stripeapi.String(name),
		Email: stripeapi.String(email),
	}
	params.Context = ctx

	customer, err := c.api.Customers.New(params)
	if err != nil {
		return "", NewStripeError(ErrAPICallFailed.Code, "failed to create customer", err)
	}
	return customer.ID, nil
}

// CreateCheckoutSession creates a one-time payment checkout session for a
// single unit of the given price, paid by card.
// API description https://docs.stripe.com/api/checkout/sessions
func (c *Client) CreateCheckoutSession(ctx context.Context, params *CheckoutParams) (string, error) {
	checkoutParams := &stripeapi.CheckoutSessionParams{
		Mode:               stripeapi.String(string(stripeapi.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripeapi.StringSlice([]string{"card"}),
		LineItems: []*stripeapi.CheckoutSessionLineItemParams{
			{
				Price:    stripeapi.String(params.PriceID),
				Quantity: stripeapi.Int64(1),
			},
		},
		SuccessURL: stripeapi.String(params.SuccessURL),
		CancelURL:  stripeapi.String(params.CancelURL),
	}
	checkoutParams.Context = ctx

	session, err := c.api.CheckoutSessions.New(checkoutParams)
	if err != nil {
		return "", NewStripeError(ErrAPICallFailed.Code, "failed to create checkout session", err)
	}
	return string(session.PaymentStatus), nil
}

// CreateSubscription subscribes the customer to the given price
func (c *Client) CreateSubscription(ctx context.Context, priceID, customerID string) (string, error) {
	params := &stripeapi.SubscriptionParams{
		Customer: stripeapi.String(customerID),
		Items: []*stripeapi.SubscriptionItemsParams{
			{Price: stripeapi.String(priceID)},
		},
	}
	params.Context = ctx

	subscription, err := c.api.Subscriptions.New(params)
	if err != nil {
		return "", NewStripeError(ErrAPICallFailed.Code, "failed to create subscription", err)
	}
	return string(subscription.Status), nil
}

// leveledLogger routes the stripe-go internal logs to the service logger.
type leveledLogger struct{}

func (leveledLogger) Debugf(format string, v ...any) { log.Debugf("stripe: "+format, v...) }
func (leveledLogger) Infof(format string, v ...any)  { log.Debugf("stripe: "+format, v...) }
func (leveledLogger) Warnf(format string, v ...any)  { log.Warnf("stripe: "+format, v...) }
func (leveledLogger) Errorf(format string, v ...any) { log.Errorf("stripe: "+format, v...) }
