package checkout

import (
	"context"
	"errors"
	"os"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/shopspring/decimal"
	"github.com/vocdoni/stripe-checkout/stripe"
	"go.vocdoni.io/dvote/log"
)

func TestMain(m *testing.M) {
	log.Init("debug", "stdout", nil)
	os.Exit(m.Run())
}

var errUpstream = stripe.NewStripeError(stripe.ErrAPICallFailed.Code, "boom", errors.New("connection refused"))

// fakeGateway is an in-memory stripe.Gateway. Every *Err field makes the
// matching call fail, and the created resources are recorded.
type fakeGateway struct {
	products  []stripe.Product
	prices    []stripe.Price
	customers []stripe.Customer

	listProductsErr       error
	listPricesErr         error
	createPriceErr        error
	listCustomersErr      error
	createCustomerErr     error
	createCheckoutErr     error
	createSubscriptionErr error

	paymentStatus      string
	subscriptionStatus string

	createdPrices    []*stripe.PriceParams
	createdCustomers []stripe.Customer
	checkouts        []*stripe.CheckoutParams
	subscriptions    [][2]string
	calls            []string
}

func (f *fakeGateway) ListProducts(context.Context) ([]stripe.Product, error) {
	f.calls = append(f.calls, "ListProducts")
	return f.products, f.listProductsErr
}

func (f *fakeGateway) ListPrices(context.Context) ([]stripe.Price, error) {
	f.calls = append(f.calls, "ListPrices")
	return f.prices, f.listPricesErr
}

func (f *fakeGateway) CreatePrice(_ context.Context, params *stripe.PriceParams) (string, error) {
	f.calls = append(f.calls, "CreatePrice")
	if f.createPriceErr != nil {
		return "", f.createPriceErr
	}
	f.createdPrices = append(f.createdPrices, params)
	return "price_new", nil
}

func (f *fakeGateway) ListCustomers(context.Context) ([]stripe.Customer, error) {
	f.calls = append(f.calls, "ListCustomers")
	return f.customers, f.listCustomersErr
}

func (f *fakeGateway) CreateCustomer(_ context.Context, name, email string) (string, error) {
	f.calls = append(f.calls, "CreateCustomer")
	if f.createCustomerErr != nil {
		return "", f.createCustomerErr
	}
	f.createdCustomers = append(f.createdCustomers, stripe.Customer{ID: name, Email: email})
	return "cus_new", nil
}

func (f *fakeGateway) CreateCheckoutSession(_ context.Context, params *stripe.CheckoutParams) (string, error) {
	f.calls = append(f.calls, "CreateCheckoutSession")
	if f.createCheckoutErr != nil {
		return "", f.createCheckoutErr
	}
	f.checkouts = append(f.checkouts, params)
	return f.paymentStatus, nil
}

func (f *fakeGateway) CreateSubscription(_ context.Context, priceID, customerID string) (string, error) {
	f.calls = append(f.calls, "CreateSubscription")
	if f.createSubscriptionErr != nil {
		return "", f.createSubscriptionErr
	}
	f.subscriptions = append(f.subscriptions, [2]string{priceID, customerID})
	return f.subscriptionStatus, nil
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		products: []stripe.Product{
			{ID: "prod_widget", Name: "Widget"},
			{ID: "prod_gadget", Name: "Gadget"},
		},
		prices: []stripe.Price{
			{ID: "price_10", UnitAmount: decimal.RequireFromString("10")},
			{ID: "price_10_001", UnitAmount: decimal.RequireFromString("10.001")},
		},
		customers: []stripe.Customer{
			{ID: "cus_jane", Email: "jane@example.com"},
		},
		paymentStatus:      "unpaid",
		subscriptionStatus: "incomplete",
	}
}

func testIntent(price string, monthly bool) *Intent {
	return &Intent{
		ProductName:   "widget",
		Price:         decimal.RequireFromString(price),
		CustomerName:  "Jane",
		CustomerEmail: "Jane@Example.com",
		Monthly:       monthly,
	}
}

func TestProcessOneTime(t *testing.T) {
	c := qt.New(t)
	gw := newFakeGateway()

	res := New(gw, Config{}).Process(context.Background(), testIntent("10.00", false))

	c.Assert(res.Failures, qt.HasLen, 0)
	c.Assert(res.ProductID, qt.Equals, "prod_widget")
	c.Assert(res.PriceID, qt.Equals, "price_10")
	c.Assert(res.PriceCreated, qt.IsFalse)
	c.Assert(res.CustomerID, qt.Equals, "cus_jane")
	c.Assert(res.CustomerCreated, qt.IsFalse)
	c.Assert(res.Status(), qt.Equals, "unpaid")
	c.Assert(gw.calls, qt.DeepEquals, []string{
		"ListProducts", "ListPrices", "ListCustomers", "CreateCheckoutSession",
	})
	c.Assert(gw.checkouts, qt.DeepEquals, []*stripe.CheckoutParams{{
		PriceID:    "price_10",
		SuccessURL: DefaultSuccessURL,
		CancelURL:  DefaultCancelURL,
	}})
}

func TestProcessMonthlyReportsSubscriptionStatus(t *testing.T) {
	c := qt.New(t)
	gw := newFakeGateway()

	res := New(gw, Config{}).Process(context.Background(), testIntent("10", true))

	c.Assert(res.Failures, qt.HasLen, 0)
	c.Assert(res.SubscriptionStatus, qt.Equals, "incomplete")
	c.Assert(res.PaymentStatus, qt.Equals, "")
	c.Assert(res.Status(), qt.Equals, "incomplete")
	c.Assert(gw.subscriptions, qt.DeepEquals, [][2]string{{"price_10", "cus_jane"}})
	c.Assert(gw.checkouts, qt.HasLen, 0)
}

func TestPriceMatchingIsExactDecimal(t *testing.T) {
	c := qt.New(t)

	for _, tc := range []struct {
		price string
		want  string
	}{
		{"10", "price_10"},
		{"10.00", "price_10"},
		{"10.0010", "price_10_001"},
	} {
		gw := newFakeGateway()
		res := New(gw, Config{}).Process(context.Background(), testIntent(tc.price, false))
		c.Assert(res.PriceID, qt.Equals, tc.want, qt.Commentf("price %s", tc.price))
		c.Assert(gw.createdPrices, qt.HasLen, 0)
	}

	// 10.00 must not match a stored 10.001
	gw := newFakeGateway()
	gw.prices = gw.prices[1:]
	res := New(gw, Config{}).Process(context.Background(), testIntent("10.00", false))
	c.Assert(res.PriceCreated, qt.IsTrue)
	c.Assert(res.PriceID, qt.Equals, "price_new")
	c.Assert(errors.Is(res.Failed(StepFindPrice), stripe.ErrNotFound), qt.IsTrue)
}

func TestLastMatchWins(t *testing.T) {
	c := qt.New(t)
	gw := newFakeGateway()
	gw.products = append(gw.products, stripe.Product{ID: "prod_widget_2", Name: "WIDGET"})
	gw.prices = append(gw.prices, stripe.Price{ID: "price_10_b", UnitAmount: decimal.RequireFromString("10.00")})
	gw.customers = append(gw.customers,
		stripe.Customer{ID: "cus_other", Email: "other@example.com"},
		stripe.Customer{ID: "cus_jane_2", Email: "JANE@example.com"},
	)

	res := New(gw, Config{}).Process(context.Background(), testIntent("10", false))
	c.Assert(res.ProductID, qt.Equals, "prod_widget_2")
	c.Assert(res.PriceID, qt.Equals, "price_10_b")
	c.Assert(res.CustomerID, qt.Equals, "cus_jane_2")
}

func TestCreatePriceWhenMissing(t *testing.T) {
	c := qt.New(t)

	for _, monthly := range []bool{false, true} {
		gw := newFakeGateway()
		res := New(gw, Config{Currency: "eur"}).Process(context.Background(), testIntent("42.50", monthly))

		c.Assert(res.PriceCreated, qt.IsTrue)
		c.Assert(res.PriceID, qt.Equals, "price_new")
		c.Assert(gw.createdPrices, qt.HasLen, 1)
		created := gw.createdPrices[0]
		c.Assert(created.ProductID, qt.Equals, "prod_widget")
		c.Assert(created.Currency, qt.Equals, "eur")
		c.Assert(created.Monthly, qt.Equals, monthly)
		c.Assert(created.Amount.Equal(decimal.RequireFromString("42.5")), qt.IsTrue)
	}
}

func TestCreateCustomerWhenMissing(t *testing.T) {
	c := qt.New(t)
	gw := newFakeGateway()
	intent := testIntent("10", false)
	intent.CustomerEmail = "new@example.com"

	res := New(gw, Config{}).Process(context.Background(), intent)
	c.Assert(res.CustomerCreated, qt.IsTrue)
	c.Assert(res.CustomerID, qt.Equals, "cus_new")
	c.Assert(gw.createdCustomers, qt.DeepEquals, []stripe.Customer{{ID: "Jane", Email: "new@example.com"}})

	// customers without email never match an empty email
	gw = newFakeGateway()
	gw.customers = append(gw.customers, stripe.Customer{ID: "cus_noemail"})
	intent.CustomerEmail = ""
	res = New(gw, Config{}).Process(context.Background(), intent)
	c.Assert(res.CustomerID, qt.Equals, "cus_new")
	c.Assert(gw.calls, qt.Not(qt.Contains), "ListCustomers")
}

func TestNoPriceSkipsBilling(t *testing.T) {
	c := qt.New(t)
	gw := newFakeGateway()
	gw.prices = nil
	gw.createPriceErr = errUpstream

	res := New(gw, Config{}).Process(context.Background(), testIntent("5", false))
	c.Assert(res.PriceID, qt.Equals, "")
	c.Assert(res.Status(), qt.Equals, "")
	c.Assert(errors.Is(res.Failed(StepCreatePrice), stripe.ErrAPICallFailed), qt.IsTrue)
	c.Assert(gw.calls, qt.DeepEquals, []string{"ListProducts", "ListPrices", "CreatePrice"})
}

func TestUpstreamFailuresDegrade(t *testing.T) {
	c := qt.New(t)

	c.Run("ListFailures", func(c *qt.C) {
		gw := newFakeGateway()
		gw.listProductsErr = errUpstream
		gw.listPricesErr = errUpstream
		gw.listCustomersErr = errUpstream

		res := New(gw, Config{}).Process(context.Background(), testIntent("10", false))
		c.Assert(res.ProductID, qt.Equals, "")
		c.Assert(res.PriceID, qt.Equals, "price_new")
		c.Assert(res.CustomerID, qt.Equals, "cus_new")
		c.Assert(res.Status(), qt.Equals, "unpaid")
		c.Assert(gw.createdPrices[0].ProductID, qt.Equals, "")
		for _, step := range []Step{StepFindProduct, StepFindPrice, StepFindCustomer} {
			err := res.Failed(step)
			c.Assert(errors.Is(err, stripe.ErrAPICallFailed), qt.IsTrue, qt.Commentf("step %s", step))
			c.Assert(errors.Is(err, stripe.ErrNotFound), qt.IsFalse)
		}
	})

	c.Run("CheckoutFailure", func(c *qt.C) {
		gw := newFakeGateway()
		gw.createCheckoutErr = errUpstream
		res := New(gw, Config{}).Process(context.Background(), testIntent("10", false))
		c.Assert(res.Status(), qt.Equals, "")
		c.Assert(res.Failed(StepCreateCheckout), qt.IsNotNil)
	})

	c.Run("SubscriptionFailure", func(c *qt.C) {
		gw := newFakeGateway()
		gw.createCustomerErr = errUpstream
		gw.createSubscriptionErr = errUpstream
		intent := testIntent("10", true)
		intent.CustomerEmail = "nobody@example.com"
		res := New(gw, Config{}).Process(context.Background(), intent)
		c.Assert(res.CustomerID, qt.Equals, "")
		c.Assert(res.Status(), qt.Equals, "")
		c.Assert(res.Failed(StepCreateCustomer), qt.IsNotNil)
		c.Assert(res.Failed(StepCreateSubscription), qt.IsNotNil)
	})
}

func TestParsePriceAndMonthly(t *testing.T) {
	c := qt.New(t)

	p, err := ParsePrice(DefaultPrice)
	c.Assert(err, qt.IsNil)
	c.Assert(p.IsZero(), qt.IsTrue)

	p, err = ParsePrice("9.99")
	c.Assert(err, qt.IsNil)
	c.Assert(p.String(), qt.Equals, "9.99")

	_, err = ParsePrice("ten")
	c.Assert(err, qt.ErrorMatches, `invalid price "ten": .*`)
	_, err = ParsePrice("")
	c.Assert(err, qt.IsNotNil)

	c.Assert(ParseMonthly("true"), qt.IsTrue)
	c.Assert(ParseMonthly("TRUE"), qt.IsTrue)
	c.Assert(ParseMonthly("false"), qt.IsFalse)
	c.Assert(ParseMonthly("yes"), qt.IsFalse)
	c.Assert(ParseMonthly(""), qt.IsFalse)
}
