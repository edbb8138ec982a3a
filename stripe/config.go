package stripe

import (
	"fmt"
	"time"
)

// DefaultTimeout is the HTTP timeout used for Stripe API calls when the
// configuration does not set one.
const DefaultTimeout = 30 * time.Second

// Config holds the Stripe client configuration. It is read only once the
// client has been created.
type Config struct {
	// APIKey is the Stripe secret key.
	APIKey string `yaml:"api_key" json:"api_key"`
	// APIURL overrides the Stripe API base URL, e.g. to point the client to a
	// stripe-mock instance. Empty means the public Stripe API.
	APIURL  string        `yaml:"api_url" json:"api_url"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// Validate checks that the configuration can be used to build a client.
func (c *Config) Validate() error {
	if c == nil {
		return NewStripeError(ErrInvalidConfiguration.Code, "missing configuration", nil)
	}
	if c.APIKey == "" {
		return NewStripeError(ErrInvalidConfiguration.Code, "api key is required", nil)
	}
	if c.Timeout < 0 {
		return NewStripeError(ErrInvalidConfiguration.Code,
			fmt.Sprintf("invalid timeout %s", c.Timeout), nil)
	}
	return nil
}
