package main

import (
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/vocdoni/stripe-checkout/api"
	"github.com/vocdoni/stripe-checkout/checkout"
	"github.com/vocdoni/stripe-checkout/stripe"
	"go.vocdoni.io/dvote/log"
)

func main() {
	// define flags
	flag.StringP("host", "h", "0.0.0.0", "listen address")
	flag.IntP("port", "p", 8080, "listen port")
	flag.String("logLevel", "info", "log level (debug, info, warn, error)")
	flag.String("stripeApiSecret", "", "Stripe API secret key")
	flag.String("stripeApiUrl", "", "Stripe API base URL override (e.g. a stripe-mock instance)")
	flag.Duration("stripeTimeout", stripe.DefaultTimeout, "timeout of every Stripe API call")
	flag.String("currency", checkout.DefaultCurrency, "currency of the prices created")
	flag.String("successUrl", checkout.DefaultSuccessURL, "checkout session success URL")
	flag.String("cancelUrl", checkout.DefaultCancelURL, "checkout session cancel URL")
	// parse flags
	flag.Parse()
	// initialize Viper
	viper.SetEnvPrefix("STRIPESHIM")
	if err := viper.BindPFlags(flag.CommandLine); err != nil {
		panic(err)
	}
	viper.AutomaticEnv()
	// read the configuration
	host := viper.GetString("host")
	port := viper.GetInt("port")
	log.Init(viper.GetString("logLevel"), "stdout", nil)

	stripeSecret := viper.GetString("stripeApiSecret")
	if stripeSecret == "" {
		log.Fatal("stripeApiSecret is required")
	}
	stripeURL := viper.GetString("stripeApiUrl")
	// create the Stripe client
	stripeClient, err := stripe.NewClient(&stripe.Config{
		APIKey:  stripeSecret,
		APIURL:  stripeURL,
		Timeout: viper.GetDuration("stripeTimeout"),
	})
	if err != nil {
		log.Fatalf("could not create the Stripe client: %v", err)
	}
	log.Infow("stripe client created", "url", stripeURL, "timeout", viper.GetDuration("stripeTimeout").String())
	// create the checkout service
	checkoutService := checkout.New(stripeClient, checkout.Config{
		Currency:   viper.GetString("currency"),
		SuccessURL: viper.GetString("successUrl"),
		CancelURL:  viper.GetString("cancelUrl"),
	})
	// create the local API server
	api.New(&api.Config{
		Host:     host,
		Port:     port,
		Checkout: checkoutService,
	}).Start()
	// wait forever, as the server is running in a goroutine
	log.Infow("server started", "host", host, "port", port)
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}
