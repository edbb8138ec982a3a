package api

const (
	// GET|POST / to bill a customer, kept for clients calling the bare
	// function URL
	rootEndpoint = "/"
	// GET|POST /checkout to bill a customer
	checkoutEndpoint = "/checkout"
	// GET /ping to check the service is alive
	pingEndpoint = "/ping"
)
