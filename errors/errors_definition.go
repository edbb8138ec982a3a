// Package errors provides the API error type and the error definitions
// returned by the checkout service.
//
//nolint:lll
package errors

import (
	"fmt"
	"net/http"
)

// Error codes in the 40001-49999 range are the user's fault,
// and they return HTTP Status 400 or whatever 4XX is most appropriate.
//
// Error codes 50001-59999 are reserved for the server's fault.
//
// NEVER change any of the current error codes, only append new errors after the current last 4XXX or 5XXX.
//
// Upstream (Stripe) failures are not API errors: the checkout endpoint reports them
// as an empty payment status, so only input errors are defined here.
var (
	ErrMalformedBody     = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid JSON request body")}
	ErrMalformedURLParam = Error{Code: 40010, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid URL parameter")}
	ErrInvalidData       = Error{Code: 40037, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid data provided")}
	ErrBodyTooLarge      = Error{Code: 40038, HTTPstatus: http.StatusRequestEntityTooLarge, Err: fmt.Errorf("request body too large"), LogLevel: "info"}
)
