package api

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/vocdoni/stripe-checkout/checkout"
	"github.com/vocdoni/stripe-checkout/errors"
	"go.vocdoni.io/dvote/log"
)

// maxBodyBytes is the maximum size accepted for a JSON request body.
const maxBodyBytes = int64(65536)

// intentFields are the keys read from the query string and, when the body
// overrides them, from the JSON body.
var intentFields = []string{"productName", "price", "name", "email", "monthly"}

// checkoutHandler bills the customer described by the request and writes
// "Payment Status <status>!" as plain text.
//
// The request fields are read from the query string. If the body is a JSON
// object with a productName key, all the fields are read from it instead.
// Stripe failures never turn into HTTP errors: the flow degrades and the
// status is empty. Only malformed input is rejected with a 4XX error.
func (a *API) checkoutHandler(w http.ResponseWriter, r *http.Request) {
	intent, err := a.intentFromRequest(w, r)
	if err != nil {
		var apiErr errors.Error
		if stderrors.As(err, &apiErr) {
			apiErr.Write(w)
			return
		}
		errors.ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	log.Infow("checkout request",
		"product", intent.ProductName,
		"price", intent.Price.String(),
		"email", intent.CustomerEmail,
		"monthly", intent.Monthly)

	res := a.checkout.Process(r.Context(), intent)
	httpWriteText(w, fmt.Sprintf("Payment Status %s!", res.Status()))
}

// intentFromRequest builds the billing intent of the request. The returned
// error, if any, is an errors.Error ready to be written.
func (a *API) intentFromRequest(w http.ResponseWriter, r *http.Request) (*checkout.Intent, error) {
	query := r.URL.Query()
	fields := map[string]string{
		"price":   checkout.DefaultPrice,
		"monthly": "false",
	}
	for _, key := range intentFields {
		if query.Has(key) {
			fields[key] = query.Get(key)
		}
	}
	malformed := errors.ErrMalformedURLParam

	override, err := jsonOverride(w, r)
	if err != nil {
		return nil, err
	}
	if override != nil {
		fields = override
		malformed = errors.ErrMalformedBody
	}

	price, err := checkout.ParsePrice(fields["price"])
	if err != nil {
		return nil, malformed.WithErr(err)
	}
	intent := &checkout.Intent{
		ProductName:   fields["productName"],
		Price:         price,
		CustomerName:  fields["name"],
		CustomerEmail: fields["email"],
		Monthly:       checkout.ParseMonthly(fields["monthly"]),
	}
	if err := a.validator.Validate(intent); err != nil {
		return nil, errors.ErrInvalidData.WithErr(err)
	}
	return intent, nil
}

// jsonOverride reads the request body and returns the intent fields it
// carries. It returns nil, without error, when the body is empty, is not a
// JSON object or has no productName key. Once productName is present every
// other field is required.
func jsonOverride(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			return nil, errors.ErrBodyTooLarge
		}
		log.Debugw("could not read request body", "error", err)
		return nil, nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	var object map[string]any
	if err := decoder.Decode(&object); err != nil {
		log.Debugw("ignoring request body, not a JSON object", "error", err)
		return nil, nil
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		log.Debugw("ignoring request body, trailing data after the JSON object", "error", err)
		return nil, nil
	}
	if _, ok := object["productName"]; !ok {
		return nil, nil
	}

	fields := make(map[string]string, len(intentFields))
	for _, key := range intentFields {
		value, ok := object[key]
		if !ok {
			return nil, errors.ErrMalformedBody.Withf("missing field %q", key)
		}
		s, ok := jsonScalar(value)
		if !ok {
			return nil, errors.ErrMalformedBody.Withf("field %q must be a string", key)
		}
		fields[key] = s
	}
	return fields, nil
}

// jsonScalar returns the text of a decoded JSON string, number or boolean.
func jsonScalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}
