package zoho

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/splitfin/order-service/models"
)

// ErrMissingPayload means the pending order was stored without the
// payload the order API needs. Approval cannot proceed without it.
var ErrMissingPayload = errors.New("pending order has no zoho payload")

// countryFields are the country-bearing fields the order API documents
// at the top level of a sales order payload. They are re-normalized in
// a final pass even though the recursive sanitizer already covers them.
var countryFields = []string{
	"billing_country",
	"shipping_country",
	"country",
	"billing_address_country",
	"shipping_address_country",
}

// SanitizeCountryFields walks a decoded JSON value and replaces every
// string under a key containing "country" (case-insensitive) with its
// normalized form. Arrays and nested objects are visited uniformly.
// The input is not mutated.
func SanitizeCountryFields(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if strings.Contains(strings.ToLower(k), "country") {
				if s, ok := inner.(string); ok {
					out[k] = NormalizeCountry(s)
					continue
				}
			}
			out[k] = SanitizeCountryFields(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = SanitizeCountryFields(inner)
		}
		return out
	default:
		return v
	}
}

// BuildSalesOrderPayload shapes the order's stored payload for the
// external create call: sanitizes country fields, overrides the
// customer id, flattens addresses to the API's 99-char strings,
// populates the discrete billing/shipping sub-fields and forces the
// order into confirmed status. The destination country is always
// normalized from the literal "GB"; the business ships UK-only.
func BuildSalesOrderPayload(order *models.PendingOrder) (map[string]any, error) {
	if len(order.ZohoPayload) == 0 {
		return nil, ErrMissingPayload
	}

	var raw any
	if err := json.Unmarshal(order.ZohoPayload, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode zoho payload: %w", err)
	}

	cleaned, ok := SanitizeCountryFields(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("zoho payload is not a JSON object")
	}

	billing := order.BillingOrShipping()
	shipping := order.ShippingAddress

	customerID := order.ZohoCustomerID
	if customerID == "" {
		customerID = order.ZohoContactID
	}

	cleaned["customer_id"] = customerID
	cleaned["billing_address"] = Truncate(FormatAddress(billing), AddressMaxLen)
	cleaned["shipping_address"] = Truncate(FormatAddress(shipping), AddressMaxLen)
	cleaned["billing_street"] = billing.Address1
	cleaned["billing_city"] = billing.City
	cleaned["billing_state"] = billing.County
	cleaned["billing_zip"] = billing.Postcode
	cleaned["billing_country"] = NormalizeCountry("GB")
	cleaned["shipping_street"] = shipping.Address1
	cleaned["shipping_city"] = shipping.City
	cleaned["shipping_state"] = shipping.County
	cleaned["shipping_zip"] = shipping.Postcode
	cleaned["shipping_country"] = NormalizeCountry("GB")
	cleaned["salesorder_status"] = "confirmed"

	return validateCountryFields(cleaned), nil
}

// validateCountryFields is the defense-in-depth pass: it re-normalizes
// the documented country fields plus the nested address country
// fields. Idempotent with the recursive sanitize.
func validateCountryFields(payload map[string]any) map[string]any {
	for _, field := range countryFields {
		if s, ok := payload[field].(string); ok {
			payload[field] = NormalizeCountry(s)
		}
	}

	for _, field := range []string{"billing_address", "shipping_address"} {
		nested, ok := payload[field].(map[string]any)
		if !ok {
			continue
		}
		if s, ok := nested["country"].(string); ok {
			nested["country"] = NormalizeCountry(s)
		}
	}

	return payload
}
