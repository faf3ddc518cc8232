package zoho

import (
	"strings"

	"github.com/splitfin/order-service/models"
)

// AddressMaxLen is the order API's hard limit on the free-text
// billing_address / shipping_address fields.
const AddressMaxLen = 99

// FormatAddress joins the address sub-fields into the single display
// string the order API expects, skipping empty or whitespace-only
// parts. No length limit is applied here; callers truncate where the
// API requires it.
func FormatAddress(addr models.Address) string {
	fields := []string{
		addr.Address1,
		addr.Street2,
		addr.City,
		addr.County,
		addr.Postcode,
	}

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, ", ")
}

// Truncate caps s at max runes for fields with an API length contract.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
