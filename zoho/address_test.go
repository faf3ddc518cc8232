package zoho

import (
	"strings"
	"testing"

	"github.com/splitfin/order-service/models"
	"github.com/stretchr/testify/assert"
)

func TestFormatAddress_SkipsEmptyParts(t *testing.T) {
	addr := models.Address{
		Address1: "1 Rd",
		Street2:  "",
		City:     "York",
		County:   "",
		Postcode: "YO1 1AA",
	}

	assert.Equal(t, "1 Rd, York, YO1 1AA", FormatAddress(addr))
}

func TestFormatAddress_SkipsWhitespaceOnlyParts(t *testing.T) {
	addr := models.Address{
		Address1: "12 High Street",
		Street2:  "   ",
		City:     "Leeds",
		County:   "\t",
		Postcode: "LS1 4DY",
	}

	got := FormatAddress(addr)
	assert.Equal(t, "12 High Street, Leeds, LS1 4DY", got)
	assert.False(t, strings.HasPrefix(got, ", "))
	assert.False(t, strings.HasSuffix(got, ", "))
}

func TestFormatAddress_AllFields(t *testing.T) {
	addr := models.Address{
		Address1: "Unit 3",
		Street2:  "Mill Lane",
		City:     "Bath",
		County:   "Somerset",
		Postcode: "BA1 2QZ",
	}

	assert.Equal(t, "Unit 3, Mill Lane, Bath, Somerset, BA1 2QZ", FormatAddress(addr))
}

func TestFormatAddress_Empty(t *testing.T) {
	assert.Equal(t, "", FormatAddress(models.Address{}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 99))
	long := strings.Repeat("x", 150)
	assert.Len(t, Truncate(long, AddressMaxLen), 99)
	assert.Equal(t, "ab", Truncate("abcd", 2))
}
