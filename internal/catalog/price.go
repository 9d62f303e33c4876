package catalog

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	priceNoise   = strings.NewReplacer(",", "", "$", "", "€", "", "£", "", "¥", "", " ", "")
	decimalRegex = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// ParsePrice extracts the first decimal number out of a price fragment.
// Currency symbols and thousands separators are stripped beforehand, a
// fragment without any digits is reported as unparseable.
func ParsePrice(text string) (decimal.Decimal, bool) {
	cleaned := priceNoise.Replace(text)
	match := decimalRegex.FindString(cleaned)
	if match == "" {
		return decimal.Zero, false
	}
	price, err := decimal.NewFromString(match)
	if err != nil {
		return decimal.Zero, false
	}
	return price, true
}
