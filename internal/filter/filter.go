// Package filter decides whether a candidate is in stock and at retail price.
package filter

import (
	"fmt"
	"tcgwatch/internal/catalog"
	"tcgwatch/lib/textutil"
)

// InStock evaluates the stock text of a listing according to the retailer's stock rule.
func InStock(rule catalog.StockRule, stockText string) bool {
	text := textutil.Fold(stockText)
	negative := rule.Negative
	if len(negative) == 0 {
		negative = catalog.DefaultNegativeTerms
	}

	switch rule.Mode {
	case catalog.StockAssumed:
		return true
	case catalog.StockNegativeOnly:
		return !textutil.ContainsAny(text, negative...)
	case catalog.StockAffirmative:
		if text == "" {
			return false
		}
		return textutil.ContainsAny(text, rule.Affirmative...) &&
			!textutil.ContainsAny(text, negative...)
	}
	return false
}

// Explain returns an empty string when the candidate passes both the stock and
// the price check, otherwise it returns why it did not.
func Explain(candidate catalog.Candidate, thresholds catalog.Thresholds) string {
	if !candidate.InStock {
		return "out of stock"
	}
	threshold, ok := thresholds.Match(candidate.Category)
	if !ok {
		return fmt.Sprintf("no price ceiling for %s", candidate.Category.Text())
	}
	if candidate.Price.GreaterThan(threshold.Ceiling) {
		return fmt.Sprintf(
			"price %s above %q ceiling %s",
			candidate.Price.StringFixed(2),
			threshold.Key,
			threshold.Ceiling.StringFixed(2),
		)
	}
	return ""
}

// Passes reports whether a candidate is in stock and at or below the ceiling of
// the first threshold matching its category.
func Passes(candidate catalog.Candidate, thresholds catalog.Thresholds) bool {
	return Explain(candidate, thresholds) == ""
}
