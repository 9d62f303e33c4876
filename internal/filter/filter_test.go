package filter

import (
	"strings"
	"tcgwatch/internal/catalog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestInStock(t *testing.T) {
	affirmative := catalog.StockRule{
		Mode:        catalog.StockAffirmative,
		Affirmative: []string{"in stock", "add to cart"},
	}
	negativeOnly := catalog.StockRule{Mode: catalog.StockNegativeOnly}
	assumed := catalog.StockRule{Mode: catalog.StockAssumed}

	table := []struct {
		rule     catalog.StockRule
		text     string
		expected bool
	}{
		{rule: affirmative, text: "In Stock", expected: true},
		{rule: affirmative, text: "Add to Cart", expected: true},
		{rule: affirmative, text: "", expected: false},
		{rule: affirmative, text: "Sold Out", expected: false},
		{rule: affirmative, text: "In stock soon - currently sold out", expected: false},
		{rule: negativeOnly, text: "", expected: true},
		{rule: negativeOnly, text: "Shipping arrives Fri", expected: true},
		{rule: negativeOnly, text: "Out of stock", expected: false},
		{rule: assumed, text: "Out of stock", expected: true},
		{rule: assumed, text: "", expected: true},
	}

	for _, row := range table {
		require.Equal(t, row.expected, InStock(row.rule, row.text), "%s %q", row.rule.Mode, row.text)
	}
}

func candidate(category catalog.Category, price string, inStock bool) catalog.Candidate {
	return catalog.Candidate{
		Name:     "test",
		Price:    decimal.RequireFromString(price),
		URL:      "https://example.com/p/1",
		Retailer: catalog.Target,
		Category: category,
		InStock:  inStock,
	}
}

func TestPasses(t *testing.T) {
	thresholds := catalog.NewThresholds(map[string]float64{
		"booster box":       150,
		"elite trainer box": 55,
	})

	require.True(t, Passes(candidate(catalog.CategoryBoosterBox, "143.99", true), thresholds))
	require.True(t, Passes(candidate(catalog.CategoryBoosterBox, "150.00", true), thresholds))
	require.False(t, Passes(candidate(catalog.CategoryBoosterBox, "160.00", true), thresholds))
	require.False(t, Passes(candidate(catalog.CategoryBoosterBox, "100.00", false), thresholds))
	require.False(t, Passes(candidate(catalog.CategoryTin, "5.00", true), thresholds))
	require.False(t, Passes(candidate(catalog.CategoryUnknown, "1.00", true), thresholds))

	reason := Explain(candidate(catalog.CategoryEliteTrainerBox, "79.99", true), thresholds)
	require.True(t, strings.Contains(reason, "79.99"), reason)
}
