package catalog

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Threshold is the retail price ceiling for every category whose text contains Key.
type Threshold struct {
	Key     string
	Ceiling decimal.Decimal
}

// Thresholds is an ordered list of price ceilings, the first matching entry wins.
type Thresholds []Threshold

// NewThresholds orders a key -> ceiling mapping deterministically: keys that
// are exactly a category text first, then longer keys before shorter ones,
// then lexical order.
func NewThresholds(values map[string]float64) Thresholds {
	out := make(Thresholds, 0, len(values))
	for key, ceiling := range values {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		out = append(out, Threshold{Key: key, Ceiling: decimal.NewFromFloat(ceiling)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		ei, ej := isCategoryText(out[i].Key), isCategoryText(out[j].Key)
		if ei != ej {
			return ei
		}
		if len(out[i].Key) != len(out[j].Key) {
			return len(out[i].Key) > len(out[j].Key)
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func isCategoryText(key string) bool {
	for _, c := range AllCategories() {
		if c.Text() == key {
			return true
		}
	}
	return false
}

// Match returns the first threshold whose key is a case-insensitive substring
// of the category text.
func (t Thresholds) Match(category Category) (Threshold, bool) {
	text := strings.ToLower(category.Text())
	for _, threshold := range t {
		if strings.Contains(text, strings.ToLower(threshold.Key)) {
			return threshold, true
		}
	}
	return Threshold{}, false
}

// Map converts the thresholds back into a key -> ceiling mapping.
func (t Thresholds) Map() map[string]float64 {
	out := make(map[string]float64, len(t))
	for _, threshold := range t {
		out[threshold.Key] = threshold.Ceiling.InexactFloat64()
	}
	return out
}
