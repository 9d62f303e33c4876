// Package classify maps free-text product names onto a catalog.Category.
//
// Rules are evaluated in a fixed order and the first match wins. The order
// resolves ambiguous names ("Booster Box of Packs") towards the more specific
// category before the generic fallbacks get a chance to run.
package classify

import (
	"strings"
	"tcgwatch/internal/catalog"
	"tcgwatch/lib/textutil"
)

type rule struct {
	name  string
	apply func(name string) (catalog.Category, bool)
}

func is(category catalog.Category, match bool) (catalog.Category, bool) {
	return category, match
}

var rules = []rule{
	{"booster-box", func(n string) (catalog.Category, bool) {
		return is(catalog.CategoryBoosterBox, strings.Contains(n, "booster box"))
	}},
	{"elite-trainer-box", func(n string) (catalog.Category, bool) {
		return is(
			catalog.CategoryEliteTrainerBox,
			strings.Contains(n, "elite trainer box") || textutil.HasToken(n, "etb"),
		)
	}},
	{"booster-pack", func(n string) (catalog.Category, bool) {
		return is(
			catalog.CategoryBoosterPack,
			strings.Contains(n, "booster pack") ||
				(textutil.HasToken(n, "pack", "packs") && !strings.Contains(n, "booster")),
		)
	}},
	{"tin", func(n string) (catalog.Category, bool) {
		return is(catalog.CategoryTin, textutil.HasToken(n, "tin", "tins"))
	}},
	{"special-collection", func(n string) (catalog.Category, bool) {
		return is(catalog.CategorySpecialCollection, strings.Contains(n, "special collection"))
	}},
	{"premium-collection", func(n string) (catalog.Category, bool) {
		return is(catalog.CategoryPremiumCollection, strings.Contains(n, "premium collection"))
	}},
	{"blister-pack", func(n string) (catalog.Category, bool) {
		return is(catalog.CategoryBlisterPack, strings.Contains(n, "blister"))
	}},
	{"bundle", func(n string) (catalog.Category, bool) {
		return is(catalog.CategoryBundle, strings.Contains(n, "bundle"))
	}},
	{"deck", func(n string) (catalog.Category, bool) {
		return is(catalog.CategoryDeck, textutil.ContainsAny(n, "battle deck", "theme deck"))
	}},
	{"generic", func(n string) (catalog.Category, bool) {
		switch {
		case strings.Contains(n, "box") && strings.Contains(n, "booster"):
			// "booster" also covers "boosters"
			return catalog.CategoryBoosterBox, true
		case strings.Contains(n, "box") && textutil.ContainsAny(n, "elite", "trainer"):
			return catalog.CategoryEliteTrainerBox, true
		case strings.Contains(n, "collection") && strings.Contains(n, "premium"):
			return catalog.CategoryPremiumCollection, true
		case strings.Contains(n, "collection"):
			return catalog.CategorySpecialCollection, true
		}
		return catalog.CategoryUnknown, false
	}},
	{"tcg", func(n string) (catalog.Category, bool) {
		if !textutil.ContainsAny(n, "trading card", "tcg", "cards") {
			return catalog.CategoryUnknown, false
		}
		if strings.Contains(n, "pack") {
			return catalog.CategoryBoosterPack, true
		}
		return catalog.CategorySpecialCollection, true
	}},
}

// Classify returns the category of a product name, it is total: names that
// match no rule are catalog.CategoryUnknown.
func Classify(name string) catalog.Category {
	category, _ := Explain(name)
	return category
}

// Explain is Classify but also returns the name of the rule that matched,
// "fallback" when none did.
func Explain(name string) (catalog.Category, string) {
	folded := textutil.Fold(name)
	for _, r := range rules {
		category, ok := r.apply(folded)
		if ok {
			return category, r.name
		}
	}
	return catalog.CategoryUnknown, "fallback"
}
