package catalog

import "fmt"

// Category is the product type a listing is classified into, the set is closed.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryBoosterBox
	CategoryEliteTrainerBox
	CategoryBoosterPack
	CategoryTin
	CategorySpecialCollection
	CategoryPremiumCollection
	CategoryBlisterPack
	CategoryBundle
	CategoryDeck
)

type categoryInfo struct {
	label   string
	text    string
	keyword string
}

var categories = map[Category]categoryInfo{
	CategoryUnknown:           {label: "unknown", text: "unknown", keyword: "unknown"},
	CategoryBoosterBox:        {label: "booster-box", text: "booster box", keyword: "booster box"},
	CategoryEliteTrainerBox:   {label: "elite-trainer-box", text: "elite trainer box", keyword: "elite trainer box"},
	CategoryBoosterPack:       {label: "booster-pack", text: "booster pack", keyword: "booster pack"},
	CategoryTin:               {label: "tin", text: "tin", keyword: "tin"},
	CategorySpecialCollection: {label: "special-collection", text: "special collection", keyword: "special collection"},
	CategoryPremiumCollection: {label: "premium-collection", text: "premium collection", keyword: "premium collection"},
	// "3-Pack Blister" is classified as a blister pack without ever containing
	// the phrase, the keyword has to be what the classifier keyed on.
	CategoryBlisterPack: {label: "blister-pack", text: "blister pack", keyword: "blister"},
	CategoryBundle:      {label: "bundle", text: "bundle", keyword: "bundle"},
	CategoryDeck:        {label: "deck", text: "deck", keyword: "deck"},
}

// AllCategories returns every category, unknown last.
func AllCategories() []Category {
	return []Category{
		CategoryBoosterBox,
		CategoryEliteTrainerBox,
		CategoryBoosterPack,
		CategoryTin,
		CategorySpecialCollection,
		CategoryPremiumCollection,
		CategoryBlisterPack,
		CategoryBundle,
		CategoryDeck,
		CategoryUnknown,
	}
}

// String returns the label of the category ("booster-box").
func (c Category) String() string {
	info, ok := categories[c]
	if !ok {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return info.label
}

// Text returns the display text of the category ("booster box"), this is what
// price thresholds and detail page titles are matched against.
func (c Category) Text() string {
	info, ok := categories[c]
	if !ok {
		return categories[CategoryUnknown].text
	}
	return info.text
}

// Keyword is the text a product name must contain to agree with the category.
func (c Category) Keyword() string {
	info, ok := categories[c]
	if !ok {
		return categories[CategoryUnknown].keyword
	}
	return info.keyword
}

// ParseCategory accepts either a label or a display text.
func ParseCategory(value string) (Category, error) {
	for c, info := range categories {
		if value == info.label || value == info.text {
			return c, nil
		}
	}
	return CategoryUnknown, fmt.Errorf("unknown category %q", value)
}
