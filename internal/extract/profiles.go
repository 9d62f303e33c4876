package extract

import (
	"fmt"
	"tcgwatch/internal/catalog"
	"tcgwatch/lib/htmlutil"
)

// Selectors shared by every profile, tried after the retailer specific ones.
var (
	fallbackContainers = []string{
		"[data-product-id]",
		".product-card",
		".product",
	}
	fallbackNames = []htmlutil.Matcher{
		htmlutil.Text(".product-title"),
		htmlutil.Text("h2"),
		htmlutil.Text("h3"),
		htmlutil.Attr("a[title]", "title"),
	}
	fallbackPrices = []htmlutil.Matcher{
		htmlutil.Attr(`[itemprop="price"]`, "content"),
		htmlutil.Text(`[itemprop="price"]`),
		htmlutil.Text(".price"),
	}
	fallbackLinks = []htmlutil.Matcher{
		htmlutil.Attr("a[href]", "href"),
	}
	fallbackAvailability = []htmlutil.Matcher{
		htmlutil.Text(".availability"),
		htmlutil.Text(".stock-status"),
	}
)

func chain[T any](specific []T, fallback []T) []T {
	out := make([]T, 0, len(specific)+len(fallback))
	out = append(out, specific...)
	out = append(out, fallback...)
	return out
}

var builtin = map[catalog.Retailer]Profile{
	catalog.PokemonCenter: {
		Retailer:     catalog.PokemonCenter,
		Origin:       "https://www.pokemoncenter.com",
		ListingURL:   "https://www.pokemoncenter.com/category/trading-cards",
		Container:    chain([]string{".product-item"}, fallbackContainers),
		Name:         chain([]htmlutil.Matcher{htmlutil.Text(".product-name")}, fallbackNames),
		Price:        chain([]htmlutil.Matcher{htmlutil.Text(".product-price")}, fallbackPrices),
		Availability: chain([]htmlutil.Matcher{htmlutil.Text(".product-availability")}, fallbackAvailability),
		Link:         chain([]htmlutil.Matcher{htmlutil.Attr("a.product-link", "href")}, fallbackLinks),
		Title:        []htmlutil.Matcher{htmlutil.Text(".product-title"), htmlutil.Text("h1.product-name")},
		Stock: catalog.StockRule{
			Mode:        catalog.StockAffirmative,
			Affirmative: []string{"in stock"},
		},
	},
	catalog.Target: {
		Retailer:     catalog.Target,
		Origin:       "https://www.target.com",
		ListingURL:   "https://www.target.com/c/pokemon-trading-cards-games/-/N-5tdv",
		Container:    chain([]string{`[data-test="product-card"]`, `[data-test="@web/site-top-of-funnel/ProductCardWrapper"]`}, fallbackContainers),
		Name:         chain([]htmlutil.Matcher{htmlutil.Text(`[data-test="product-title"]`)}, fallbackNames),
		Price:        chain([]htmlutil.Matcher{htmlutil.Text(`[data-test="product-price"]`), htmlutil.Text(`[data-test="current-price"]`)}, fallbackPrices),
		Availability: chain([]htmlutil.Matcher{htmlutil.Text(`[data-test="product-availability"]`)}, fallbackAvailability),
		Link:         chain([]htmlutil.Matcher{htmlutil.Attr(`a[href^="/p/"]`, "href")}, fallbackLinks),
		Title:        []htmlutil.Matcher{htmlutil.Text(`[data-test="product-title"]`), htmlutil.Text("h1#pdp-product-title-id")},
		Stock: catalog.StockRule{
			Mode:     catalog.StockNegativeOnly,
			Negative: []string{"sold out", "out of stock"},
		},
	},
	catalog.Walmart: {
		Retailer:     catalog.Walmart,
		Origin:       "https://www.walmart.com",
		ListingURL:   "https://www.walmart.com/browse/toys/pokemon-trading-cards/4171_4191_1044400_5208903",
		Container:    chain([]string{"[data-item-id]"}, fallbackContainers),
		Name:         chain([]htmlutil.Matcher{htmlutil.Text(".ellipsis-title"), htmlutil.Text(`[data-automation-id="product-title"]`)}, fallbackNames),
		Price:        chain([]htmlutil.Matcher{htmlutil.Text(".price-main"), htmlutil.Text(`[data-automation-id="product-price"] .f2`)}, fallbackPrices),
		Availability: chain([]htmlutil.Matcher{htmlutil.Text(".fulfillment-text")}, fallbackAvailability),
		Link:         chain([]htmlutil.Matcher{htmlutil.Attr(`a[href^="/ip/"]`, "href")}, fallbackLinks),
		Title:        []htmlutil.Matcher{htmlutil.Text(`h1[itemprop="name"]`), htmlutil.Text("h1#main-title")},
		Stock: catalog.StockRule{
			Mode:     catalog.StockNegativeOnly,
			Negative: []string{"out of stock"},
		},
	},
	catalog.BestBuy: {
		Retailer:     catalog.BestBuy,
		Origin:       "https://www.bestbuy.com",
		ListingURL:   "https://www.bestbuy.com/site/searchpage.jsp?st=pokemon+cards",
		Container:    chain([]string{".list-item", ".sku-item"}, fallbackContainers),
		Name:         chain([]htmlutil.Matcher{htmlutil.Text(".sku-title"), htmlutil.Text(".sku-header a")}, fallbackNames),
		Price:        chain([]htmlutil.Matcher{htmlutil.Text(".priceView-customer-price span")}, fallbackPrices),
		Availability: chain([]htmlutil.Matcher{htmlutil.Text(".fulfillment-add-to-cart-button")}, fallbackAvailability),
		Link:         chain([]htmlutil.Matcher{htmlutil.Attr("a.image-link", "href"), htmlutil.Attr(".sku-title a", "href")}, fallbackLinks),
		Title:        []htmlutil.Matcher{htmlutil.Text(".sku-title h1")},
		Stock: catalog.StockRule{
			Mode:        catalog.StockAffirmative,
			Affirmative: []string{"add to cart"},
		},
	},
	catalog.GameStop: {
		Retailer:     catalog.GameStop,
		Origin:       "https://www.gamestop.com",
		ListingURL:   "https://www.gamestop.com/collectibles/trading-cards/pokemon-tcg",
		Container:    chain([]string{".product-tile"}, fallbackContainers),
		Name:         chain([]htmlutil.Matcher{htmlutil.Text(".link-name"), htmlutil.Text(".pd-name")}, fallbackNames),
		Price:        chain([]htmlutil.Matcher{htmlutil.Text(".actual-price")}, fallbackPrices),
		Availability: chain([]htmlutil.Matcher{htmlutil.Text(".availability")}, fallbackAvailability),
		Link:         chain([]htmlutil.Matcher{htmlutil.Attr("a.link-name", "href")}, fallbackLinks),
		Title:        []htmlutil.Matcher{htmlutil.Text("h1.product-name")},
		Stock: catalog.StockRule{
			Mode:        catalog.StockAffirmative,
			Affirmative: []string{"in stock"},
		},
	},
}

// BuiltinProfiles returns the profile of every known retailer, keyed by retailer.
// The returned map is a copy and can be modified by the caller.
func BuiltinProfiles() map[catalog.Retailer]Profile {
	out := make(map[catalog.Retailer]Profile, len(builtin))
	for r, p := range builtin {
		out[r] = p
	}
	return out
}

// ProfileFor returns the builtin profile of a retailer.
func ProfileFor(retailer catalog.Retailer) (Profile, error) {
	p, ok := builtin[retailer]
	if !ok {
		return Profile{}, fmt.Errorf("no profile for retailer %q", retailer)
	}
	return p, nil
}
