// Package extract turns the markup of a retailer listing page into raw listings.
package extract

import (
	"fmt"
	"iter"
	"net/url"
	"strings"
	"tcgwatch/internal/catalog"
	"tcgwatch/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Profile is everything that differs between two retailers: where the
// listing page is, how a listing looks in its markup and how its stock text
// is read. Every matcher chain is tried in order, the first non-empty match
// wins.
type Profile struct {
	Retailer catalog.Retailer
	// Origin is the scheme and host relative links are resolved against.
	Origin     string
	ListingURL string

	Container    []string
	Name         []htmlutil.Matcher
	Price        []htmlutil.Matcher
	Availability []htmlutil.Matcher
	Link         []htmlutil.Matcher
	// Title is the chain used on the detail page of a listing.
	Title []htmlutil.Matcher

	// Stock decides how the availability text is read.
	Stock catalog.StockRule
}

func (p Profile) Validate() error {
	if !p.Retailer.Valid() {
		return fmt.Errorf("unknown retailer %q", p.Retailer)
	}
	origin, err := url.Parse(p.Origin)
	if err != nil {
		return fmt.Errorf("parse origin of %s: %w", p.Retailer, err)
	}
	if !origin.IsAbs() {
		return fmt.Errorf("origin of %s is not absolute: %q", p.Retailer, p.Origin)
	}
	if len(p.Container) == 0 {
		return fmt.Errorf("%s has no container selectors", p.Retailer)
	}
	if len(p.Name) == 0 || len(p.Price) == 0 || len(p.Link) == 0 {
		return fmt.Errorf("%s needs name, price and link matchers", p.Retailer)
	}
	return nil
}

// Extracted is a single element of an extraction, either a listing or the
// reason a container was skipped.
type Extracted struct {
	Listing catalog.RawListing
	// Skip is non-empty when the container did not yield a usable listing.
	Skip string
	// Index is the position of the container on the page.
	Index int
}

func (e Extracted) Skipped() bool {
	return e.Skip != ""
}

// Extract returns a lazy sequence over the listings found in `markup`. The
// sequence is one-shot: ranging over it a second time yields nothing.
func Extract(markup string, profile Profile) iter.Seq[Extracted] {
	consumed := false
	return func(yield func(Extracted) bool) {
		if consumed {
			return
		}
		consumed = true

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
		if err != nil {
			yield(Extracted{Skip: fmt.Sprintf("parse markup: %s", err), Index: -1})
			return
		}
		origin, err := url.Parse(profile.Origin)
		if err != nil {
			yield(Extracted{Skip: fmt.Sprintf("parse origin: %s", err), Index: -1})
			return
		}

		containers, _ := htmlutil.FirstSelection(doc.Selection, profile.Container)
		for i := range containers.Length() {
			out := guard(func() Extracted {
				return extractOne(containers.Eq(i), profile, origin)
			})
			out.Index = i
			if !yield(out) {
				return
			}
		}
	}
}

// guard turns a panic while reading one container into a skip, the
// containers after it are still read.
func guard(read func() Extracted) (out Extracted) {
	defer func() {
		if r := recover(); r != nil {
			out = Extracted{Skip: fmt.Sprintf("panic: %v", r)}
		}
	}()
	return read()
}

func extractOne(container *goquery.Selection, profile Profile, origin *url.URL) Extracted {
	name, _, ok := htmlutil.First(container, profile.Name)
	if !ok {
		return Extracted{Skip: "missing name"}
	}
	priceText, _, ok := htmlutil.First(container, profile.Price)
	if !ok {
		return Extracted{Skip: fmt.Sprintf("missing price for %q", name)}
	}
	if _, ok := catalog.ParsePrice(priceText); !ok {
		return Extracted{Skip: fmt.Sprintf("unparseable price %q for %q", priceText, name)}
	}
	href, _, ok := htmlutil.First(container, profile.Link)
	if !ok {
		return Extracted{Skip: fmt.Sprintf("missing link for %q", name)}
	}
	link, err := htmlutil.ResolveHref(origin, href)
	if err != nil {
		return Extracted{Skip: fmt.Sprintf("bad link %q for %q: %s", href, name, err)}
	}
	stockText, _, _ := htmlutil.First(container, profile.Availability)

	return Extracted{
		Listing: catalog.RawListing{
			Name:      name,
			PriceText: priceText,
			URL:       link,
			StockText: stockText,
			Retailer:  profile.Retailer,
		},
	}
}
