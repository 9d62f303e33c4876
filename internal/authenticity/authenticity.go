// Package authenticity drops validated items that are not confidently a
// current trading card product.
package authenticity

import (
	"fmt"
	"net/url"
	"strings"
	"tcgwatch/internal/catalog"
	"tcgwatch/internal/components/assert"
	"tcgwatch/internal/components/telemetry"
	"tcgwatch/lib/textutil"
)

const report_filter_reject = "filter.reject"

// Gate is one of the checks an item has to pass, in the order they run.
type Gate int

const (
	GateNone Gate = iota
	GateDenyTerm
	GateDenyPath
	GateAllowKeyword
	GateCategory
	GateCurrency
)

func (g Gate) String() string {
	switch g {
	case GateNone:
		return "none"
	case GateDenyTerm:
		return "deny-term"
	case GateDenyPath:
		return "deny-path"
	case GateAllowKeyword:
		return "allow-keyword"
	case GateCategory:
		return "category"
	case GateCurrency:
		return "currency"
	}
	return fmt.Sprintf("gate(%d)", int(g))
}

// Lists holds the keyword lists the gates are evaluated with. Terms are
// matched against the accent folded, lower-cased name.
type Lists struct {
	DenyTerms []string
	// DenyPaths are matched against the lower-cased path of the item url.
	DenyPaths        []string
	AllowKeywords    []string
	RecentExpansions []string
	// DefiniteTerms can only belong to a trading card product, any of them
	// is enough for the currency gate.
	DefiniteTerms []string
}

func DefaultLists() Lists {
	return Lists{
		DenyTerms: []string{
			"plush", "figure", "figurine", "t-shirt", "shirt", "hoodie",
			"sweatshirt", "mug", "poster", "backpack", "lunch box",
			"keychain", "enamel pin", "costume", "pajama", "socks",
			"sticker", "card sleeves", "binder", "playmat", "deck box",
			"video game", "nintendo switch", "controller", "squishmallow",
			"funko", "lego", "mega construx", "toy",
		},
		DenyPaths: []string{
			"/apparel", "/clothing", "/plush", "/toys/plush", "/figures",
			"/home-goods", "/video-games", "/accessories",
		},
		AllowKeywords: []string{
			"pokemon", "tcg", "trading card", "booster", "elite trainer", "etb",
		},
		RecentExpansions: []string{
			"scarlet & violet", "scarlet and violet", "paldea evolved",
			"obsidian flames", "pokemon 151", "paradox rift", "paldean fates",
			"temporal forces", "twilight masquerade", "shrouded fable",
			"stellar crown", "surging sparks", "prismatic evolutions",
			"journey together", "destined rivals",
		},
		DefiniteTerms: []string{
			"booster box", "elite trainer box", "pokemon tcg", "trading card game",
		},
	}
}

func merge(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]bool, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, term := range list {
			term = textutil.Fold(term)
			if term == "" || seen[term] {
				continue
			}
			seen[term] = true
			out = append(out, term)
		}
	}
	return out
}

// Extend returns the union of both lists, duplicates removed.
func (l Lists) Extend(other Lists) Lists {
	return Lists{
		DenyTerms:        merge(l.DenyTerms, other.DenyTerms),
		DenyPaths:        merge(l.DenyPaths, other.DenyPaths),
		AllowKeywords:    merge(l.AllowKeywords, other.AllowKeywords),
		RecentExpansions: merge(l.RecentExpansions, other.RecentExpansions),
		DefiniteTerms:    merge(l.DefiniteTerms, other.DefiniteTerms),
	}
}

// Rejection is an item that failed a gate.
type Rejection struct {
	Item   catalog.ValidatedItem
	Gate   Gate
	Reason string
}

type Filter struct {
	lists Lists
	tel   telemetry.API
}

func NewFilter(lists Lists, tel telemetry.API) Filter {
	assert.NotNil(tel)
	return Filter{
		// merging with nothing folds and dedups every term
		lists: lists.Extend(Lists{}),
		tel:   telemetry.NewScopedAPI("authenticity", tel),
	}
}

// Check runs every gate on a single item and returns the first one it fails,
// GateNone if it passes all of them.
func (f Filter) Check(item catalog.ValidatedItem) (Gate, string) {
	name := textutil.Fold(item.Name)

	if term, found := textutil.FirstContained(name, f.lists.DenyTerms); found {
		return GateDenyTerm, fmt.Sprintf("name contains %q", term)
	}

	path := ""
	parsed, err := url.Parse(item.URL)
	if err == nil {
		path = strings.ToLower(parsed.Path)
	}
	if segment, found := textutil.FirstContained(path, f.lists.DenyPaths); found {
		return GateDenyPath, fmt.Sprintf("url path contains %q", segment)
	}

	if !textutil.ContainsAny(name, f.lists.AllowKeywords...) {
		return GateAllowKeyword, "name has no trading card keyword"
	}

	if item.Category != catalog.CategoryUnknown {
		agrees := strings.Contains(name, item.Category.Keyword())
		if item.Category == catalog.CategoryBoosterBox {
			agrees = textutil.ContainsAll(name, "box", "booster")
		}
		if !agrees {
			return GateCategory, fmt.Sprintf("name does not mention %q", item.Category.Keyword())
		}
	}

	if !textutil.ContainsAny(name, f.lists.RecentExpansions...) &&
		!textutil.ContainsAny(name, f.lists.DefiniteTerms...) {
		return GateCurrency, "no recent expansion or definite trading card term"
	}

	return GateNone, ""
}

// Filter keeps the items that pass every gate, in their original order. Items
// are never modified.
func (f Filter) Filter(items []catalog.ValidatedItem) ([]catalog.ValidatedItem, []Rejection) {
	var kept []catalog.ValidatedItem
	var rejected []Rejection
	for _, item := range items {
		gate, reason := f.Check(item)
		if gate == GateNone {
			kept = append(kept, item)
			continue
		}
		f.tel.ReportDebug(report_filter_reject, item.Name, gate.String(), reason)
		rejected = append(rejected, Rejection{Item: item, Gate: gate, Reason: reason})
	}
	return kept, rejected
}
