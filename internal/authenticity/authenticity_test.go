package authenticity

import (
	"slices"
	"tcgwatch/internal/catalog"
	"tcgwatch/internal/components/telemetry"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func item(name, link string, category catalog.Category) catalog.ValidatedItem {
	return catalog.ValidatedItem{
		Candidate: catalog.Candidate{
			Name:     name,
			Price:    decimal.RequireFromString("19.99"),
			URL:      link,
			Retailer: catalog.Target,
			Category: category,
			InStock:  true,
		},
		Validated: true,
	}
}

var accepted = []catalog.ValidatedItem{
	item("Pokémon TCG: Scarlet & Violet - Twilight Masquerade Booster Box", "https://www.pokemoncenter.com/product/699-17070/", catalog.CategoryBoosterBox),
	item("Pokémon TCG: Scarlet & Violet - Twilight Masquerade Elite Trainer Box", "https://www.target.com/p/pokemon-tcg-scarlet-violet-elite-trainer-box/-/A-88392018", catalog.CategoryEliteTrainerBox),
	item("Pokémon TCG: Paldean Fates Premium Collection - Miraidon ex", "https://www.bestbuy.com/site/pokemon-tcg-paldean-fates-premium-collection/6566306.p", catalog.CategoryPremiumCollection),
	item("Pokémon TCG: Scarlet & Violet - Twilight Masquerade 3-Pack Blister", "https://www.walmart.com/ip/pokemon-tcg-blister-pack/645383971", catalog.CategoryBlisterPack),
	item("Pokémon TCG: Crown Zenith Special Collection - Pikachu VMAX", "https://www.gamestop.com/pokemon-tcg-crown-zenith-special-collection/1992913.html", catalog.CategorySpecialCollection),
	item("Pokemon TCG Booster Display Box", "https://www.target.com/p/display/-/A-1", catalog.CategoryBoosterBox),
}

var rejected = []struct {
	item catalog.ValidatedItem
	gate Gate
}{
	{item("Pokémon Plush Figure", "https://www.target.com/p/plush/-/A-2", catalog.CategoryUnknown), GateDenyTerm},
	{item("Random Plush Toy", "https://www.target.com/p/plush/-/A-3", catalog.CategoryUnknown), GateDenyTerm},
	{item("Pokemon TCG Surging Sparks Booster Box", "https://www.target.com/apparel/shirts/-/A-4", catalog.CategoryBoosterBox), GateDenyPath},
	{item("Mystery Box of Goodies", "https://www.walmart.com/ip/mystery/5", catalog.CategoryUnknown), GateAllowKeyword},
	{item("Pokemon TCG Surging Sparks Booster Bundle", "https://www.walmart.com/ip/bundle/6", catalog.CategoryTin), GateCategory},
	{item("Pokemon Evolving Skies Booster Pack", "https://www.walmart.com/ip/pack/7", catalog.CategoryBoosterPack), GateCurrency},
}

func TestFilterGates(t *testing.T) {
	f := NewFilter(DefaultLists(), telemetry.NewRecorder())

	for _, a := range accepted {
		gate, reason := f.Check(a)
		require.Equal(t, GateNone, gate, "%s: %s", a.Name, reason)
	}
	for _, r := range rejected {
		gate, reason := f.Check(r.item)
		require.Equal(t, r.gate, gate, r.item.Name)
		require.NotEmpty(t, reason)
	}
}

func TestFilterPlushScenario(t *testing.T) {
	tel := telemetry.NewRecorder()
	f := NewFilter(DefaultLists(), tel)

	plush := item("Pokémon Plush Figure", "https://www.pokemoncenter.com/product/1", catalog.CategoryUnknown)
	plush.Price = decimal.RequireFromString("0.01")

	kept, rejections := f.Filter([]catalog.ValidatedItem{plush})
	require.Empty(t, kept)
	require.Len(t, rejections, 1)
	require.Equal(t, GateDenyTerm, rejections[0].Gate)
	require.NotEmpty(t, tel.Find(telemetry.LevelDebug, report_filter_reject))
}

func allItems() []catalog.ValidatedItem {
	items := slices.Clone(accepted)
	for _, r := range rejected {
		items = append(items, r.item)
	}
	return items
}

func TestFilterIsStrictReduction(t *testing.T) {
	f := NewFilter(DefaultLists(), telemetry.NewRecorder())
	input := allItems()
	snapshot := slices.Clone(input)

	kept, rejections := f.Filter(input)
	require.Equal(t, snapshot, input)
	require.Equal(t, len(input), len(kept)+len(rejections))
	require.Equal(t, accepted, kept)

	for _, k := range kept {
		require.True(t, slices.Contains(input, k))
		gate, _ := f.Check(k)
		require.Equal(t, GateNone, gate)
	}
}

func TestFilterMonotonicDeny(t *testing.T) {
	full := DefaultLists()
	baseline := NewFilter(full, telemetry.NewRecorder())

	_, before := baseline.Filter(allItems())
	rejectedNames := map[string]bool{}
	for _, r := range before {
		rejectedNames[r.Item.Name] = true
	}

	reduce := func(list []string, i int) []string {
		return slices.Delete(slices.Clone(list), i, i+1)
	}

	var variants []Lists
	for i := range full.AllowKeywords {
		l := full
		l.AllowKeywords = reduce(full.AllowKeywords, i)
		variants = append(variants, l)
	}
	for i := range full.RecentExpansions {
		l := full
		l.RecentExpansions = reduce(full.RecentExpansions, i)
		variants = append(variants, l)
	}

	for _, lists := range variants {
		kept, _ := NewFilter(lists, telemetry.NewRecorder()).Filter(allItems())
		for _, k := range kept {
			require.False(t, rejectedNames[k.Name], "%s was admitted by a smaller list", k.Name)
		}
	}
}

func TestListsExtend(t *testing.T) {
	lists := DefaultLists().Extend(Lists{
		DenyTerms:        []string{"Plush", "Jigsaw Puzzle"},
		RecentExpansions: []string{"Mega Evolution"},
	})
	require.Equal(t, 1, countOf(lists.DenyTerms, "plush"))
	require.Contains(t, lists.DenyTerms, "jigsaw puzzle")
	require.Contains(t, lists.RecentExpansions, "mega evolution")

	f := NewFilter(lists, telemetry.NewRecorder())
	gate, _ := f.Check(item("Pokemon TCG Jigsaw Puzzle", "https://www.target.com/p/x", catalog.CategoryUnknown))
	require.Equal(t, GateDenyTerm, gate)

	gate, _ = f.Check(item("Pokemon Mega Evolution Booster Pack", "https://www.target.com/p/y", catalog.CategoryBoosterPack))
	require.Equal(t, GateNone, gate)
}

func countOf(list []string, term string) int {
	n := 0
	for _, t := range list {
		if t == term {
			n++
		}
	}
	return n
}
