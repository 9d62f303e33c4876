package classify

import (
	"tcgwatch/internal/catalog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	table := []struct {
		name     string
		expected catalog.Category
	}{
		{name: "Scarlet & Violet Booster Box", expected: catalog.CategoryBoosterBox},
		{name: "Elite Trainer Box ETB", expected: catalog.CategoryEliteTrainerBox},
		{name: "Paldean Fates ETB", expected: catalog.CategoryEliteTrainerBox},
		{name: "3-Pack Blister", expected: catalog.CategoryBlisterPack},
		{name: "Pokémon TCG: Scarlet & Violet - Twilight Masquerade 3-Pack Blister", expected: catalog.CategoryBlisterPack},
		{name: "Random Plush Toy", expected: catalog.CategoryUnknown},
		{name: "Booster Box of Packs", expected: catalog.CategoryBoosterBox},
		{name: "Surging Sparks Booster Pack", expected: catalog.CategoryBoosterPack},
		{name: "Sleeved Pack - Stellar Crown", expected: catalog.CategoryBoosterPack},
		{name: "Paldean Fates Tin", expected: catalog.CategoryTin},
		{name: "Destined Rivals Sleeved Booster", expected: catalog.CategoryUnknown},
		{name: "Crown Zenith Special Collection - Pikachu VMAX", expected: catalog.CategorySpecialCollection},
		{name: "Paldean Fates Premium Collection - Miraidon ex", expected: catalog.CategoryPremiumCollection},
		{name: "Booster Bundle", expected: catalog.CategoryBundle},
		{name: "Battle Deck - Victini V", expected: catalog.CategoryDeck},
		{name: "Boosters Display Box", expected: catalog.CategoryBoosterBox},
		{name: "Trainer Toolkit Box", expected: catalog.CategoryEliteTrainerBox},
		{name: "Collection Premium Figure", expected: catalog.CategoryPremiumCollection},
		{name: "Charizard ex Collection", expected: catalog.CategorySpecialCollection},
		{name: "Pokemon Trading Card Game Pack Assortment", expected: catalog.CategoryBoosterPack},
		{name: "Pokemon Trading Cards Binder", expected: catalog.CategorySpecialCollection},
		{name: "", expected: catalog.CategoryUnknown},
	}

	for _, row := range table {
		require.Equal(t, row.expected, Classify(row.name), row.name)
	}
}

func TestClassifyPrecedence(t *testing.T) {
	// tin outranks collections, collections outrank blister
	require.Equal(t, catalog.CategoryTin, Classify("Special Collection Tin"))
	require.Equal(t, catalog.CategorySpecialCollection, Classify("Special Collection Blister"))

	_, rule := Explain("Booster Box of Packs")
	require.Equal(t, "booster-box", rule)

	_, rule = Explain("Random Plush Toy")
	require.Equal(t, "fallback", rule)
}

func TestClassifyDeterministic(t *testing.T) {
	names := []string{
		"Scarlet & Violet Booster Box",
		"Pokemon TCG Mini Tin",
		"Something entirely unrelated",
	}
	for _, n := range names {
		first := Classify(n)
		for i := 0; i < 10; i++ {
			require.Equal(t, first, Classify(n))
		}
	}
}
