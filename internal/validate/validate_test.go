package validate

import (
	"context"
	"tcgwatch/internal/catalog"
	"tcgwatch/internal/components/telemetry"
	"tcgwatch/lib/htmlutil"
	"testing"

	"github.com/stretchr/testify/require"
)

type pages map[string]string

func (p pages) Fetch(_ context.Context, url string) (string, bool) {
	markup, ok := p[url]
	return markup, ok
}

const boxURL = "https://www.pokemoncenter.com/product/699"

var boxCandidate = catalog.Candidate{
	Name:     "Twilight Masquerade Booster Box",
	URL:      boxURL,
	Retailer: catalog.PokemonCenter,
	Category: catalog.CategoryBoosterBox,
	InStock:  true,
}

func TestValidate(t *testing.T) {
	table := []struct {
		name     string
		markup   string
		matchers []htmlutil.Matcher
		ok       bool
		title    string
	}{
		{
			name:     "profile title",
			markup:   `<div class="product-title">Pokémon TCG: Twilight  Masquerade Booster Box</div><h1>Shop</h1>`,
			matchers: []htmlutil.Matcher{htmlutil.Text(".product-title")},
			ok:       true,
			title:    "Pokémon TCG: Twilight Masquerade Booster Box",
		},
		{
			name:   "generic h1",
			markup: `<h1>Twilight Masquerade Booster Box</h1>`,
			ok:     true,
			title:  "Twilight Masquerade Booster Box",
		},
		{
			name:   "og title",
			markup: `<head><meta property="og:title" content="Twilight Masquerade Booster Box | Pokemon Center"></head>`,
			ok:     true,
		},
		{
			name:   "wrong product",
			markup: `<h1>Twilight Masquerade Elite Trainer Box</h1>`,
			ok:     false,
		},
		{
			name:   "no title",
			markup: `<div>nothing</div>`,
			ok:     false,
		},
	}

	for _, test := range table {
		t.Run(test.name, func(t *testing.T) {
			v := NewValidator(pages{boxURL: test.markup}, telemetry.NewRecorder())
			verdict := v.Validate(context.Background(), boxCandidate, test.matchers)
			require.Equal(t, test.ok, verdict.OK, verdict.Reason)
			if test.ok {
				require.Empty(t, verdict.Reason)
			} else {
				require.NotEmpty(t, verdict.Reason)
			}
			if test.title != "" {
				require.Equal(t, test.title, verdict.Title)
			}
		})
	}
}

func TestValidateFetchFailureFailsClosed(t *testing.T) {
	tel := telemetry.NewRecorder()
	v := NewValidator(pages{}, tel)
	verdict := v.Validate(context.Background(), boxCandidate, nil)
	require.False(t, verdict.OK)
	require.NotEmpty(t, tel.Find(telemetry.LevelWarning, report_validator_fetch))
}

func TestValidateMismatchIsReported(t *testing.T) {
	tel := telemetry.NewRecorder()
	v := NewValidator(pages{boxURL: "<h1>Surging Sparks Booster Box</h1>"}, tel)
	verdict := v.Validate(context.Background(), boxCandidate, nil)
	require.False(t, verdict.OK)

	reports := tel.Find(telemetry.LevelWarning, report_validator_mismatch)
	require.Len(t, reports, 1)
	require.Contains(t, reports[0].Params[1], "twilight masquerade booster box")
	require.Contains(t, reports[0].Params[2], "surging sparks booster box")
	require.Contains(t, reports[0].Params[3], "similarity")
}

func TestMatchCategory(t *testing.T) {
	table := []struct {
		category catalog.Category
		title    string
		ok       bool
	}{
		{catalog.CategoryBoosterBox, "Booster Display Box", true},
		{catalog.CategoryBoosterBox, "Booster Bundle", false},
		{catalog.CategoryEliteTrainerBox, "Elite Trainer Box", true},
		{catalog.CategoryEliteTrainerBox, "Paldean Fates ETB", true},
		{catalog.CategoryEliteTrainerBox, "Trainer Toolkit", false},
		{catalog.CategoryTin, "Stacking Tin", true},
		{catalog.CategorySpecialCollection, "Special  Collection\tBox", true},
		{catalog.CategoryPremiumCollection, "Premium Collection - Miraidon ex", true},
		{catalog.CategoryPremiumCollection, "Special Collection", false},
		{catalog.CategoryBlisterPack, "3-Pack Blister", false},
		{catalog.CategoryUnknown, "Mystery Item", false},
	}

	for _, test := range table {
		candidate := catalog.Candidate{Category: test.category}
		reason := Match(candidate, test.title)
		require.Equal(t, test.ok, reason == "", "%s / %s: %s", test.category, test.title, reason)
	}
}

func TestMatchNameIgnoresAccentsAndSpacing(t *testing.T) {
	candidate := catalog.Candidate{
		Name:     "Pokémon  TCG Surging Sparks Booster Box",
		Category: catalog.CategoryBoosterBox,
	}
	require.Empty(t, Match(candidate, "POKEMON TCG Surging Sparks Booster Box - Official"))
	require.NotEmpty(t, Match(candidate, "Surging Sparks Booster Box"))
}

func TestMatchNameIgnoresPunctuationSpacing(t *testing.T) {
	candidate := catalog.Candidate{
		Name:     "Pokémon TCG: Scarlet & Violet Booster Box",
		Category: catalog.CategoryBoosterBox,
	}
	require.Empty(t, Match(candidate, "Pokemon TCG:Scarlet &Violet Booster Box"))
	require.NotEmpty(t, Match(candidate, "Pokemon TCG: Scarlet & Sword Booster Box"))
}
