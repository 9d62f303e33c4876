// Package validate confirms a candidate by re-fetching its detail page and
// matching the rendered title against the expected name and category.
package validate

import (
	"context"
	"fmt"
	"strings"
	"tcgwatch/internal/catalog"
	"tcgwatch/internal/components/assert"
	"tcgwatch/internal/components/telemetry"
	"tcgwatch/internal/fetcher"
	"tcgwatch/lib/htmlutil"
	"tcgwatch/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/antzucaro/matchr"
)

const (
	report_validator_fetch    = "validator.fetch"
	report_validator_title    = "validator.title"
	report_validator_mismatch = "validator.mismatch"
)

// GenericTitle is tried after the profile specific title matchers.
var GenericTitle = []htmlutil.Matcher{
	htmlutil.Text("h1"),
	htmlutil.Attr(`meta[property="og:title"]`, "content"),
	htmlutil.Text("title"),
}

// Verdict is the outcome of validating a single candidate.
type Verdict struct {
	OK bool
	// Reason is why the candidate was rejected, empty when OK.
	Reason string
	// Title is the detail page title that was matched against, if any.
	Title string
}

type Validator struct {
	fetcher fetcher.API
	tel     telemetry.API
}

func NewValidator(f fetcher.API, tel telemetry.API) Validator {
	assert.NotNil(f)
	assert.NotNil(tel)
	return Validator{
		fetcher: f,
		tel:     telemetry.NewScopedAPI("validate", tel),
	}
}

// Validate fails closed: any fetch or title lookup failure rejects the candidate.
func (v Validator) Validate(ctx context.Context, candidate catalog.Candidate, titleMatchers []htmlutil.Matcher) Verdict {
	markup, ok := v.fetcher.Fetch(ctx, candidate.URL)
	if !ok {
		v.tel.ReportWarning(report_validator_fetch, candidate.URL)
		return Verdict{Reason: "detail page could not be fetched"}
	}

	title, ok := FindTitle(markup, titleMatchers)
	if !ok {
		v.tel.ReportWarning(report_validator_title, candidate.URL)
		return Verdict{Reason: "no title on detail page"}
	}

	reason := Match(candidate, title)
	if reason != "" {
		expected := textutil.Fold(candidate.Name)
		observed := textutil.Fold(title)
		v.tel.ReportWarning(
			report_validator_mismatch,
			reason,
			fmt.Sprintf("expected: %q", expected),
			fmt.Sprintf("observed: %q", observed),
			fmt.Sprintf("similarity: %.3f", matchr.JaroWinkler(expected, observed, true)),
			candidate.URL,
		)
		return Verdict{Reason: reason, Title: title}
	}
	return Verdict{OK: true, Title: title}
}

// FindTitle returns the first title matched by `matchers` followed by GenericTitle.
func FindTitle(markup string, matchers []htmlutil.Matcher) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", false
	}
	chain := make([]htmlutil.Matcher, 0, len(matchers)+len(GenericTitle))
	chain = append(chain, matchers...)
	chain = append(chain, GenericTitle...)

	title, _, ok := htmlutil.First(doc.Selection, chain)
	return title, ok
}

// Match returns an empty string when `title` confirms both the name and the
// category of the candidate, otherwise the reason it does not.
func Match(candidate catalog.Candidate, title string) string {
	folded := textutil.Fold(title)

	// retailers are inconsistent with spacing around punctuation
	// ("TCG:Scarlet & Violet" vs "TCG: Scarlet &Violet"), names are compared
	// without any whitespace
	name := textutil.NormalizeName(candidate.Name)
	if name != "" && !textutil.MatchName(title, []string{name}) {
		return "title does not contain the listing name"
	}

	var ok bool
	switch candidate.Category {
	case catalog.CategoryBoosterBox:
		ok = textutil.ContainsAll(folded, "booster", "box")
	case catalog.CategoryEliteTrainerBox:
		ok = textutil.ContainsAll(folded, "elite", "trainer") || textutil.ContainsAny(folded, "etb")
	default:
		ok = textutil.MatchName(title, []string{textutil.NormalizeName(candidate.Category.Text())})
	}
	if !ok {
		return fmt.Sprintf("title does not confirm category %s", candidate.Category)
	}
	return ""
}
