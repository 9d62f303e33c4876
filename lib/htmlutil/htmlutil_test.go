package htmlutil

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const fixture = `<html><body>
<div class="tile">
	<span class="name">  Paldean   Fates
		Tin </span>
	<a class="link" href="/p/1">view</a>
	<span class="empty"></span>
</div>
</body></html>`

func TestMatchers(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fixture))
	require.NoError(t, err)

	value, m, ok := First(doc.Selection, []Matcher{
		Text(".missing"),
		Text(".empty"),
		Text(".name"),
	})
	require.True(t, ok)
	require.Equal(t, "Paldean Fates Tin", value)
	require.Equal(t, ".name", m.String())

	href, _, ok := First(doc.Selection, []Matcher{Attr("a.link", "data-href"), Attr("a.link", "href")})
	require.True(t, ok)
	require.Equal(t, "/p/1", href)

	_, _, ok = First(doc.Selection, []Matcher{Text(".missing")})
	require.False(t, ok)
}

func TestFirstSelection(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fixture))
	require.NoError(t, err)

	sel, used := FirstSelection(doc.Selection, []string{".product-tile", ".tile"})
	require.Equal(t, ".tile", used)
	require.Equal(t, 1, sel.Length())

	sel, used = FirstSelection(doc.Selection, []string{".nothing"})
	require.Equal(t, "", used)
	require.Equal(t, 0, sel.Length())
}

func TestResolveHref(t *testing.T) {
	base, err := url.Parse("https://www.target.com")
	require.NoError(t, err)

	table := []struct {
		href     string
		expected string
	}{
		{href: "/p/abc", expected: "https://www.target.com/p/abc"},
		{href: "p/abc", expected: "https://www.target.com/p/abc"},
		{href: "https://www.walmart.com/ip/1", expected: "https://www.walmart.com/ip/1"},
	}
	for _, row := range table {
		resolved, err := ResolveHref(base, row.href)
		require.NoError(t, err)
		require.Equal(t, row.expected, resolved)
	}

	_, err = ResolveHref(nil, "/relative")
	require.Error(t, err)
}
