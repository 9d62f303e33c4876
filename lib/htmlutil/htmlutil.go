package htmlutil

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText removes non-printable characters, trims and collapses inner whitespace.
func CleanText(s string) string {
	s = removeNonPrintable(s)
	s = strings.TrimSpace(s)
	s = innerWhitespace.ReplaceAllString(s, " ")
	return s
}

// Matcher pulls a single string out of a selection, it returns false when
// nothing usable was found.
type Matcher struct {
	Selector string
	// Attr is the attribute to read, the text content is used when empty.
	Attr string
}

func (m Matcher) String() string {
	if m.Attr == "" {
		return m.Selector
	}
	return fmt.Sprintf("%s@%s", m.Selector, m.Attr)
}

// Text creates a Matcher reading the text of the first element matching selector.
func Text(selector string) Matcher {
	return Matcher{Selector: selector}
}

// Attr creates a Matcher reading `attr` off the first element matching selector.
func Attr(selector, attr string) Matcher {
	return Matcher{Selector: selector, Attr: attr}
}

// Match applies the matcher to `sel`, an empty Selector matches `sel` itself.
func (m Matcher) Match(sel *goquery.Selection) (string, bool) {
	target := sel
	if m.Selector != "" {
		target = sel.Find(m.Selector)
	}
	if target.Length() == 0 {
		return "", false
	}
	target = target.First()

	var value string
	if m.Attr == "" {
		value = CleanText(GetText(target.Get(0)))
	} else {
		attr, exists := target.Attr(m.Attr)
		if !exists {
			return "", false
		}
		value = CleanText(attr)
	}
	if value == "" {
		return "", false
	}
	return value, true
}

// First tries each matcher in order and returns the first non-empty match.
func First(sel *goquery.Selection, matchers []Matcher) (string, Matcher, bool) {
	for _, m := range matchers {
		value, ok := m.Match(sel)
		if ok {
			return value, m, true
		}
	}
	return "", Matcher{}, false
}

// FirstSelection returns the elements matched by the first selector that matches anything.
func FirstSelection(sel *goquery.Selection, selectors []string) (*goquery.Selection, string) {
	for _, s := range selectors {
		found := sel.Find(s)
		if found.Length() > 0 {
			return found, s
		}
	}
	return sel.Find("__no_match__"), ""
}

// ResolveHref makes `href` absolute against `base`, absolute links are returned as is.
func ResolveHref(base *url.URL, href string) (string, error) {
	link, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", err
	}
	if link.IsAbs() {
		return link.String(), nil
	}
	if base == nil {
		return "", fmt.Errorf("relative link %q without a base url", href)
	}
	return base.ResolveReference(link).String(), nil
}
