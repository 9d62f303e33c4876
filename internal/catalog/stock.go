package catalog

// StockMode decides how the stock text of a listing is interpreted.
type StockMode int

const (
	// StockAffirmative requires an affirmative term and no negative term.
	StockAffirmative StockMode = iota
	// StockNegativeOnly treats a listing as available unless a negative term shows up.
	StockNegativeOnly
	// StockAssumed is for pages without any per-item stock text, everything
	// listed is taken as available.
	StockAssumed
)

func (m StockMode) String() string {
	switch m {
	case StockAffirmative:
		return "affirmative"
	case StockNegativeOnly:
		return "negative-only"
	case StockAssumed:
		return "assumed"
	}
	return "unknown"
}

type StockRule struct {
	Mode        StockMode
	Affirmative []string
	Negative    []string
}

// DefaultNegativeTerms are the phrases retailers use for unavailable products.
var DefaultNegativeTerms = []string{
	"out of stock",
	"sold out",
	"unavailable",
	"not available",
	"coming soon",
	"notify me",
}
