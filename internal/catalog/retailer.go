package catalog

import (
	"fmt"
	"strings"
)

// Retailer identifies one of the stores the tracker knows how to check.
type Retailer string

const (
	PokemonCenter Retailer = "pokemon-center"
	Target        Retailer = "target"
	Walmart       Retailer = "walmart"
	BestBuy       Retailer = "best-buy"
	GameStop      Retailer = "gamestop"
)

var storeNames = map[Retailer]string{
	PokemonCenter: "Pokemon Center",
	Target:        "Target",
	Walmart:       "Walmart",
	BestBuy:       "Best Buy",
	GameStop:      "GameStop",
}

// AllRetailers returns every known retailer in the order they are checked by default.
func AllRetailers() []Retailer {
	return []Retailer{PokemonCenter, Target, Walmart, BestBuy, GameStop}
}

// StoreName is the human readable name of the retailer.
func (r Retailer) StoreName() string {
	name, ok := storeNames[r]
	if !ok {
		return string(r)
	}
	return name
}

func (r Retailer) Valid() bool {
	_, ok := storeNames[r]
	return ok
}

// ParseRetailer accepts either a retailer id ("best-buy") or its store name
// ("Best Buy"), case-insensitive.
func ParseRetailer(value string) (Retailer, error) {
	value = strings.TrimSpace(value)
	for r, name := range storeNames {
		if strings.EqualFold(string(r), value) || strings.EqualFold(name, value) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown retailer %q", value)
}

// ParseRetailers parses a list of retailers, dropping duplicates while keeping order.
func ParseRetailers(values []string) ([]Retailer, error) {
	seen := map[Retailer]struct{}{}
	var out []Retailer
	for _, v := range values {
		r, err := ParseRetailer(v)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out, nil
}
